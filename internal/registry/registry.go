// Package registry implements the thread-safe index of bound SMPP sessions
// used to route mobile-originated traffic and delivery receipts back to the
// connection that owns them.
package registry

import (
	"regexp"
	"sync"

	"github.com/smppsim/smppsim/internal/pdu"
)

// BindRole identifies which of the three SMPP bind flavors a session used.
type BindRole int

const (
	// Transmitter sessions may submit; FindSubscriber never picks them for
	// MOs, but they do receive delivery receipts for their own submits.
	Transmitter BindRole = iota
	// Receiver sessions only receive deliver_sm (MOs and receipts).
	Receiver
	// Transceiver sessions do both.
	Transceiver
)

func (r BindRole) String() string {
	switch r {
	case Transmitter:
		return "transmitter"
	case Receiver:
		return "receiver"
	case Transceiver:
		return "transceiver"
	}
	return "unknown"
}

// Entry is the routing-facing record for a bound session: enough to find it
// again and to hand it a PDU to deliver. The connection handler owns the
// codec and request bookkeeping; this is only what the rest of the system
// needs to reach it.
type Entry struct {
	ID           string
	SystemID     string
	BindRole     BindRole
	PeerAddr     string
	AddressRange string
	Outbound     chan<- pdu.PDU

	addrRe *regexp.Regexp
}

// NewEntry builds a registry entry, pre-compiling address_range as a regex
// when possible. A range that fails to compile is matched as a literal
// prefix instead, per the session registry's documented fallback.
func NewEntry(id, systemID string, role BindRole, peerAddr, addressRange string, outbound chan<- pdu.PDU) *Entry {
	e := &Entry{
		ID:           id,
		SystemID:     systemID,
		BindRole:     role,
		PeerAddr:     peerAddr,
		AddressRange: addressRange,
		Outbound:     outbound,
	}
	if addressRange != "" {
		if re, err := regexp.Compile(addressRange); err == nil {
			e.addrRe = re
		}
	}
	return e
}

func (e *Entry) matches(destAddr string) bool {
	if e.AddressRange == "" {
		return false
	}
	if e.addrRe != nil {
		return e.addrRe.MatchString(destAddr)
	}
	return len(destAddr) >= len(e.AddressRange) && destAddr[:len(e.AddressRange)] == e.AddressRange
}

// Registry is a concurrent map of session id to Entry plus the subscriber
// lookup used to route MOs and receipts.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*Entry)}
}

// Insert adds or replaces the entry for e.ID.
func (r *Registry) Insert(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[e.ID] = e
}

// Remove deletes the entry for id. Removing an id that isn't present is a
// no-op, keeping the operation idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the entry for id, if any.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

// Snapshot returns a copy of all entries, safe to range over without holding
// the registry lock.
func (r *Registry) Snapshot() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e)
	}
	return out
}

// Len reports the number of bound sessions currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// FindSubscriber returns the first Receiver or Transceiver session whose
// address_range matches destAddr. Iteration order over the underlying map is
// unspecified but each call observes a single consistent snapshot.
func (r *Registry) FindSubscriber(destAddr string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.BindRole != Receiver && e.BindRole != Transceiver {
			continue
		}
		if e.matches(destAddr) {
			return e, true
		}
	}
	return nil, false
}
