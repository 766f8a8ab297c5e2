// Package smsc implements the SMPP protocol engine: per-connection session
// state machine, the SMSC listener, request dispatch and authentication.
// It plays both roles the wire protocol defines - SMSC (this simulator) and
// ESME (the test client in internal/esmeclient) - the same way the teacher
// library did, since a session's state machine is identical in shape for
// either side, only the direction of "received" differs.
package smsc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/smppsim/smppsim/internal/pdu"
)

// Error implements error and reports whether the failure is temporary.
type Error struct {
	Msg  string
	Temp bool
}

func (e Error) Error() string { return e.Msg }

// Temporary reports whether the caller may retry.
func (e Error) Temporary() bool { return e.Temp }

// SessionState describes where a session is in the bind lifecycle.
type SessionState int

const (
	// StateOpen is the initial state of a freshly accepted connection.
	StateOpen SessionState = iota
	// StateBinding has sent or received a bind request awaiting its response.
	StateBinding
	// StateBoundTx is bound as transmitter.
	StateBoundTx
	// StateBoundRx is bound as receiver.
	StateBoundRx
	// StateBoundTRx is bound as transceiver.
	StateBoundTRx
	// StateUnbinding has sent or received unbind awaiting its response.
	StateUnbinding
	// StateClosing is shutting down.
	StateClosing
	// StateClosed has fully torn down.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateBinding:
		return "binding"
	case StateBoundTx:
		return "bound_tx"
	case StateBoundRx:
		return "bound_rx"
	case StateBoundTRx:
		return "bound_trx"
	case StateUnbinding:
		return "unbinding"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SessionType defines whether a Session plays the ESME (client) or SMSC
// (server) side of the protocol.
type SessionType int

const (
	// ESME is the client role, used by internal/esmeclient.
	ESME SessionType = iota
	// SMSC is the server role this simulator plays.
	SMSC
)

// Handler handles inbound SMPP requests.
type Handler interface {
	ServeSMPP(ctx *Context)
}

// HandlerFunc wraps a function as a Handler.
type HandlerFunc func(ctx *Context)

// ServeSMPP implements Handler.
func (hc HandlerFunc) ServeSMPP(ctx *Context) { hc(ctx) }

type defaultHandler struct{}

func (defaultHandler) ServeSMPP(ctx *Context) {
	ctx.Respond(&pdu.GenericNack{}, pdu.StatusSysErr)
}

func genSessionID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// crypto/rand failure; NewV4 only errors if the system RNG is
		// broken, which is unrecoverable for a process handing out ids.
		panic(err)
	}
	return id.String()
}

// RemoteAddresser decouples Session from holding a concrete net.Conn type.
type RemoteAddresser interface {
	RemoteAddr() net.Addr
}

// SessionConf configures a new Session.
type SessionConf struct {
	Type          SessionType
	SendWinSize   int
	ReqWinSize    int
	WindowTimeout time.Duration
	OutboundCap   int
	SessionState  func(sessionID, systemID string, state SessionState)
	SystemID      string
	ID            string
	Logger        Logger
	Handler       Handler
	Sequencer     pdu.Sequencer
	ProtocolMode  pdu.ProtocolMode
}

type response struct {
	resp pdu.PDU
	err  error
}

// Session coordinates the SMPP protocol for one bound peer: decoding inbound
// PDUs, dispatching requests to a Handler, correlating responses to sends,
// and serializing every outbound write - whether a response or a PDU pushed
// from elsewhere in the process - through a single writer.
type Session struct {
	conf     *SessionConf
	rwc      io.ReadWriteCloser
	enc      *pdu.Encoder
	dec      *pdu.Decoder
	wg       sync.WaitGroup
	mu       sync.Mutex
	reqCount int
	sent     map[uint32]chan response
	state    SessionState
	systemID string
	closed   chan struct{}
	outbound chan pdu.PDU
}

// NewSession creates a Session and starts its goroutines; Close must be
// called to avoid leaking them. Session takes ownership of rwc.
func NewSession(rwc io.ReadWriteCloser, conf SessionConf) *Session {
	if conf.SendWinSize == 0 {
		conf.SendWinSize = 10
	}
	if conf.Logger == nil {
		conf.Logger = NopLogger{}
	}
	if conf.Handler == nil {
		conf.Handler = defaultHandler{}
	}
	if conf.WindowTimeout == 0 {
		conf.WindowTimeout = 10 * time.Second
	}
	if conf.ReqWinSize == 0 {
		conf.ReqWinSize = 10
	}
	if conf.OutboundCap == 0 {
		conf.OutboundCap = 100
	}
	if conf.ID == "" {
		conf.ID = genSessionID()
	}
	dec := pdu.NewDecoder(rwc)
	dec.SetMode(conf.ProtocolMode)
	sess := &Session{
		conf:     &conf,
		rwc:      rwc,
		enc:      pdu.NewEncoder(rwc, conf.Sequencer),
		dec:      dec,
		sent:     make(map[uint32]chan response, conf.SendWinSize),
		closed:   make(chan struct{}),
		outbound: make(chan pdu.PDU, conf.OutboundCap),
	}
	sess.wg.Add(2)
	go sess.serve()
	go sess.writeLoop()
	return sess
}

// ID uniquely identifies the session.
func (sess *Session) ID() string { return sess.conf.ID }

// SystemID identifies the connected peer, once known.
func (sess *Session) SystemID() string {
	if sess.conf.SystemID != "" {
		return sess.conf.SystemID
	}
	if sess.systemID != "" {
		return sess.systemID
	}
	return "-"
}

func (sess *Session) String() string {
	return fmt.Sprintf("(%s:%s:%s)", sess.conf.Type, sess.SystemID(), sess.conf.ID)
}

func (sess *Session) remoteAddr() string {
	if ra, ok := sess.rwc.(RemoteAddresser); ok {
		return ra.RemoteAddr().String()
	}
	return ""
}

// Outbound returns the send-only side of the session's outbound queue, for
// wiring into a registry.Entry so other components can push PDUs to this
// peer without touching the socket directly.
func (sess *Session) Outbound() chan<- pdu.PDU { return sess.outbound }

// State returns the session's current bind state.
func (sess *Session) State() SessionState {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// serve decodes inbound PDUs, dispatching requests to the handler and
// routing responses back to whichever Send call is awaiting them.
func (sess *Session) serve() {
	defer sess.wg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for {
		h, p, err := sess.dec.Decode()
		if err != nil {
			if err == io.EOF {
				sess.conf.Logger.InfoF("decoding pdu: %s %+v", sess, err)
			} else {
				sess.conf.Logger.ErrorF("decoding pdu: %s %+v", sess, err)
			}
			sess.shutdown()
			return
		}
		sess.mu.Lock()
		if id := pdu.SystemID(p); id != "" {
			sess.systemID = id
		}
		if err := sess.makeTransition(h.CommandID(), true, h.Status()); err != nil {
			sess.conf.Logger.ErrorF("unhandled pdu: %s %+v", sess, err)
			sess.mu.Unlock()
			continue
		}
		if pdu.IsRequest(h.CommandID()) {
			sess.conf.Logger.InfoF("received request: %s %s%+v", sess, p.CommandID(), p)
			if sess.reqCount == sess.conf.ReqWinSize {
				sess.throttle(h.Sequence())
			} else {
				sess.wg.Add(1)
				sess.reqCount++
				go sess.handleRequest(ctx, h, p)
			}
			sess.mu.Unlock()
			continue
		}
		if l, ok := sess.sent[h.Sequence()]; ok {
			sess.conf.Logger.InfoF("received response: %s %s%+v", sess, p.CommandID(), p)
			delete(sess.sent, h.Sequence())
			sess.mu.Unlock()
			l <- response{resp: p, err: toError(h.Status())}
			continue
		}
		sess.conf.Logger.ErrorF("unexpected response: %s %s%+v", sess, p.CommandID(), p)
		sess.mu.Unlock()
	}
}

// writeLoop is the single writer for PDUs originating outside the request/
// response path - delivery receipts from the lifecycle engine, MOs from the
// MO service. It shares sess.mu with Respond so every byte written to rwc is
// serialized regardless of which goroutine produced it.
func (sess *Session) writeLoop() {
	defer sess.wg.Done()
	for {
		select {
		case p, ok := <-sess.outbound:
			if !ok {
				return
			}
			sess.writePushed(p)
		case <-sess.closed:
			return
		}
	}
}

// writePushed encodes a server-initiated PDU with sequence number 0, per the
// wire convention that only request/response pairs carry a meaningful
// sequence number.
func (sess *Session) writePushed(p pdu.PDU) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.makeTransition(p.CommandID(), false, pdu.StatusOK); err != nil {
		sess.conf.Logger.ErrorF("transitioning pushed pdu: %s %+v", sess, err)
		return
	}
	if _, err := sess.enc.Encode(p, pdu.EncodeSeq(0)); err != nil {
		sess.conf.Logger.ErrorF("error encoding pushed pdu: %s %+v", sess, err)
	}
}

func (sess *Session) throttle(seq uint32) {
	resp := pdu.GenericNack{}
	if _, err := sess.enc.Encode(resp, pdu.EncodeStatus(pdu.StatusThrottled), pdu.EncodeSeq(seq)); err != nil {
		sess.conf.Logger.ErrorF("error encoding pdu: %s %+v", sess, err)
	}
}

func (sess *Session) handleRequest(ctx context.Context, h pdu.Header, req pdu.PDU) {
	ctx, cancel := context.WithTimeout(ctx, sess.conf.WindowTimeout)
	defer func() {
		cancel()
		sess.mu.Lock()
		sess.reqCount--
		sess.mu.Unlock()
		sess.wg.Done()
	}()
	sessCtx := &Context{sess: sess, ctx: ctx, seq: h.Sequence(), req: req}
	sess.conf.Handler.ServeSMPP(sessCtx)
	if sessCtx.close {
		sess.shutdown()
	}
}

func (sess *Session) shutdown() {
	go sess.Close()
}

// Close tears the session down, waiting for in-flight handlers to finish.
// Safe to call more than once.
func (sess *Session) Close() error {
	sess.mu.Lock()
	if sess.state == StateClosed || sess.state == StateClosing {
		sess.mu.Unlock()
		return nil
	}
	if err := sess.setState(StateClosing); err != nil {
		sess.mu.Unlock()
		return err
	}
	for k, l := range sess.sent {
		delete(sess.sent, k)
		close(l)
	}
	sess.rwc.Close()
	if err := sess.setState(StateClosed); err != nil {
		sess.mu.Unlock()
		return err
	}
	sess.mu.Unlock()
	close(sess.closed)
	sess.wg.Wait()
	sess.conf.Logger.InfoF("session closed: %s", sess)
	return nil
}

// Must be guarded by mutex.
func (sess *Session) setState(state SessionState) error {
	if sess.state == state {
		return fmt.Errorf("smsc: setting same state twice %s", state)
	}
	switch sess.state {
	case StateOpen:
		if state != StateBinding && state != StateClosing {
			return fmt.Errorf("smsc: setting open session to invalid state %s", state)
		}
	case StateBinding:
		switch state {
		case StateOpen, StateBoundRx, StateBoundTRx, StateBoundTx, StateClosing:
		default:
			return fmt.Errorf("smsc: setting binding session to invalid state %s", state)
		}
	case StateBoundRx, StateBoundTRx, StateBoundTx:
		switch state {
		case StateUnbinding, StateClosing:
		default:
			return fmt.Errorf("smsc: setting bound session to invalid state %s", state)
		}
	case StateUnbinding:
		if state != StateClosing {
			return fmt.Errorf("smsc: setting unbinding session to invalid state %s", state)
		}
	case StateClosing:
		if state != StateClosed {
			return fmt.Errorf("smsc: setting closing session to invalid state %s", state)
		}
	case StateClosed:
		return fmt.Errorf("smsc: session %s already in closed state %s", sess, state)
	}
	sess.state = state
	if hook := sess.conf.SessionState; hook != nil {
		hook(sess.conf.ID, sess.SystemID(), sess.state)
	}
	return nil
}

// Send writes req and blocks for its response, or until ctx is done.
func (sess *Session) Send(ctx context.Context, req pdu.PDU) (pdu.PDU, error) {
	if req == nil {
		return nil, Error{Msg: "smsc: sending nil pdu"}
	}
	sess.mu.Lock()
	if len(sess.sent) == sess.conf.SendWinSize {
		sess.mu.Unlock()
		return nil, Error{Msg: "smsc: sending window closed", Temp: true}
	}
	if err := sess.makeTransition(req.CommandID(), false, pdu.StatusOK); err != nil {
		sess.conf.Logger.ErrorF("transitioning before send: %s %+v", sess, err)
		sess.mu.Unlock()
		return nil, err
	}
	seq, err := sess.enc.Encode(req)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	l := make(chan response, 1)
	sess.sent[seq] = l
	sess.conf.Logger.InfoF("request sent: %s %s%+v", sess, req.CommandID(), req)
	sess.mu.Unlock()
	select {
	case resp, ok := <-l:
		if !ok {
			return nil, errors.New("smsc: session closed before receiving response")
		}
		if resp.err != nil {
			return resp.resp, resp.err
		}
		return resp.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// makeTransition validates that processing PDU ID in the current state is
// legal and advances the state machine accordingly. status is the response
// status being sent or received; it only matters for Bind*Resp ids, where a
// non-ROK status must not advance the session to a bound state. Must be
// guarded by mu. Command ids this simulator neither produces nor acts on
// (e.g. query_sm, the RawPDU fallback) fall through to the default error,
// which callers in serve() treat as "log and ignore" rather than a fatal
// framing problem.
func (sess *Session) makeTransition(ID pdu.CommandID, received bool, status pdu.Status) error {
	if (sess.conf.Type == ESME && !received) || (sess.conf.Type == SMSC && received) {
		switch sess.state {
		case StateOpen:
			switch ID {
			case pdu.BindTransceiverID, pdu.BindTransmitterID, pdu.BindReceiverID:
				return sess.setState(StateBinding)
			default:
				// Any other request arriving before a bind attempt (submit_sm,
				// enquire_link, unbind) is routed to the handler unchanged so it
				// can respond with the precondition-appropriate status; it is not
				// itself an FSM violation.
				if pdu.IsRequest(ID) {
					return nil
				}
			}
		case StateBinding:
			if ID == pdu.GenericNackID {
				return sess.setState(StateOpen)
			}
		case StateBoundTx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.UnbindRespID, pdu.SubmitSmID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID:
				return nil
			}
		case StateBoundRx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.UnbindRespID, pdu.DeliverSmRespID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID:
				return nil
			}
		case StateBoundTRx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.SubmitSmID, pdu.DeliverSmRespID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID:
				return nil
			}
		case StateUnbinding:
			if ID == pdu.UnbindRespID {
				return nil
			}
		case StateClosing, StateClosed:
		}
	} else if (sess.conf.Type == SMSC && !received) || (sess.conf.Type == ESME && received) {
		switch sess.state {
		case StateBinding:
			switch ID {
			case pdu.BindTransceiverRespID:
				if status != pdu.StatusOK {
					return sess.setState(StateOpen)
				}
				return sess.setState(StateBoundTRx)
			case pdu.BindTransmitterRespID:
				if status != pdu.StatusOK {
					return sess.setState(StateOpen)
				}
				return sess.setState(StateBoundTx)
			case pdu.BindReceiverRespID:
				if status != pdu.StatusOK {
					return sess.setState(StateOpen)
				}
				return sess.setState(StateBoundRx)
			case pdu.GenericNackID:
				return sess.setState(StateOpen)
			}
		case StateBoundTx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.SubmitSmRespID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID, pdu.DeliverSmID:
				return nil
			}
		case StateBoundRx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.DeliverSmID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID:
				return nil
			}
		case StateBoundTRx:
			switch ID {
			case pdu.UnbindID:
				return sess.setState(StateUnbinding)
			case pdu.SubmitSmRespID, pdu.DeliverSmID, pdu.EnquireLinkID, pdu.EnquireLinkRespID, pdu.GenericNackID:
				return nil
			}
		case StateUnbinding:
			if ID == pdu.UnbindRespID {
				return nil
			}
		case StateOpen:
			// Responses to requests that arrived before a successful bind.
			switch ID {
			case pdu.SubmitSmRespID, pdu.EnquireLinkRespID, pdu.UnbindRespID, pdu.GenericNackID:
				return nil
			}
		case StateClosing, StateClosed:
		}
	}
	return Error{Msg: fmt.Sprintf("smsc: processing '0x%X' in invalid session state '%s'", uint32(ID), sess.state), Temp: true}
}

// NotifyClosed returns a channel closed once the session reaches StateClosed.
func (sess *Session) NotifyClosed() <-chan struct{} { return sess.closed }

// StatusError reports an SMPP status code as a Go error.
type StatusError struct {
	msg    string
	status pdu.Status
}

func (se StatusError) Error() string { return fmt.Sprintf("%s '0x%X'", se.msg, int(se.status)) }

// Status returns the PDU status code of the error.
func (se StatusError) Status() pdu.Status { return se.status }

func toError(status pdu.Status) error {
	if status == pdu.StatusOK {
		return nil
	}
	return StatusError{msg: "smsc: request failed", status: status}
}
