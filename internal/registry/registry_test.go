package registry_test

import (
	"testing"

	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/registry"
)

func newTestEntry(id, addressRange string) *registry.Entry {
	return registry.NewEntry(id, "client1", registry.Transceiver, "127.0.0.1:9999", addressRange, make(chan pdu.PDU, 1))
}

func TestInsertGetRemove(t *testing.T) {
	r := registry.New()
	e := newTestEntry("sess-1", "^2.*$")
	r.Insert(e)

	got, ok := r.Get("sess-1")
	if !ok || got != e {
		t.Fatalf("expected to get back the inserted entry")
	}
	if r.Len() != 1 {
		t.Fatalf("expected len 1, got %d", r.Len())
	}

	r.Remove("sess-1")
	if _, ok := r.Get("sess-1"); ok {
		t.Fatalf("expected entry removed")
	}
	if r.Len() != 0 {
		t.Fatalf("expected len 0 after removal, got %d", r.Len())
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	r := registry.New()
	r.Remove("does-not-exist")
	if r.Len() != 0 {
		t.Fatalf("expected registry to remain empty")
	}
}

func TestFindSubscriberRegexMatch(t *testing.T) {
	r := registry.New()
	r.Insert(newTestEntry("sess-1", "^2[0-9]+$"))

	got, ok := r.FindSubscriber("2000")
	if !ok || got.ID != "sess-1" {
		t.Fatalf("expected sess-1 to match dest 2000")
	}
	if _, ok := r.FindSubscriber("1000"); ok {
		t.Fatalf("expected no match for dest 1000")
	}
}

func TestFindSubscriberPrefixFallback(t *testing.T) {
	r := registry.New()
	// "[" makes for an invalid regex, forcing the literal-prefix fallback.
	r.Insert(newTestEntry("sess-1", "30["))

	if _, ok := r.FindSubscriber("30[001"); !ok {
		t.Fatalf("expected prefix match on invalid regex range")
	}
	if _, ok := r.FindSubscriber("40001"); ok {
		t.Fatalf("expected no prefix match")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	r := registry.New()
	r.Insert(newTestEntry("sess-1", ""))

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected snapshot of 1 entry, got %d", len(snap))
	}
	r.Remove("sess-1")
	if len(snap) != 1 {
		t.Fatalf("snapshot should be unaffected by later mutation")
	}
}
