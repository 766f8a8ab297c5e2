package logbuf_test

import (
	"testing"
	"time"

	"github.com/smppsim/smppsim/internal/logbuf"
)

func TestSnapshotReturnsLinesInOrder(t *testing.T) {
	b := logbuf.New(10)
	b.WriteLine("first")
	b.WriteLine("second")

	snap := b.Snapshot()
	if len(snap) != 2 || snap[0] != "first" || snap[1] != "second" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRingTrimsToCapacity(t *testing.T) {
	b := logbuf.New(2)
	b.WriteLine("a")
	b.WriteLine("b")
	b.WriteLine("c")

	snap := b.Snapshot()
	if len(snap) != 2 || snap[0] != "b" || snap[1] != "c" {
		t.Fatalf("expected ring trimmed to last 2 lines, got %+v", snap)
	}
}

func TestSubscribeReceivesSubsequentLines(t *testing.T) {
	b := logbuf.New(10)
	sub, unsubscribe := b.Subscribe(4)
	defer unsubscribe()

	b.WriteLine("hello")
	select {
	case line := <-sub:
		if line != "hello" {
			t.Fatalf("expected 'hello', got %q", line)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected to receive the written line")
	}
}

func TestWriteImplementsIOWriter(t *testing.T) {
	b := logbuf.New(10)
	n, err := b.Write([]byte("via io.Writer"))
	if err != nil || n != len("via io.Writer") {
		t.Fatalf("unexpected Write result: n=%d err=%v", n, err)
	}
	if got := b.Snapshot(); len(got) != 1 || got[0] != "via io.Writer" {
		t.Fatalf("expected the write to land in the ring, got %+v", got)
	}
}
