package queue_test

import (
	"testing"
	"time"

	"github.com/smppsim/smppsim/internal/queue"
)

func TestNextMessageIDIsMonotonicAndFormatted(t *testing.T) {
	q := queue.New()
	first := q.NextMessageID()
	second := q.NextMessageID()

	if len(first) != 8 || len(second) != 8 {
		t.Fatalf("expected 8 hex digit ids, got %q and %q", first, second)
	}
	if first == second {
		t.Fatalf("expected distinct ids")
	}
	if first != "00000001" {
		t.Fatalf("expected first id 00000001, got %s", first)
	}
	if second != "00000002" {
		t.Fatalf("expected second id 00000002, got %s", second)
	}
}

func TestAddPendingDRIndexesBothMaps(t *testing.T) {
	q := queue.New()
	msg := &queue.Message{MessageID: "00000001", SourceAddr: "1", DestAddr: "2", SubmittedAt: time.Now()}
	q.AddPendingDR(msg)

	if len(q.RecentSnapshot()) != 1 {
		t.Fatalf("expected message in recent snapshot")
	}
	if len(q.PendingSnapshot()) != 1 {
		t.Fatalf("expected message in pending snapshot")
	}
}

func TestRemovePendingDRKeepsRecent(t *testing.T) {
	q := queue.New()
	msg := &queue.Message{MessageID: "00000001", SubmittedAt: time.Now()}
	q.AddPendingDR(msg)
	q.RemovePendingDR(msg.MessageID)

	if len(q.PendingSnapshot()) != 0 {
		t.Fatalf("expected pending to be empty after removal")
	}
	if len(q.RecentSnapshot()) != 1 {
		t.Fatalf("expected recent to still contain the message")
	}
}
