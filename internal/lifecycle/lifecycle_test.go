package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/smppsim/smppsim/internal/lifecycle"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
)

type nopLogger struct{}

func (nopLogger) InfoF(string, ...interface{})  {}
func (nopLogger) ErrorF(string, ...interface{}) {}

func cancelledAfter(d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	_ = cancel
	return ctx
}

func TestTickSkipsMessagesNotYetEnroute(t *testing.T) {
	q := queue.New()
	r := registry.New()
	msg := &queue.Message{MessageID: "00000001", SessionID: "sess-1", SubmittedAt: time.Now()}
	q.AddPendingDR(msg)

	e := lifecycle.New(lifecycle.Config{
		CheckFrequency:   time.Millisecond,
		MaxTimeEnroute:   time.Hour,
		PercentDelivered: 100,
	}, q, r, nopLogger{})

	done := make(chan struct{})
	go func() {
		e.Run(cancelledAfter(10 * time.Millisecond))
		close(done)
	}()
	<-done

	if len(q.PendingSnapshot()) != 1 {
		t.Fatalf("expected message still pending before its enroute deadline")
	}
}

func TestDeliverSendsReceiptToOwningSession(t *testing.T) {
	q := queue.New()
	r := registry.New()
	out := make(chan pdu.PDU, 1)
	r.Insert(registry.NewEntry("sess-1", "client1", registry.Transceiver, "127.0.0.1:1", "", out))

	msg := &queue.Message{
		MessageID:    "00000001",
		SourceAddr:   "1000",
		DestAddr:     "2000",
		ShortMessage: "hi",
		SessionID:    "sess-1",
		SubmittedAt:  time.Now().Add(-time.Hour),
	}
	q.AddPendingDR(msg)

	e := lifecycle.New(lifecycle.Config{
		CheckFrequency:   5 * time.Millisecond,
		MaxTimeEnroute:   0,
		PercentDelivered: 100,
	}, q, r, nopLogger{})

	ctx := cancelledAfter(50 * time.Millisecond)
	e.Run(ctx)

	select {
	case p := <-out:
		d, ok := p.(*pdu.DeliverSm)
		if !ok {
			t.Fatalf("expected a DeliverSm receipt, got %T", p)
		}
		if d.SourceAddr != msg.DestAddr || d.DestinationAddr != msg.SourceAddr {
			t.Fatalf("expected receipt addresses swapped relative to the original submit_sm")
		}
	default:
		t.Fatalf("expected a receipt to have been pushed to the owning session")
	}
	if len(q.PendingSnapshot()) != 0 {
		t.Fatalf("expected message removed from pending after receipt")
	}
}
