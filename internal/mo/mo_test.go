package mo_test

import (
	"context"
	"testing"
	"time"

	"github.com/smppsim/smppsim/internal/mo"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/registry"
)

type nopLogger struct{}

func (nopLogger) InfoF(string, ...interface{})  {}
func (nopLogger) ErrorF(string, ...interface{}) {}

func TestDisabledServiceBlocksUntilCancelled(t *testing.T) {
	r := registry.New()
	inject := make(chan mo.Message)
	svc := mo.New(mo.Config{Enabled: false}, inject, r, nopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestInjectedMessageDispatchesToMatchingSubscriber(t *testing.T) {
	r := registry.New()
	out := make(chan pdu.PDU, 1)
	r.Insert(registry.NewEntry("sess-1", "client1", registry.Transceiver, "127.0.0.1:1", "^2.*$", out))

	inject := make(chan mo.Message, 1)
	svc := mo.New(mo.Config{Enabled: true}, inject, r, nopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go svc.Run(ctx)

	inject <- mo.Message{SourceAddr: "2000", DestAddr: "2001", ShortMessage: "hi there"}

	select {
	case p := <-out:
		d, ok := p.(*pdu.DeliverSm)
		if !ok {
			t.Fatalf("expected DeliverSm, got %T", p)
		}
		if d.ShortMessage != "hi there" {
			t.Fatalf("expected message text preserved, got %q", d.ShortMessage)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected dispatched message within timeout")
	}
}

func TestInjectedMessageWithNoSubscriberIsDropped(t *testing.T) {
	r := registry.New()
	inject := make(chan mo.Message, 1)
	svc := mo.New(mo.Config{Enabled: true}, inject, r, nopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	go svc.Run(ctx)

	inject <- mo.Message{SourceAddr: "2000", DestAddr: "9999", ShortMessage: "nobody home"}
	<-ctx.Done()
}
