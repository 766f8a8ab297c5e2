package smsc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/smppsim/smppsim/internal/esmeclient"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
	"github.com/smppsim/smppsim/internal/smsc"
)

func startTestServer(t *testing.T, disp *smsc.Dispatcher, reg *registry.Registry) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := smsc.NewServer(ln.Addr().String(), smsc.SessionConf{Handler: disp}, reg)
	go srv.Serve(ln)
	return ln.Addr().String(), func() { srv.Close() }
}

func TestBindSubmitUnbindRoundTrip(t *testing.T) {
	reg := registry.New()
	q := queue.New()
	disp := &smsc.Dispatcher{
		Auth:     smsc.NewAuthenticator([]smsc.Account{{SystemID: "client1", Password: "secret"}}),
		Registry: reg,
		Queue:    q,
	}
	addr, stop := startTestServer(t, disp, reg)
	defer stop()

	sess, err := esmeclient.BindTransceiver(smsc.SessionConf{}, esmeclient.BindConf{
		Addr:     addr,
		SystemID: "client1",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 registered session, got %d", reg.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := esmeclient.SubmitSm(ctx, sess, &pdu.SubmitSm{
		SourceAddr:      "1000",
		DestinationAddr: "2000",
		ShortMessage:    "hello",
	})
	if err != nil {
		t.Fatalf("submit_sm: %v", err)
	}
	if resp.MessageID == "" {
		t.Fatalf("expected non-empty message id")
	}
	if len(q.RecentSnapshot()) != 1 {
		t.Fatalf("expected 1 recent message, got %d", len(q.RecentSnapshot()))
	}

	if err := esmeclient.Unbind(ctx, sess); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if reg.Len() != 0 {
		t.Fatalf("expected session removed from registry after unbind, got %d", reg.Len())
	}
}

func TestBindAuthFailureKeepsConnectionOpen(t *testing.T) {
	reg := registry.New()
	q := queue.New()
	disp := &smsc.Dispatcher{
		Auth:     smsc.NewAuthenticator([]smsc.Account{{SystemID: "client1", Password: "secret"}}),
		Registry: reg,
		Queue:    q,
	}
	addr, stop := startTestServer(t, disp, reg)
	defer stop()

	sess, err := esmeclient.BindTransmitter(smsc.SessionConf{}, esmeclient.BindConf{
		Addr:     addr,
		SystemID: "client1",
		Password: "wrong",
	})
	if err == nil {
		t.Fatalf("expected bind failure")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected no registered session after failed bind")
	}

	// The connection must stay open: a follow-up enquire_link should still
	// round-trip rather than failing with a closed-connection error.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := esmeclient.EnquireLink(ctx, sess); err != nil {
		t.Fatalf("expected connection to remain open after bind failure, enquire_link failed: %v", err)
	}
	sess.Close()
}
