package smsc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/smppsim/smppsim/internal/metrics"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/registry"
)

// tcpKeepAliveListener sets TCP keep-alive on every accepted connection so
// dead peers (a laptop closing mid-session) eventually get reaped.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

// Server accepts SMPP connections and runs one Session per peer, all
// sharing the SessionConf template (notably its Handler, which dispatches
// bind/submit/unbind/enquire_link per the wire protocol).
type Server struct {
	Addr        string
	SessionConf *SessionConf
	Registry    *registry.Registry

	wg         sync.WaitGroup
	mu         sync.Mutex
	listeners  map[net.Listener]struct{}
	doneChan   chan struct{}
	activeSess map[*Session]struct{}
}

// NewServer creates a Server listening on addr, using conf as the template
// for every accepted session. reg is consulted to remove a session's
// registry entry when its connection drops without an explicit unbind.
func NewServer(addr string, conf SessionConf, reg *registry.Registry) *Server {
	return &Server{
		Addr:        addr,
		SessionConf: &conf,
		Registry:    reg,
	}
}

// ListenAndServe opens a TCP listener on srv.Addr and serves it. Blocking.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":2775"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return srv.Serve(tcpKeepAliveListener{ln.(*net.TCPListener)})
}

// Serve accepts connections off ln and starts a Session for each. Blocking.
func (srv *Server) Serve(ln net.Listener) error {
	defer ln.Close()
	srv.trackListener(ln, true)
	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-srv.getDoneChan():
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		srv.wg.Add(1)
		go func(conf SessionConf) {
			defer srv.wg.Done()
			conf.Type = SMSC
			conf.ID = genSessionID()
			sess := NewSession(conn, conf)
			srv.trackSess(sess, true)
			select {
			case <-sess.NotifyClosed():
			case <-srv.getDoneChan():
				sess.Close()
			}
			srv.trackSess(sess, false)
			if srv.Registry != nil {
				srv.Registry.Remove(sess.ID())
				metrics.ActiveSessions.Set(float64(srv.Registry.Len()))
			}
		}(*srv.SessionConf)
	}
}

// Shutdown gracefully unbinds every connected peer before closing.
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.mu.Lock()
	for sess := range srv.activeSess {
		sendUnbind(ctx, sess)
	}
	srv.mu.Unlock()
	return srv.Close()
}

// Close stops accepting connections and waits for all sessions to finish.
func (srv *Server) Close() error {
	srv.mu.Lock()
	srv.closeDoneChanLocked()
	err := srv.closeListenersLocked()
	srv.mu.Unlock()
	srv.wg.Wait()
	return err
}

func (srv *Server) getDoneChan() <-chan struct{} {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.getDoneChanLocked()
}

func (srv *Server) getDoneChanLocked() chan struct{} {
	if srv.doneChan == nil {
		srv.doneChan = make(chan struct{})
	}
	return srv.doneChan
}

func (srv *Server) closeDoneChanLocked() {
	ch := srv.getDoneChanLocked()
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (srv *Server) trackListener(ln net.Listener, add bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listeners == nil {
		srv.listeners = make(map[net.Listener]struct{})
	}
	if add {
		if len(srv.listeners) == 0 && len(srv.activeSess) == 0 {
			srv.doneChan = nil
		}
		srv.listeners[ln] = struct{}{}
	} else {
		delete(srv.listeners, ln)
	}
}

func (srv *Server) closeListenersLocked() error {
	var err error
	for ln := range srv.listeners {
		if cerr := ln.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(srv.listeners, ln)
	}
	return err
}

func (srv *Server) trackSess(sess *Session, add bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.activeSess == nil {
		srv.activeSess = make(map[*Session]struct{})
	}
	if add {
		srv.activeSess[sess] = struct{}{}
	} else {
		delete(srv.activeSess, sess)
	}
}

// sendUnbind notifies a peer of shutdown, closing the session regardless of
// whether the peer acknowledges in time.
func sendUnbind(ctx context.Context, sess *Session) {
	defer sess.Close()
	sess.Send(ctx, &pdu.Unbind{})
}
