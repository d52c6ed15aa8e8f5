package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// inboundCap bounds a session's inbound line buffer (spec §4.8 "inbound
// byte buffer (cap 128 KiB)... A line longer than the cap terminates
// the session with an error").
const inboundCap = 128 * 1024

// outboundCap bounds a session's queued-but-unwritten output (spec
// §4.8/§9(a) "if the queue exceeds 1 MiB the session is dropped").
const outboundCap = 1024 * 1024

// Config describes how to bind the control server.
type Config struct {
	Unix    string // Unix-domain socket path; mutually exclusive with Bind
	Bind    string // "host:port" for a TCP listener
	TLS     *tls.Config
	Compact bool // serve the ASCII compact protocol instead of JSON
}

// Server is the control transport's accept loop (C9), grounded on
// bitcanon-ircpush's tcp.Server: a net.Listener, one goroutine per
// accepted connection, and a WaitGroup-backed graceful Stop.
type Server struct {
	cfg    Config
	ver    Version
	disp   Dispatcher
	log    *zap.Logger

	ln   net.Listener
	wg   sync.WaitGroup
	once sync.Once
}

// New builds a Server bound to cfg, not yet listening.
func New(cfg Config, ver Version, disp Dispatcher, log *zap.Logger) *Server {
	return &Server{cfg: cfg, ver: ver, disp: disp, log: log}
}

// Start begins listening and accepting connections until ctx is done
// or an unrecoverable accept error occurs. It returns once the
// listener is up; use Stop (or cancel ctx) to shut down.
func (s *Server) Start(ctx context.Context) error {
	network, addr := "unix", s.cfg.Unix
	if s.cfg.Unix == "" {
		network, addr = "tcp", s.cfg.Bind
	}
	var ln net.Listener
	var err error
	if s.cfg.TLS != nil {
		ln, err = tls.Listen(network, addr, s.cfg.TLS)
	} else {
		ln, err = net.Listen(network, addr)
	}
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("transport: listening", zap.String("network", network), zap.String("addr", addr))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					time.Sleep(100 * time.Millisecond)
					continue
				}
				s.log.Warn("transport: accept error", zap.Error(err))
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(ctx, conn)
			}()
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	return nil
}

// Stop closes the listener and waits (bounded) for in-flight sessions
// to finish.
func (s *Server) Stop() error {
	var err error
	s.once.Do(func() {
		if s.ln != nil {
			err = s.ln.Close()
		}
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}
	return err
}

// serve handles one accepted connection. Each session gets its own
// random id threaded through every log line it emits, so concurrent
// irccdctl connections can be told apart in the daemon's logs
// (grounded on streamspace-dev-streamspace's request_id middleware,
// adapted from an HTTP per-request id to a control-transport
// per-session id since sessions, not requests, are the unit here).
func (s *Server) serve(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	sessionLog := s.log.With(zap.String("session_id", uuid.NewString()), zap.String("remote", nc.RemoteAddr().String()))
	sess := newSession(nc, s.ver, s.disp, s.cfg.Compact, sessionLog)
	sess.run(ctx)
}

// newScanner builds a bufio.Scanner capped at inboundCap bytes per
// line, matching bitcanon-ircpush's MaxLineBytes/sc.Buffer pattern.
func newScanner(nc net.Conn) *bufio.Scanner {
	sc := bufio.NewScanner(nc)
	sc.Buffer(make([]byte, 0, 4096), inboundCap)
	return sc
}
