// Package tcp implements the line-oriented command protocol: one
// goroutine per accepted connection, each running a small state
// machine over the shared paste service.
package tcp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"pastebox/cfg"
	"pastebox/metrics"
	"pastebox/svc/svc"
	"pastebox/svc/util"
)

type Server struct {
	cfg   *cfg.Cfg
	paste *svc.Paste

	ln       net.Listener
	baseCtx  context.Context
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
}

func NewServer(c *cfg.Cfg, paste *svc.Paste) *Server {
	if c == nil || paste == nil {
		panic("tcp server: nil dependency (cfg or paste)")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      c,
		paste:    paste,
		baseCtx:  ctx,
		cancelFn: cancel,
	}
}

// Listen binds the configured address and returns the bound address,
// which differs from the configured one when port 0 was requested.
func (s *Server) Listen() (string, error) {
	ln, err := net.Listen("tcp", s.cfg.TCPAddr)
	if err != nil {
		return "", errors.Wrapf(err, "bind %s", s.cfg.TCPAddr)
	}
	s.ln = ln
	return ln.Addr().String(), nil
}

// Serve runs the accept loop until Shutdown closes the listener. A
// failed accept is logged and never terminates the loop; a failed
// session never affects its siblings.
func (s *Server) Serve() error {
	if s.ln == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	util.Info().Str("addr", s.ln.Addr().String()).Msg("tcp server listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			util.Error().Err(err).Msg("accept failed")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
	return nil
}

func (s *Server) handle(conn net.Conn) {
	metrics.TCPSessionsActive.Inc()
	defer metrics.TCPSessionsActive.Dec()
	defer func() {
		if r := recover(); r != nil {
			util.Error().Interface("panic", r).Str("peer", conn.RemoteAddr().String()).Msg("session panicked")
		}
	}()
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			util.Warn().Err(err).Msg("could not close connection")
		}
	}()
	sess := newSession(conn, s.paste, s.cfg)
	util.Info().Str("peer", sess.peer).Msg("client attached")
	sess.run(s.baseCtx)
}

// Shutdown stops accepting and waits for in-flight sessions, up to
// the context deadline. Sessions past the deadline are abandoned to
// the process exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelFn()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return errors.Wrap(err, "close listener")
		}
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		util.Warn().Msg("tcp sessions did not drain before deadline")
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return errors.New("tcp shutdown timed out")
	}
}
