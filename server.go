package hellostatic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"
)

type Server struct {
	handler *Handler
	config  *Config
	wg      sync.WaitGroup
}

func NewServer(handler *Handler, config *Config) *Server {
	return &Server{handler: handler, config: config}
}

// ListenAndServe binds config.Listen and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := Listen(s.config.Listen)
	if err != nil {
		slog.Error("listen error", "listen", s.config.Listen, "error", err)
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done, then waits for
// in-flight connections. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s.config.MaxConns > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConns)
	}
	defer listener.Close()
	stop := context.AfterFunc(ctx, func() {
		slog.Info("shutting down server")
		listener.Close()
	})
	defer stop()
	slog.Info("starting server", "addr", listener.Addr().String(), "mode", s.config.Mode, "serial", s.config.Serial)

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(delay*2, time.Second)
			}
			slog.Error("accept error", "error", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0
		log := slog.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
		log.Info("connection established")
		if s.config.Serial {
			s.serveConn(conn, log)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn, log)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn, log *slog.Logger) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection panic", "panic", fmt.Sprint(r))
		}
	}()
	if s.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			log.Warn("set read deadline", "error", err)
		}
	}
	if err := s.handler.ServeConn(conn, log); err != nil {
		log.Error("connection failed", "error", err)
	}
}
