// Package server exposes autocomplete over a websocket endpoint.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/zerosync-co/ghosttext/internal/channel"
)

const (
	DefaultAddress  = "127.0.0.1:7878"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	echo      *echo.Echo
	completer channel.Completer
	upgrader  websocket.Upgrader
	addr      string
	log       *slog.Logger

	// base ends every websocket session on shutdown; echo does not track
	// hijacked connections.
	base       context.Context
	cancelBase context.CancelFunc
	sessions   atomic.Int64
	wg         sync.WaitGroup
}

func New(completer channel.Completer, addr string, log *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddress
	}
	if log == nil {
		log = slog.Default()
	}
	base, cancelBase := context.WithCancel(context.Background())
	s := &Server{
		echo:      echo.New(),
		completer: completer,
		upgrader:  websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Editors connect from localhost tools without a browser origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		addr:       addr,
		log:        log.With("service", "server"),
		base:       base,
		cancelBase: cancelBase,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error,
			)
			return nil
		},
	}))
	s.echo.GET("/health", s.health)
	s.echo.GET("/ws", s.serveWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	s.log.Info("listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.echo.Shutdown(shutdownCtx)
	s.wg.Wait()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return err
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Load(),
	})
}

func (s *Server) serveWS(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already replied.
		s.log.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	sess := newSession(conn, s.completer, s.log.With("session", uuid.NewString()))
	sess.run(s.base)
	return nil
}
