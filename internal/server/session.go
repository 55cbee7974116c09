package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zerosync-co/ghosttext/internal/channel"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

const (
	writeTimeout = 5 * time.Second
	maxFrameSize = 1 << 20
)

// session serves one websocket connection. Only the newest request is worth
// answering: each request cancels the completion still running for the
// previous one, and cancelled completions are never written.
type session struct {
	conn      *websocket.Conn
	completer channel.Completer
	log       *slog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSession(conn *websocket.Conn, completer channel.Completer, log *slog.Logger) *session {
	return &session{conn: conn, completer: completer, log: log}
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer func() {
		cancel()
		stop()
		s.wg.Wait()
		s.conn.Close()
		s.log.Debug("session closed")
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.log.Debug("session opened", "remote", s.conn.RemoteAddr().String())

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				s.log.Warn("read failed", "error", err)
			}
			return
		}

		f, err := channel.Decode(data)
		if err != nil {
			s.log.Warn("dropping undecodable frame", "error", err)
			s.writeError(0, suggest.Position{}, "malformed frame")
			continue
		}
		if f.Type != channel.TypeAutocomplete {
			s.log.Debug("ignoring frame", "type", f.Type)
			continue
		}
		s.handle(ctx, f.Request)
	}
}

func (s *session) handle(ctx context.Context, req suggest.Request) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer logging.RecoverPanic("server-completion", nil)

		text, err := s.completer.Complete(rctx, req)
		if rctx.Err() != nil {
			s.log.Debug("completion superseded", "version", req.Version)
			return
		}
		if err != nil {
			s.log.Warn("completion failed", "version", req.Version, "error", err)
			s.writeError(req.Version, req.Anchor, err.Error())
			return
		}
		frame, err := channel.EncodeSuggestion(suggest.Suggestion{
			Text:          text,
			OriginVersion: req.Version,
			Anchor:        req.Anchor,
		})
		if err != nil {
			s.log.Error("encode suggestion", "error", err)
			return
		}
		s.write(frame)
	}()
}

func (s *session) writeError(version uint64, anchor suggest.Position, message string) {
	frame, err := channel.EncodeError(version, anchor, message)
	if err != nil {
		s.log.Error("encode error frame", "error", err)
		return
	}
	s.write(frame)
}

func (s *session) write(frame []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.log.Debug("write failed", "error", err)
	}
}
