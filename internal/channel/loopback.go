package channel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

// Loopback is an in-process Channel that runs a Completer directly. A new
// Send cancels the completion still running for the previous one.
type Loopback struct {
	completer Completer
	broker    *pubsub.Broker[suggest.Suggestion]
	log       *slog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

func NewLoopback(completer Completer, log *slog.Logger) *Loopback {
	if log == nil {
		log = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Loopback{
		completer: completer,
		broker:    pubsub.NewBroker[suggest.Suggestion](),
		log:       log.With("component", "channel", "transport", "loopback"),
		ctx:       ctx,
		stop:      stop,
	}
}

func (l *Loopback) Subscribe(ctx context.Context) <-chan pubsub.Event[suggest.Suggestion] {
	return l.broker.Subscribe(ctx)
}

// Send starts the completion and returns at once. The caller's context only
// bounds the hand-off, not the completion.
func (l *Loopback) Send(_ context.Context, req suggest.Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		defer logging.RecoverPanic("loopback-completion", nil)

		text, err := l.completer.Complete(ctx, req)
		if ctx.Err() != nil {
			l.log.Debug("completion superseded", "version", req.Version)
			return
		}
		if err != nil {
			l.log.Warn("completion failed", "version", req.Version, "error", err)
			text = ""
		}
		l.broker.Publish(suggest.EventSuggestion, suggest.Suggestion{
			Text:          text,
			OriginVersion: req.Version,
			Anchor:        req.Anchor,
		})
	}()
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.stop()
	l.wg.Wait()
	l.broker.Shutdown()
	return nil
}
