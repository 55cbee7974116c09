package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultChannelBufferSize = 64
	slowSubscriberTimeout    = 2 * time.Second
)

// Broker fans every published event out to all live subscribers. Delivery
// order is preserved per subscriber unless that subscriber's buffer is full,
// in which case the event is handed off to a goroutine and may overtake or be
// overtaken by later events.
type Broker[T any] struct {
	subs     map[chan Event[T]]context.CancelFunc
	mu       sync.RWMutex
	isClosed bool
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]context.CancelFunc),
	}
}

func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	if b.isClosed {
		b.mu.Unlock()
		return
	}
	b.isClosed = true

	for ch, cancel := range b.subs {
		cancel()
		close(ch)
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	slog.Debug("pubsub broker shut down", "type", fmt.Sprintf("%T", *new(T)))
}

// Subscribe returns a channel that receives events until ctx is done or the
// broker shuts down. A closed broker hands out an already closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		closedCh := make(chan Event[T])
		close(closedCh)
		return closedCh
	}

	subCtx, subCancel := context.WithCancel(ctx)
	ch := make(chan Event[T], defaultChannelBufferSize)
	b.subs[ch] = subCancel

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			close(ch)
			delete(b.subs, ch)
		}
	}()

	return ch
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isClosed {
		slog.Warn("publish on closed pubsub broker", "type", eventType, "payload_type", fmt.Sprintf("%T", payload))
		return
	}

	event := Event[T]{Type: eventType, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			go b.deliverSlow(ch, event)
		}
	}
}

// deliverSlow holds the read lock while waiting so the subscriber's channel
// cannot be closed underneath the send.
func (b *Broker[T]) deliverSlow(ch chan Event[T], ev Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	select {
	case ch <- ev:
	case <-time.After(slowSubscriberTimeout):
		slog.Warn("pubsub dropped event for slow subscriber", "type", ev.Type)
	}
}

func (b *Broker[T]) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
