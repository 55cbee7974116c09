// Package channel carries suggestion requests to an inference backend and
// publishes the answers.
package channel

import (
	"context"
	"errors"

	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

var ErrClosed = errors.New("channel: closed")

// Channel is a fire-and-forget sender whose answers arrive on Subscribe.
// Answers may be missing, duplicated or out of order.
type Channel interface {
	suggest.Sender
	pubsub.Subscriber[suggest.Suggestion]
	Close() error
}

// Completer produces the completion text for a request.
type Completer interface {
	Complete(ctx context.Context, req suggest.Request) (string, error)
}
