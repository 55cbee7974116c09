package suggest

import (
	"context"
	"strings"

	"github.com/zerosync-co/ghosttext/internal/pubsub"
)

const EventSuggestion pubsub.EventType = "suggestion_received"

// Request is immutable once dispatched.
type Request struct {
	Version   uint64
	Prefix    string
	Suffix    string
	Anchor    Position
	ContextID int
}

// Matches reports whether text is the document the request was built from.
func (r Request) Matches(text string) bool {
	return len(text) == len(r.Prefix)+len(r.Suffix) &&
		strings.HasPrefix(text, r.Prefix) &&
		strings.HasSuffix(text, r.Suffix)
}

// Suggestion answers the request identified by OriginVersion.
type Suggestion struct {
	Text          string
	OriginVersion uint64
	Anchor        Position
}

// Empty reports whether the payload carries nothing worth showing.
func (s Suggestion) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// Sender is the outbound half of the suggestion channel. Send is fire and
// forget: the answer, if any, arrives later as a Suggestion event.
type Sender interface {
	Send(ctx context.Context, req Request) error
}
