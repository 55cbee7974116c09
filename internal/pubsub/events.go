package pubsub

import "context"

// EventType names what happened to the payload. Each producing package
// declares its own constants.
type EventType string

type Event[T any] struct {
	Type    EventType
	Payload T
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
