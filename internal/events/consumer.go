package events

import (
	"context"
	"time"
)

// Message is one consumed record.
type Message struct {
	Stream string
	ID     string
	Record Record
	Time   time.Time
}

// Handler processes a consumed message.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads records from the broker until its context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, h Handler) error
	Close() error
}
