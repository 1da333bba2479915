package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// emitTimeout is the max time allowed for a single async publish.
const emitTimeout = 5 * time.Second

// Async publishes on a goroutine so callers are never blocked or failed by the broker.
// Errors are logged. Drain waits for in-flight publishes at shutdown.
type Async struct {
	pub     Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps pub. A nil pub makes Emit a no-op.
func NewAsync(pub Publisher) *Async {
	return &Async{pub: pub, timeout: emitTimeout}
}

// Emit publishes rec to stream in the background. The publish uses context.Background with
// emitTimeout so request cancellation does not abort it.
func (a *Async) Emit(_ context.Context, stream string, rec Record) {
	if a == nil || a.pub == nil || rec == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.pub.Publish(ctx, stream, rec); err != nil {
			log.Printf("events: async publish to %s failed: %v", stream, err)
			publishFailures.Add(context.Background(), 1)
		}
	}()
}

// Drain waits for in-flight publishes or until ctx is done.
func (a *Async) Drain(ctx context.Context) error {
	if a == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
