// Package worker drains snapshot events from the queue and hands them to a
// broadcaster.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/dancefloor/internal/adapters/mq/queue"
	"github.com/okian/dancefloor/pkg/logger"
	"github.com/okian/dancefloor/pkg/metrics"
)

// Broadcaster delivers an event to its subscribers and reports how many
// received it.
type Broadcaster interface {
	Broadcast(ctx context.Context, e queue.Event) (int, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// InMemoryWorker forwards events one at a time, so subscribers see
// snapshots in commit order.
type InMemoryWorker struct {
	queue       Queue
	broadcaster Broadcaster
	name        string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, b Broadcaster, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		broadcaster: b,
		name:        "feed-worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes events until ctx is cancelled, Shutdown is called or the
// queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "error broadcasting snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current event to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, e queue.Event) error { //nolint:gocritic // hugeParam: events are passed by value off the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	n, err := w.broadcaster.Broadcast(ctx, e)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "broadcast_error")
		return fmt.Errorf("broadcast snapshot %d: %w", e.Snapshot.Version, err)
	}
	w.logger.Debug(ctx, "snapshot broadcast",
		logger.String("action", e.Action),
		logger.Int64("version", e.Snapshot.Version),
		logger.Int("subscribers", n),
	)
	return nil
}
