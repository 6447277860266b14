package audit

import (
	"context"
	"log/slog"
)

// Publisher delivers events to a sink (Kafka in production, a capture in
// tests).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the event channel and publishes each event. Publish failures
// are logged and skipped; the worker only stops when its context is canceled,
// after draining whatever is already buffered.
type Worker struct {
	publisher Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(publisher Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.publish(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Shutdown path: best effort with a background context since the run
	// context is already canceled.
	for {
		select {
		case event := <-w.inbox:
			w.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, event Event) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit publish failed",
			"event_id", event.ID,
			"error", err,
		)
	}
}
