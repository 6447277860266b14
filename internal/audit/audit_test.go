package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgate/internal/domain"
	"creditgate/pkg/requestcontext"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
	fail   map[string]error
}

func (c *capturePublisher) Publish(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.fail[event.CPF]; ok {
		return err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) captured() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderBuildsEventFromContext(t *testing.T) {
	events := make(chan Event, 1)
	recorder := NewRecorder(events, discardLogger())

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Chrome 124 (Linux)")

	recorder.Decision(ctx, "11144477735", domain.Denied(domain.ReasonUnderage, domain.StageIdentity, 17), false)

	event := <-events
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "11144477735", event.CPF)
	assert.Equal(t, "denied", event.Status)
	assert.Equal(t, "UNDERAGE", event.Reason)
	assert.Equal(t, "identity", event.Stage)
	assert.False(t, event.Cached)
	assert.Equal(t, "req-42", event.RequestID)
	assert.Equal(t, "203.0.113.9", event.ClientIP)
	assert.Equal(t, "Chrome 124 (Linux)", event.UserAgent)
	assert.Equal(t, now, event.Timestamp)
}

func TestRecorderDropsWhenBufferFull(t *testing.T) {
	events := make(chan Event, 1)
	recorder := NewRecorder(events, discardLogger())
	ctx := context.Background()

	recorder.Decision(ctx, "11144477735", domain.Approved(1, 18), false)
	// Buffer is full now; this send must not block.
	done := make(chan struct{})
	go func() {
		recorder.Decision(ctx, "52998224725", domain.Approved(1, 18), true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder blocked on a full buffer")
	}

	assert.Len(t, events, 1)
}

func TestWorkerPublishesUntilCanceled(t *testing.T) {
	events := make(chan Event, 8)
	pub := &capturePublisher{}
	worker := NewWorker(pub, events, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	events <- Event{ID: "a", CPF: "11144477735"}
	events <- Event{ID: "b", CPF: "52998224725"}

	require.Eventually(t, func() bool {
		return len(pub.captured()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerDrainsBufferOnShutdown(t *testing.T) {
	events := make(chan Event, 8)
	events <- Event{ID: "queued-1"}
	events <- Event{ID: "queued-2"}

	pub := &capturePublisher{}
	worker := NewWorker(pub, events, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, worker.Run(ctx), context.Canceled)

	captured := pub.captured()
	require.Len(t, captured, 2)
	assert.Equal(t, "queued-1", captured[0].ID)
	assert.Equal(t, "queued-2", captured[1].ID)
}

func TestWorkerToleratesPublishFailures(t *testing.T) {
	events := make(chan Event, 8)
	pub := &capturePublisher{fail: map[string]error{"bad": errors.New("broker down")}}
	worker := NewWorker(pub, events, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	events <- Event{ID: "fails", CPF: "bad"}
	events <- Event{ID: "lands", CPF: "good"}

	require.Eventually(t, func() bool {
		return len(pub.captured()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "lands", pub.captured()[0].ID)

	cancel()
	<-done
}
