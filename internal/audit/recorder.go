package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"creditgate/internal/domain"
	"creditgate/pkg/requestcontext"
)

// Recorder hands decision events to the worker through a buffered channel.
// The send never blocks: when the buffer is full the event is dropped and
// logged, keeping audit strictly off the request's critical path.
type Recorder struct {
	events chan<- Event
	logger *slog.Logger
}

func NewRecorder(events chan<- Event, logger *slog.Logger) *Recorder {
	return &Recorder{events: events, logger: logger}
}

// Decision records a terminal outcome for a CPF.
func (r *Recorder) Decision(ctx context.Context, cpf string, outcome *domain.Outcome, cached bool) {
	event := Event{
		ID:        uuid.NewString(),
		CPF:       cpf,
		Status:    string(outcome.Status),
		Cached:    cached,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if outcome.Reason != nil {
		event.Reason = string(outcome.Reason.Code)
		event.Stage = string(outcome.Reason.Stage)
	}

	select {
	case r.events <- event:
	default:
		r.logger.WarnContext(ctx, "audit buffer full, dropping event", "event_id", event.ID)
	}
}
