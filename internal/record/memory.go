package record

import (
	"context"
	"sync"

	"creditgate/internal/domain"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/sentinel"
)

// InMemoryStore keeps records in a map. Used in unit tests and as the default
// backend when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*domain.Record)}
}

func (s *InMemoryStore) FindByID(_ context.Context, cpf string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[cpf]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, cpf string, patch domain.StagePatch) (*domain.Record, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[cpf]
	if !ok {
		rec = &domain.Record{
			CPF:       cpf,
			Errors:    []domain.ErrorEntry{},
			CreatedAt: now,
		}
		s.records[cpf] = rec
	}

	rec.UpdatedAt = now
	if rec.Identity == nil {
		rec.Identity = patch.Identity
	}
	if rec.Credit == nil {
		rec.Credit = patch.Credit
	}
	if rec.Outcome == nil {
		rec.Outcome = patch.Outcome
	}
	if patch.Err != nil {
		rec.Errors = append(rec.Errors, domain.ErrorEntry{
			Stage:      patch.Err.Stage,
			Message:    patch.Err.Message,
			OccurredAt: now,
		})
	}

	return copyRecord(rec), nil
}

// copyRecord returns a detached copy so callers cannot mutate stored state.
func copyRecord(rec *domain.Record) *domain.Record {
	out := *rec
	if rec.Identity != nil {
		identity := *rec.Identity
		out.Identity = &identity
	}
	if rec.Credit != nil {
		credit := *rec.Credit
		out.Credit = &credit
	}
	if rec.Outcome != nil {
		outcome := *rec.Outcome
		if rec.Outcome.Reason != nil {
			reason := *rec.Outcome.Reason
			outcome.Reason = &reason
		}
		if rec.Outcome.Terms != nil {
			terms := *rec.Outcome.Terms
			outcome.Terms = &terms
		}
		out.Outcome = &outcome
	}
	out.Errors = append([]domain.ErrorEntry{}, rec.Errors...)
	return &out
}
