package record

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"creditgate/internal/domain"
)

// CachedStore layers a Redis read-through cache over another Store. Only
// terminal records (those with an outcome) are cached: they never change
// again, so the idempotent fast path can skip the database entirely.
// Cache failures are logged and ignored; the inner store stays authoritative.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(cpf string) string {
	return "creditgate:record:" + cpf
}

func (s *CachedStore) FindByID(ctx context.Context, cpf string) (*domain.Record, error) {
	payload, err := s.client.Get(ctx, cacheKey(cpf)).Bytes()
	if err == nil {
		var rec domain.Record
		if err := json.Unmarshal(payload, &rec); err == nil {
			return &rec, nil
		}
		s.logger.WarnContext(ctx, "dropping undecodable cache entry", "cpf", cpf)
		s.client.Del(ctx, cacheKey(cpf))
	} else if err != redis.Nil {
		s.logger.WarnContext(ctx, "record cache read failed", "cpf", cpf, "error", err)
	}

	rec, err := s.inner.FindByID(ctx, cpf)
	if err != nil {
		return nil, err
	}
	s.cacheTerminal(ctx, rec)
	return rec, nil
}

func (s *CachedStore) Upsert(ctx context.Context, cpf string, patch domain.StagePatch) (*domain.Record, error) {
	rec, err := s.inner.Upsert(ctx, cpf, patch)
	if err != nil {
		return nil, err
	}
	s.cacheTerminal(ctx, rec)
	return rec, nil
}

func (s *CachedStore) cacheTerminal(ctx context.Context, rec *domain.Record) {
	if !rec.Terminal() {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKey(rec.CPF), payload, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "record cache write failed", "cpf", rec.CPF, "error", err)
	}
}
