//go:build integration

package record

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"creditgate/internal/domain"
	"creditgate/pkg/testutil/containers"
)

// countingStore wraps an inner store and counts database reads so the tests
// can tell cache hits from misses.
type countingStore struct {
	Store
	finds int
}

func (c *countingStore) FindByID(ctx context.Context, cpf string) (*domain.Record, error) {
	c.finds++
	return c.Store.FindByID(ctx, cpf)
}

type CachedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *CachedStoreSuite) newCached() (*countingStore, *CachedStore) {
	inner := &countingStore{Store: NewInMemoryStore()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return inner, NewCachedStore(inner, s.redis.Client, time.Hour, logger)
}

func (s *CachedStoreSuite) TestTerminalRecordServedFromCache() {
	inner, cached := s.newCached()

	_, err := cached.Upsert(s.ctx, "11144477735", domain.StagePatch{
		Outcome: domain.Approved(2, 9),
	})
	s.Require().NoError(err)

	first, err := cached.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	second, err := cached.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)

	s.Equal(first.Outcome.Terms, second.Outcome.Terms)
	s.Equal(0, inner.finds, "terminal record reads must not reach the database")
}

func (s *CachedStoreSuite) TestPartialRecordAlwaysHitsDatabase() {
	inner, cached := s.newCached()

	_, err := cached.Upsert(s.ctx, "11144477735", domain.StagePatch{
		Identity: &domain.Identity{FullName: "Partial", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		rec, err := cached.FindByID(s.ctx, "11144477735")
		s.Require().NoError(err)
		s.Nil(rec.Outcome)
	}
	s.Equal(3, inner.finds, "partial records must never be cached")
}

func (s *CachedStoreSuite) TestFindPopulatesCacheForTerminalRecord() {
	inner, cached := s.newCached()

	// Terminal record written directly to the inner store, bypassing the cache.
	_, err := inner.Upsert(s.ctx, "11144477735", domain.StagePatch{
		Outcome: domain.Denied(domain.ReasonIsDead, domain.StageIdentity, true),
	})
	s.Require().NoError(err)

	_, err = cached.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	s.Equal(1, inner.finds)

	rec, err := cached.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	s.Equal(domain.ReasonIsDead, rec.Outcome.Reason.Code)
	s.Equal(1, inner.finds, "second read should be a cache hit")
}
