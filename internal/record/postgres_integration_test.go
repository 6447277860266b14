//go:build integration

package record

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"creditgate/internal/domain"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/sentinel"
	"creditgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "credit_checks"))
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(s.ctx, "11144477735")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertCreatesAndFindReads() {
	identity := &domain.Identity{
		FullName:  "Ana Souza",
		BirthDate: time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	created, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{Identity: identity})
	s.Require().NoError(err)
	s.Require().NotNil(created.Identity)
	s.Equal("Ana Souza", created.Identity.FullName)
	s.Nil(created.Credit)
	s.Nil(created.Outcome)
	s.Empty(created.Errors)
	s.False(created.CreatedAt.IsZero())

	found, err := s.store.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	s.Equal("Ana Souza", found.Identity.FullName)
	s.True(found.Identity.BirthDate.Equal(identity.BirthDate))
}

func (s *PostgresStoreSuite) TestStageFieldsAreWriteOnce() {
	first := &domain.Identity{FullName: "First Write", BirthDate: time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)}
	_, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{Identity: first})
	s.Require().NoError(err)

	second := &domain.Identity{FullName: "Should Not Win", BirthDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{
		Identity: second,
		Credit:   &domain.CreditFacts{Score: 720, TotalDebt: 150},
	})
	s.Require().NoError(err)

	s.Equal("First Write", rec.Identity.FullName)
	s.Require().NotNil(rec.Credit)
	s.Equal(720, rec.Credit.Score)
}

func (s *PostgresStoreSuite) TestErrorLogAppends() {
	entry := func(msg string) *domain.StageError {
		return &domain.StageError{Stage: domain.StageCredit, Message: msg}
	}

	_, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{Err: entry("first failure")})
	s.Require().NoError(err)
	rec, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{Err: entry("second failure")})
	s.Require().NoError(err)

	s.Require().Len(rec.Errors, 2)
	s.Equal("first failure", rec.Errors[0].Message)
	s.Equal("second failure", rec.Errors[1].Message)
	s.Equal(domain.StageCredit, rec.Errors[1].Stage)
}

func (s *PostgresStoreSuite) TestOutcomePersistsRoundTrip() {
	outcome := domain.Denied(domain.ReasonDebtTooHigh, domain.StageCredit, 1500.5)
	_, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{Outcome: outcome})
	s.Require().NoError(err)

	rec, err := s.store.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	s.Require().NotNil(rec.Outcome)
	s.Equal(domain.OutcomeDenied, rec.Outcome.Status)
	s.Equal(domain.ReasonDebtTooHigh, rec.Outcome.Reason.Code)
	s.True(rec.Terminal())
}

func (s *PostgresStoreSuite) TestConcurrentUpsertsKeepOneRow() {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.store.Upsert(s.ctx, "11144477735", domain.StagePatch{
				Identity: &domain.Identity{
					FullName:  fmt.Sprintf("Writer %d", n),
					BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
				},
				Err: &domain.StageError{Stage: domain.StageIdentity, Message: fmt.Sprintf("attempt %d", n)},
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT COUNT(*) FROM credit_checks WHERE cpf = $1", "11144477735").Scan(&count))
	s.Equal(1, count)

	rec, err := s.store.FindByID(s.ctx, "11144477735")
	s.Require().NoError(err)
	s.Require().NotNil(rec.Identity)
	s.Len(rec.Errors, 8, "every writer's error entry must survive the race")
}

func (s *PostgresStoreSuite) TestUpdatedAtAdvances() {
	ctx := requestcontext.WithTime(s.ctx, time.Now())
	first, err := s.store.Upsert(ctx, "11144477735", domain.StagePatch{
		Identity: &domain.Identity{FullName: "A", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, time.Now().Add(2*time.Second))
	second, err := s.store.Upsert(later, "11144477735", domain.StagePatch{
		Credit: &domain.CreditFacts{Score: 500, TotalDebt: 100},
	})
	s.Require().NoError(err)

	s.True(second.UpdatedAt.After(first.UpdatedAt))
	s.True(second.CreatedAt.Equal(first.CreatedAt))
}
