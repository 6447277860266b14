package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"creditgate/internal/domain"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/sentinel"
)

// PostgresStore persists application records in PostgreSQL. Stage payloads are
// stored as JSONB; the merge rules live in the upsert statement itself so a
// single round trip applies a patch race-safely.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the credit_checks table when missing. Called once at
// startup; safe to run repeatedly.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credit_checks (
			cpf          TEXT PRIMARY KEY,
			identity     JSONB,
			credit_facts JSONB,
			outcome      JSONB,
			error_log    JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure credit_checks schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, cpf string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT cpf, identity, credit_facts, outcome, error_log, created_at, updated_at
		FROM credit_checks
		WHERE cpf = $1
	`, cpf)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

// Upsert applies the write-once merge and error-log append in one statement:
// COALESCE keeps an already-set stage payload, the || operator appends any new
// error entries to the existing log.
func (s *PostgresStore) Upsert(ctx context.Context, cpf string, patch domain.StagePatch) (*domain.Record, error) {
	now := requestcontext.Now(ctx)

	identity, err := marshalOptional(patch.Identity)
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	credit, err := marshalOptional(patch.Credit)
	if err != nil {
		return nil, fmt.Errorf("marshal credit facts: %w", err)
	}
	outcome, err := marshalOptional(patch.Outcome)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}

	newErrors := []domain.ErrorEntry{}
	if patch.Err != nil {
		newErrors = append(newErrors, domain.ErrorEntry{
			Stage:      patch.Err.Stage,
			Message:    patch.Err.Message,
			OccurredAt: now,
		})
	}
	errorLog, err := json.Marshal(newErrors)
	if err != nil {
		return nil, fmt.Errorf("marshal error log: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO credit_checks (cpf, identity, credit_facts, outcome, error_log, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (cpf) DO UPDATE SET
			identity     = COALESCE(credit_checks.identity, EXCLUDED.identity),
			credit_facts = COALESCE(credit_checks.credit_facts, EXCLUDED.credit_facts),
			outcome      = COALESCE(credit_checks.outcome, EXCLUDED.outcome),
			error_log    = credit_checks.error_log || EXCLUDED.error_log,
			updated_at   = EXCLUDED.updated_at
		RETURNING cpf, identity, credit_facts, outcome, error_log, created_at, updated_at
	`, cpf, identity, credit, outcome, errorLog, now)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}
	return rec, nil
}

func marshalOptional(v any) (any, error) {
	switch t := v.(type) {
	case *domain.Identity:
		if t == nil {
			return nil, nil
		}
	case *domain.CreditFacts:
		if t == nil {
			return nil, nil
		}
	case *domain.Outcome:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec      domain.Record
		identity []byte
		credit   []byte
		outcome  []byte
		errorLog []byte
	)
	if err := row.Scan(&rec.CPF, &identity, &credit, &outcome, &errorLog, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	if identity != nil {
		rec.Identity = &domain.Identity{}
		if err := json.Unmarshal(identity, rec.Identity); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
	}
	if credit != nil {
		rec.Credit = &domain.CreditFacts{}
		if err := json.Unmarshal(credit, rec.Credit); err != nil {
			return nil, fmt.Errorf("decode credit facts: %w", err)
		}
	}
	if outcome != nil {
		rec.Outcome = &domain.Outcome{}
		if err := json.Unmarshal(outcome, rec.Outcome); err != nil {
			return nil, fmt.Errorf("decode outcome: %w", err)
		}
	}
	rec.Errors = []domain.ErrorEntry{}
	if errorLog != nil {
		if err := json.Unmarshal(errorLog, &rec.Errors); err != nil {
			return nil, fmt.Errorf("decode error log: %w", err)
		}
	}
	return &rec, nil
}
