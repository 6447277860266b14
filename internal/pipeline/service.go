// Package pipeline drives the staged credit-check sequence: validate the CPF,
// fetch identity, apply age rules, fetch credit facts, apply credit rules,
// persist. Completed stage results are cached on the record, so a run after a
// failure resumes where the previous one stopped, and a record with a
// terminal outcome is returned as-is without touching the providers again.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"creditgate/internal/audit"
	"creditgate/internal/cpf"
	"creditgate/internal/domain"
	"creditgate/internal/policy"
	"creditgate/internal/record"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/sentinel"
)

// Service is the pipeline orchestrator. Business logic is defined once here;
// telemetry and audit are optional hooks that never alter control flow.
type Service struct {
	store    record.Store
	identity IdentityClient
	credit   CreditClient
	observer Observer
	recorder *audit.Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithObserver attaches a telemetry observer.
func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

// WithAuditRecorder attaches the decision audit recorder.
func WithAuditRecorder(recorder *audit.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// New constructs the pipeline with its required collaborators. The store
// handle is injected; the service never opens or owns connections.
func New(store record.Store, identity IdentityClient, credit CreditClient, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if identity == nil {
		return nil, errors.New("identity client is required")
	}
	if credit == nil {
		return nil, errors.New("credit client is required")
	}
	s := &Service{
		store:    store,
		identity: identity,
		credit:   credit,
		logger:   logger,
		tracer:   otel.Tracer("creditgate/pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// runResult is the outcome of executing the missing stages for one request.
// Exactly one of outcome or failure is set.
type runResult struct {
	patch   domain.StagePatch
	outcome *domain.Outcome
	failure *StageFailure
}

// Check evaluates a credit application for the raw CPF.
//
// Returns the terminal outcome, or an *InvalidInputError (malformed CPF,
// nothing persisted), an *StageFailure (lookup failed or came back empty;
// partial progress and the error are persisted), or a plain error when the
// store itself is unreachable.
func (s *Service) Check(ctx context.Context, rawCPF string) (*domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.check")
	defer span.End()

	validation := cpf.Validate(rawCPF)
	if validation.Code != cpf.Valid {
		s.observeOutcome(KindInvalidInput)
		span.SetAttributes(attribute.String("check.result", string(KindInvalidInput)))
		return nil, &InvalidInputError{Code: validation.Code}
	}
	id := validation.Normalized

	existing, err := s.store.FindByID(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load record: %w", err)
	}

	if existing.Terminal() {
		s.observeOutcome(KindCached)
		span.SetAttributes(attribute.String("check.result", string(KindCached)))
		if s.recorder != nil {
			s.recorder.Decision(ctx, id, existing.Outcome, true)
		}
		return existing.Outcome, nil
	}

	result := s.runStages(ctx, id, existing)

	// Persist whatever this run produced, error included, even when a stage
	// failed: the next request resumes from here.
	if !result.patch.Empty() {
		if _, err := s.store.Upsert(ctx, id, result.patch); err != nil {
			return nil, fmt.Errorf("persist record: %w", err)
		}
	}

	if result.failure != nil {
		s.observeOutcome(KindUpstreamError)
		span.SetAttributes(
			attribute.String("check.result", string(KindUpstreamError)),
			attribute.String("check.failed_stage", string(result.failure.Stage)),
		)
		s.logger.WarnContext(ctx, "credit check stopped at stage",
			"stage", result.failure.Stage,
			"code", result.failure.Code,
		)
		return nil, result.failure
	}

	kind := KindApproved
	if result.outcome.Status == domain.OutcomeDenied {
		kind = KindDenied
	}
	s.observeOutcome(kind)
	span.SetAttributes(attribute.String("check.result", string(kind)))
	if s.recorder != nil {
		s.recorder.Decision(ctx, id, result.outcome, false)
	}
	return result.outcome, nil
}

// runStages executes the stages the existing record has not completed yet.
// Denials short-circuit: a failed age rule skips the credit lookup entirely.
func (s *Service) runStages(ctx context.Context, id string, existing *domain.Record) runResult {
	var result runResult

	identity := cachedIdentity(existing)
	if identity == nil {
		fetched, failure := s.fetchIdentity(ctx, id)
		if failure != nil {
			result.failure = failure
			result.patch.Err = &domain.StageError{Stage: failure.Stage, Message: failure.Message}
			return result
		}
		identity = fetched
		result.patch.Identity = fetched
	}

	if outcome := policy.EvaluateIdentity(identity, requestcontext.Now(ctx)); outcome != nil {
		result.outcome = outcome
		result.patch.Outcome = outcome
		return result
	}

	credit := cachedCredit(existing)
	if credit == nil {
		fetched, failure := s.fetchCredit(ctx, id, identity.BirthDate)
		if failure != nil {
			result.failure = failure
			result.patch.Err = &domain.StageError{Stage: failure.Stage, Message: failure.Message}
			return result
		}
		credit = fetched
		result.patch.Credit = fetched
	}

	outcome := policy.EvaluateCredit(credit)
	result.outcome = outcome
	result.patch.Outcome = outcome
	return result
}

func (s *Service) fetchIdentity(ctx context.Context, id string) (*domain.Identity, *StageFailure) {
	ctx, span := s.tracer.Start(ctx, "pipeline.fetch_identity")
	defer span.End()

	start := time.Now()
	identity, err := s.identity.FetchIdentity(ctx, id)
	s.observeLatency(domain.StageIdentity, time.Since(start))

	if err != nil {
		return nil, &StageFailure{Stage: domain.StageIdentity, Code: domain.ReasonUnavailable, Message: err.Error()}
	}
	if identity == nil {
		return nil, &StageFailure{Stage: domain.StageIdentity, Code: domain.ReasonNoResult, Message: "identity lookup returned no result"}
	}
	return identity, nil
}

func (s *Service) fetchCredit(ctx context.Context, id string, birthDate time.Time) (*domain.CreditFacts, *StageFailure) {
	ctx, span := s.tracer.Start(ctx, "pipeline.fetch_credit")
	defer span.End()

	start := time.Now()
	credit, err := s.credit.FetchCreditFacts(ctx, id, birthDate)
	s.observeLatency(domain.StageCredit, time.Since(start))

	if err != nil {
		return nil, &StageFailure{Stage: domain.StageCredit, Code: domain.ReasonUnavailable, Message: err.Error()}
	}
	if credit == nil {
		return nil, &StageFailure{Stage: domain.StageCredit, Code: domain.ReasonNoResult, Message: "credit lookup returned no result"}
	}
	return credit, nil
}

// Record returns the persisted record for the raw CPF, validating the input
// first. Administrative read; never mutates anything.
func (s *Service) Record(ctx context.Context, rawCPF string) (*domain.Record, error) {
	validation := cpf.Validate(rawCPF)
	if validation.Code != cpf.Valid {
		return nil, &InvalidInputError{Code: validation.Code}
	}
	rec, err := s.store.FindByID(ctx, validation.Normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load record: %w", err)
	}
	return rec, nil
}

func (s *Service) observeOutcome(kind ResultKind) {
	if s.observer != nil {
		s.observer.Outcome(kind)
	}
}

func (s *Service) observeLatency(stage domain.Stage, d time.Duration) {
	if s.observer != nil {
		s.observer.StageLatency(stage, d)
	}
}

func cachedIdentity(rec *domain.Record) *domain.Identity {
	if rec == nil {
		return nil
	}
	return rec.Identity
}

func cachedCredit(rec *domain.Record) *domain.CreditFacts {
	if rec == nil {
		return nil
	}
	return rec.Credit
}
