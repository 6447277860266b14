package pipeline

import (
	"context"
	"time"

	"creditgate/internal/domain"
)

// IdentityClient looks up an applicant in the identity provider.
// Returns (nil, nil) when the provider has no record for the CPF; an error
// means the provider itself failed. The client owns its own timeout; the
// pipeline does not retry.
type IdentityClient interface {
	FetchIdentity(ctx context.Context, cpf string) (*domain.Identity, error)
}

// CreditClient looks up credit-bureau facts. The bureau requires the birth
// date from the identity stage, which is why the two lookups are sequential.
// Same absent/failure contract as IdentityClient.
type CreditClient interface {
	FetchCreditFacts(ctx context.Context, cpf string, birthDate time.Time) (*domain.CreditFacts, error)
}

// ResultKind classifies a finished pipeline run for observability.
type ResultKind string

const (
	KindCached        ResultKind = "cached"
	KindApproved      ResultKind = "approved"
	KindDenied        ResultKind = "denied"
	KindUpstreamError ResultKind = "upstream_error"
	KindInvalidInput  ResultKind = "invalid_input"
)

// Observer receives fire-and-forget telemetry from the pipeline. It has no
// effect on control flow; a nil observer disables it. Keeping the hook behind
// an interface means the business logic exists exactly once, with and without
// metrics.
type Observer interface {
	StageLatency(stage domain.Stage, d time.Duration)
	Outcome(kind ResultKind)
}
