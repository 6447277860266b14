package pipeline

import (
	"fmt"

	"creditgate/internal/cpf"
	"creditgate/internal/domain"
)

// InvalidInputError reports a malformed CPF. Detected before any I/O and
// never persisted.
type InvalidInputError struct {
	Code cpf.ResultCode
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid cpf: %s", e.Code)
}

// StageFailure reports that an external lookup failed or returned no result.
// The record is left resumable; the next request retries only the failed
// stage. Code is ReasonNoResult for an empty result and ReasonUnavailable for
// a provider failure.
type StageFailure struct {
	Stage   domain.Stage
	Code    domain.ReasonCode
	Message string
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Code, e.Message)
}
