package domain

import "time"

// Identity holds the facts returned by the identity provider for a CPF.
// Immutable once fetched; the pipeline never re-requests it for a known record.
type Identity struct {
	FullName  string    `json:"full_name"`
	BirthDate time.Time `json:"birth_date"`
	Deceased  bool      `json:"deceased"`
}

// CreditFacts holds the facts returned by the credit bureau for a CPF.
// Immutable once fetched, same caching rule as Identity.
type CreditFacts struct {
	Score     int     `json:"score"`
	TotalDebt float64 `json:"total_debt"`
}

// ErrorEntry is one failed attempt at a pipeline stage. The log is append-only
// and accumulates across retries.
type ErrorEntry struct {
	Stage      Stage     `json:"stage"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Record is the canonical persisted shape, keyed by normalized CPF. One record
// per CPF; a record with a non-nil Outcome is terminal.
type Record struct {
	CPF       string       `json:"cpf"`
	Identity  *Identity    `json:"identity,omitempty"`
	Credit    *CreditFacts `json:"credit_facts,omitempty"`
	Outcome   *Outcome     `json:"outcome,omitempty"`
	Errors    []ErrorEntry `json:"errors"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Terminal reports whether the record already carries a decision. Terminal
// records are returned verbatim and never mutated.
func (r *Record) Terminal() bool {
	return r != nil && r.Outcome != nil
}

// StageError is the transient error carried by a patch. It becomes an
// ErrorEntry when the store applies the patch.
type StageError struct {
	Stage   Stage
	Message string
}

// StagePatch is the partial progress of a single pipeline run. Fields left nil
// are untouched by the store; Identity, Credit and Outcome are write-once and
// never overwrite an already-set value, Err always appends to the error log.
type StagePatch struct {
	Identity *Identity
	Credit   *CreditFacts
	Outcome  *Outcome
	Err      *StageError
}

// Empty reports whether applying the patch would change nothing besides the
// update timestamp.
func (p StagePatch) Empty() bool {
	return p.Identity == nil && p.Credit == nil && p.Outcome == nil && p.Err == nil
}
