package domain

// Stage identifies where in the pipeline a result or error originated.
type Stage string

const (
	StageValidation Stage = "validation"
	StageIdentity   Stage = "identity"
	StageCredit     Stage = "creditFacts"
)

// ReasonCode enumerates denial and error reasons surfaced to callers.
type ReasonCode string

const (
	ReasonNoResult    ReasonCode = "NO_RESULT"
	ReasonUnavailable ReasonCode = "SERVICE_UNAVAILABLE"
	ReasonIsDead      ReasonCode = "IS_DEAD"
	ReasonUnderage    ReasonCode = "UNDERAGE"
	ReasonTooOld      ReasonCode = "TOO_OLD"
	ReasonLowScore    ReasonCode = "LOW_SCORE"
	ReasonDebtTooHigh ReasonCode = "DEBT_TOO_HIGH"
)

// OutcomeStatus is the terminal disposition of an application.
type OutcomeStatus string

const (
	OutcomeApproved OutcomeStatus = "approved"
	OutcomeDenied   OutcomeStatus = "denied"
)

// DenialReason explains a denied outcome: which rule fired, at which stage,
// and the offending value (age, score, debt, or the deceased flag).
type DenialReason struct {
	Code  ReasonCode `json:"code"`
	Stage Stage      `json:"stage"`
	Value any        `json:"value"`
}

// LoanTerms is the pricing attached to an approved outcome.
type LoanTerms struct {
	MonthlyInterestRate int `json:"monthly_interest_rate"`
	MaxTermMonths       int `json:"max_term_months"`
}

// Outcome is the terminal decision for an application. Exactly one of Reason
// or Terms is set, depending on Status.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Reason *DenialReason `json:"reason,omitempty"`
	Terms  *LoanTerms    `json:"terms,omitempty"`
}

// Denied builds a denial outcome for the given rule.
func Denied(code ReasonCode, stage Stage, value any) *Outcome {
	return &Outcome{
		Status: OutcomeDenied,
		Reason: &DenialReason{Code: code, Stage: stage, Value: value},
	}
}

// Approved builds an approval outcome with the given pricing.
func Approved(monthlyInterestRate, maxTermMonths int) *Outcome {
	return &Outcome{
		Status: OutcomeApproved,
		Terms:  &LoanTerms{MonthlyInterestRate: monthlyInterestRate, MaxTermMonths: maxTermMonths},
	}
}
