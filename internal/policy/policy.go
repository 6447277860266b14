// Package policy holds the credit eligibility and pricing rules.
// This is pure domain logic - no I/O, no side effects. The pipeline gathers
// the facts; the functions here only judge them.
package policy

import (
	"time"

	"creditgate/internal/domain"
)

// Business thresholds. These values are contractual and must not drift.
const (
	MinAge   = 18
	MaxAge   = 80
	MinScore = 400
	MaxDebt  = 1000
)

// EvaluateIdentity applies the identity-stage rule chain.
// Rule priority (fail-fast):
//  1. Deceased applicant - hard denial
//  2. Age below 18 - underage
//  3. Age above 80 - too old
//
// Returns nil when the identity passes and the credit stage should run.
func EvaluateIdentity(identity *domain.Identity, now time.Time) *domain.Outcome {
	if identity.Deceased {
		return domain.Denied(domain.ReasonIsDead, domain.StageIdentity, true)
	}

	age := AgeAt(identity.BirthDate, now)
	if age < MinAge {
		return domain.Denied(domain.ReasonUnderage, domain.StageIdentity, age)
	}
	if age > MaxAge {
		return domain.Denied(domain.ReasonTooOld, domain.StageIdentity, age)
	}
	return nil
}

// EvaluateCredit applies the credit-stage rules and, when they pass, prices
// the approval. Always returns a terminal outcome.
func EvaluateCredit(facts *domain.CreditFacts) *domain.Outcome {
	if facts.Score < MinScore {
		return domain.Denied(domain.ReasonLowScore, domain.StageCredit, facts.Score)
	}
	if facts.TotalDebt > MaxDebt {
		return domain.Denied(domain.ReasonDebtTooHigh, domain.StageCredit, facts.TotalDebt)
	}
	return domain.Approved(monthlyInterestRate(facts.Score), maxTermMonths(facts.TotalDebt))
}

// AgeAt returns the age in whole years at the reference time.
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// maxTermMonths maps outstanding debt to the longest term offered.
// Non-increasing in debt.
func maxTermMonths(debt float64) int {
	switch {
	case debt > 800:
		return 6
	case debt > 600:
		return 9
	case debt > 400:
		return 12
	case debt > 200:
		return 15
	default:
		return 18
	}
}

// monthlyInterestRate maps the bureau score to a rate in percent per month.
// Non-increasing in score.
func monthlyInterestRate(score int) int {
	switch {
	case score > 800:
		return 1
	case score > 600:
		return 2
	default:
		return 3
	}
}
