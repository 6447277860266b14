package httptransport

import (
	"time"

	"creditgate/internal/domain"
)

type errorPayload struct {
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Validation bool   `json:"validation,omitempty"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type reasonResponse struct {
	Code  string `json:"code"`
	Stage string `json:"stage"`
	Value any    `json:"value"`
}

type decisionResponse struct {
	Status              string          `json:"status"`
	Reason              *reasonResponse `json:"reason,omitempty"`
	MonthlyInterestRate *int            `json:"monthly_interest_rate,omitempty"`
	MaxTermMonths       *int            `json:"max_term_months,omitempty"`
}

func fromOutcome(outcome *domain.Outcome) decisionResponse {
	resp := decisionResponse{Status: string(outcome.Status)}
	if outcome.Reason != nil {
		resp.Reason = &reasonResponse{
			Code:  string(outcome.Reason.Code),
			Stage: string(outcome.Reason.Stage),
			Value: outcome.Reason.Value,
		}
	}
	if outcome.Terms != nil {
		rate := outcome.Terms.MonthlyInterestRate
		term := outcome.Terms.MaxTermMonths
		resp.MonthlyInterestRate = &rate
		resp.MaxTermMonths = &term
	}
	return resp
}

type errorEntryResponse struct {
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

type recordResponse struct {
	CPF       string               `json:"cpf"`
	Identity  *domain.Identity     `json:"identity,omitempty"`
	Credit    *domain.CreditFacts  `json:"credit_facts,omitempty"`
	Outcome   *decisionResponse    `json:"outcome,omitempty"`
	Errors    []errorEntryResponse `json:"errors"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func fromRecord(rec *domain.Record) recordResponse {
	resp := recordResponse{
		CPF:       rec.CPF,
		Identity:  rec.Identity,
		Credit:    rec.Credit,
		Errors:    make([]errorEntryResponse, 0, len(rec.Errors)),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Outcome != nil {
		outcome := fromOutcome(rec.Outcome)
		resp.Outcome = &outcome
	}
	for _, entry := range rec.Errors {
		resp.Errors = append(resp.Errors, errorEntryResponse{
			Stage:      string(entry.Stage),
			Message:    entry.Message,
			OccurredAt: entry.OccurredAt,
		})
	}
	return resp
}
