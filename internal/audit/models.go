// Package audit emits one structured event per credit decision. Events are
// fire-and-forget observability records; losing one never fails a request.
package audit

import "time"

// Event captures a single decision for the audit trail. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	CPF       string    `json:"cpf"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Cached    bool      `json:"cached"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
