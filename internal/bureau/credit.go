package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"creditgate/internal/domain"
	"creditgate/pkg/sentinel"
)

// CreditClient queries the credit bureau over HTTP.
type CreditClient struct {
	baseURL string
	client  *http.Client
}

func NewCreditClient(baseURL string, timeout time.Duration) *CreditClient {
	return &CreditClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type creditPayload struct {
	Score     int     `json:"score"`
	TotalDebt float64 `json:"total_debt"`
}

// FetchCreditFacts looks up score and outstanding debt. The bureau keys its
// records on CPF plus birth date, so the identity stage must run first.
// Absent/failure contract matches FetchIdentity.
func (c *CreditClient) FetchCreditFacts(ctx context.Context, cpf string, birthDate time.Time) (*domain.CreditFacts, error) {
	endpoint := fmt.Sprintf("%s/scores/%s?birth_date=%s",
		c.baseURL, url.PathEscape(cpf), url.QueryEscape(birthDate.Format("2006-01-02")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build credit request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credit bureau: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("credit bureau: %w: unexpected status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var payload creditPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode credit response: %w", err)
	}

	return &domain.CreditFacts{
		Score:     payload.Score,
		TotalDebt: payload.TotalDebt,
	}, nil
}
