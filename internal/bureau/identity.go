// Package bureau implements the external lookup clients for the two data
// providers: the identity registry and the credit bureau. Both are plain
// JSON-over-HTTP APIs that may be slow, fail, or know nothing about a CPF.
// Timeouts live in the http.Client; the pipeline decides whether to retry.
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

// IdentityClient queries the identity provider over HTTP.
type IdentityClient struct {
	baseURL string
	client  *http.Client
}

// NewIdentityClient builds a client for the provider at baseURL. The timeout
// bounds every lookup, hung providers included.
func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type identityPayload struct {
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
	Deceased  bool   `json:"deceased"`
}

// FetchIdentity looks up the applicant. A 404 means the provider has no
// record (nil, nil); any other non-2xx status or transport error is a
// provider failure wrapped around sentinel.ErrUnavailable.
func (c *IdentityClient) FetchIdentity(ctx context.Context, cpf string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/people/"+url.PathEscape(cpf), nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("identity provider: %w: unexpected status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var payload identityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	birthDate, err := time.Parse("2006-01-02", payload.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("identity provider sent bad birth date %q: %w", payload.BirthDate, err)
	}

	return &domain.Identity{
		FullName:  payload.FullName,
		BirthDate: birthDate,
		Deceased:  payload.Deceased,
	}, nil
}
