// Package httptransport is the thin HTTP layer. Handlers delegate to the
// pipeline without embedding business logic so transport concerns stay
// isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"creditgate/internal/authtoken"
	"creditgate/internal/domain"
	"creditgate/internal/pipeline"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/sentinel"
)

//go:generate mockgen -source=handlers.go -destination=mocks/handlers_mock.go -package=mocks

// CheckService defines the pipeline operations the handlers need.
type CheckService interface {
	Check(ctx context.Context, rawCPF string) (*domain.Outcome, error)
	Record(ctx context.Context, rawCPF string) (*domain.Record, error)
}

// TokenIssuer exchanges client credentials for a bearer token.
type TokenIssuer interface {
	Exchange(clientID, clientSecret string) (string, error)
}

// Handler wires the credit endpoints to the pipeline service.
type Handler struct {
	service CheckService
	tokens  TokenIssuer
	logger  *slog.Logger
}

// New constructs the handler. tokens may be nil when auth is disabled; the
// router then skips the token endpoint and the auth middleware.
func New(service CheckService, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

type checkRequest struct {
	CPF string `json:"cpf"`
}

// HandleCheck handles POST /credit/check.
//
// Status mapping keeps the four caller-visible categories distinct:
// 200 decision (approved or denied), 400 malformed CPF, 502 upstream
// failure or empty result, 500 storage fault.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{Code: "INVALID_REQUEST", Message: "body must be JSON with a cpf field"}})
		return
	}

	outcome, err := h.service.Check(ctx, req.CPF)
	if err != nil {
		h.writeCheckError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "credit check decided",
		"request_id", requestcontext.RequestID(ctx),
		"status", outcome.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, fromOutcome(outcome))
}

func (h *Handler) writeCheckError(ctx context.Context, w http.ResponseWriter, err error) {
	var invalid *pipeline.InvalidInputError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{
			Code:       string(invalid.Code),
			Validation: true,
		}})
		return
	}

	var failure *pipeline.StageFailure
	if errors.As(err, &failure) {
		writeJSON(w, http.StatusBadGateway, errorEnvelope{Error: errorPayload{
			Code:    string(failure.Code),
			Stage:   string(failure.Stage),
			Message: failure.Message,
		}})
		return
	}

	h.logger.ErrorContext(ctx, "credit check failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorPayload{Code: "INTERNAL"}})
}

// HandleRecord handles GET /credit/record/{cpf}. Administrative read of the
// persisted record, error log included.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.service.Record(ctx, chi.URLParam(r, "cpf"))
	if err != nil {
		var invalid *pipeline.InvalidInputError
		switch {
		case errors.As(err, &invalid):
			writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{Code: string(invalid.Code), Validation: true}})
		case errors.Is(err, sentinel.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorEnvelope{Error: errorPayload{Code: "NOT_FOUND"}})
		default:
			h.logger.ErrorContext(ctx, "record lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorPayload{Code: "INTERNAL"}})
		}
		return
	}

	writeJSON(w, http.StatusOK, fromRecord(rec))
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// HandleToken handles POST /auth/token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{Code: "INVALID_REQUEST"}})
		return
	}

	token, err := h.tokens.Exchange(req.ClientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, authtoken.ErrBadCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorPayload{Code: "BAD_CREDENTIALS"}})
			return
		}
		h.logger.ErrorContext(r.Context(), "token issue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorPayload{Code: "INTERNAL"}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "Bearer"})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
