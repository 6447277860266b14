package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creditgate/internal/platform/middleware"
)

// NewRouter wires all endpoints. authMW is optional; when nil the credit
// endpoints are open (development only).
func NewRouter(h *Handler, authMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if h.tokens != nil {
		r.Post("/auth/token", h.HandleToken)
	}

	r.Group(func(r chi.Router) {
		if authMW != nil {
			r.Use(authMW)
		}
		r.Post("/credit/check", h.HandleCheck)
		r.Get("/credit/record/{cpf}", h.HandleRecord)
	})

	return r
}
