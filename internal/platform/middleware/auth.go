package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token and returns the client it was
// issued to.
type TokenVerifier interface {
	Verify(token string) (clientID string, err error)
}

// RequireToken guards a route group with bearer-token auth.
func RequireToken(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			if _, err := verifier.Verify(token); err != nil {
				logger.DebugContext(r.Context(), "rejected bearer token", "error", err)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "UNAUTHORIZED"})
}
