package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"creditgate/pkg/requestcontext"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, rr.Header().Get("X-Request-ID"))
}

func TestRequestIDHonorsUpstreamHeader(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "proxy-assigned")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "proxy-assigned", captured)
}

func TestClientMetadataPrefersForwardedFor(t *testing.T) {
	var ip, ua string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:41000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.9", ip)
	assert.Contains(t, ua, "Chrome")
	assert.Contains(t, ua, "Linux")
}

func TestClientMetadataFallsBackToRemoteAddr(t *testing.T) {
	var ip string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:55123"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.7", ip)
}

type stubVerifier struct {
	err error
}

func (s stubVerifier) Verify(string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "client-1", nil
}

func TestRequireTokenRejectsMissingHeader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequireToken(stubVerifier{}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"UNAUTHORIZED"}`, rr.Body.String())
}

func TestRequireTokenRejectsBadToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequireToken(stubVerifier{err: errors.New("expired")}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireTokenPassesValidToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var ran bool
	handler := RequireToken(stubVerifier{}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, ran)
}
