package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. The write timeout must stay
// above the slowest upstream lookup plus slack, since a credit check holds
// the connection through both provider calls.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
