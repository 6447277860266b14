package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and lookup clients return
// these (optionally wrapped) so the pipeline can translate them into
// caller-facing results.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrUnavailable: upstream provider or resource temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
