package sentinel

import "errors"

// Sentinel errors for infrastructure and state-machine facts. Stores and the
// authentication session return these (optionally wrapped) so the service can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: credential does not exist in the store
// - ErrAlreadyResolved: authentication session reached its terminal state
// - ErrInvalidState: session in wrong state for the requested transition
// - ErrUnavailable: backing store temporarily unavailable
//
// For input validation errors, use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("already resolved")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
