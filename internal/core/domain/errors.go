package domain

import (
	"errors"
	"fmt"
)

// ErrBackendUnreachable marks transport-level failures: the network call never
// produced a JSON response (connection refused, timeout, or an HTML page
// served where JSON was expected). Always recoverable; treated as "not
// authenticated" by the auth state machine.
var ErrBackendUnreachable = errors.New("backend unreachable")

// ErrUnauthorized is returned after a 401 from the backend. The gateway has
// already cleared the stored session by the time the caller sees it.
var ErrUnauthorized = errors.New("not authenticated")

// ErrForbidden is returned after a 403 from the backend.
var ErrForbidden = errors.New("access forbidden")

// ErrLoginInFlight rejects a login attempt that overlaps one already running.
var ErrLoginInFlight = errors.New("login already in progress")

// APIError carries a non-auth application error (4xx other than 401/403)
// through to the caller verbatim. The core never interprets Body beyond
// passing it along.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}
