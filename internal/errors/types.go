package errors

import (
	"errors"
	"fmt"
)

// AuthError reports a failed refresh-token exchange. It is run-fatal: the
// pipeline aborts and the scheduler's retry layer decides whether to re-run.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps err as an AuthError.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

// QuotaFetchError reports a failed quota catalog fetch against one endpoint.
// It is endpoint-local: the pipeline advances to the next candidate.
type QuotaFetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *QuotaFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("quota fetch failed on %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("quota fetch failed on %s: %v", e.Endpoint, e.Err)
}

func (e *QuotaFetchError) Unwrap() error {
	return e.Err
}

// ErrNoWorkingEndpoint is returned when every candidate endpoint fails its
// health check.
var ErrNoWorkingEndpoint = errors.New("no working endpoint")

// ErrAllEndpointsFailed is the terminal pipeline outcome when every endpoint
// was exhausted without a single pool success.
var ErrAllEndpointsFailed = errors.New("all endpoints failed")

// IsRunFatal reports whether err ends the whole pipeline run rather than a
// single endpoint or pool. Run-fatal errors are the only ones that reach the
// scheduler's retry layer.
func IsRunFatal(err error) bool {
	if err == nil {
		return false
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	return errors.Is(err, ErrNoWorkingEndpoint) || errors.Is(err, ErrAllEndpointsFailed)
}
