package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when a provider responds with a non-2xx status.
type APIError struct {
	Service    string
	StatusCode int
}

// Error implements error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// IsTransient reports whether a provider error is worth retrying: timeouts,
// rate limiting and server-side failures are; other client errors
// (unsupported format, bad request, auth) are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout:
			return true
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= 500:
			return true
		}
		return false
	}

	// Network-level and deadline errors come through without a status.
	return true
}
