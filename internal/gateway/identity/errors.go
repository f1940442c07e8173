package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyProfile reports a 2xx identity response carrying no user.
var ErrEmptyProfile = errors.New("identity: empty profile in response")

// APIError is a non-2xx response from the backend, with the human-readable
// message the backend chose to surface.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("identity: request failed with status %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the backend, the signal
// that the presented credential is no longer accepted.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
