package dynsched

import (
	"errors"
	"net/http"
)

// LoginRoute is where an expired session sends the user.
const LoginRoute = "/login"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is the single failure shape returned by every API operation.
// Status is 0 when the request never got a response.
type APIError struct {
	Status   int
	Message  string
	Redirect string
	Err      error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// RedirectTarget reports where the caller should navigate after err, if anywhere.
func RedirectTarget(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Redirect != "" {
		return apiErr.Redirect, true
	}
	return "", false
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
