package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by APIError. Use errors.Is() to check.
var (
	ErrValidation    = errors.New("grantmatch: validation failed")
	ErrNotFound      = errors.New("grantmatch: not found")
	ErrNotConfigured = errors.New("grantmatch: not configured")
	ErrDependency    = errors.New("grantmatch: dependency unavailable")
	// ErrPollExhausted is returned when a search job stays non-terminal for every allowed poll.
	ErrPollExhausted = errors.New("grantmatch: search job polling exhausted")
)

// APIError is a non-2xx answer of the grantmatch API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grantmatch: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "validation_failed", "bad_request":
		return ErrValidation
	case "not_found":
		return ErrNotFound
	case "not_configured":
		return ErrNotConfigured
	case "dependency_error":
		return ErrDependency
	}
	return nil
}
