package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals bad or missing user input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrJobNotFound signals an unknown search job id.
	ErrJobNotFound = fmt.Errorf("search job %w", ErrNotFound)
	// ErrGrantNotFound signals a grant without a readable summary.
	ErrGrantNotFound = fmt.Errorf("grant %w", ErrNotFound)
	// ErrDependency signals an unreachable backing service.
	ErrDependency = errors.New("dependency unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = fmt.Errorf("embedding provider error: %w", ErrDependency)
	// ErrEmbeddingBudgetExceeded signals an exhausted provider token budget.
	ErrEmbeddingBudgetExceeded = fmt.Errorf("embedding token budget exceeded: %w", ErrDependency)
	// ErrConfiguration signals missing required wiring, e.g. no job table.
	ErrConfiguration = errors.New("not configured")
	// ErrJobTerminal signals a mutation of a job that already finished.
	ErrJobTerminal = errors.New("search job already finished")
)

// ValidationError describes a user-correctable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
