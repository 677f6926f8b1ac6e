package recipe

import (
	"errors"
	"fmt"
)

// ErrNoIngredients is returned when an ingredient search has nothing to search for.
var ErrNoIngredients = errors.New("at least one ingredient is required")

// ErrMalformedResponse is returned when the backend answered successfully but the body
// does not have the expected shape. It is distinct from an empty result.
var ErrMalformedResponse = errors.New("malformed response from recipe service")

// ValidationError reports a required form field that failed validation.
// The request is never sent when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
