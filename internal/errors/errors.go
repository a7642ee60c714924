package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the stores, the auth service and the HTTP layer.
var (
	// ErrValidation marks bad or missing input, including oversized payloads.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers unknown users, unmatched tag+code pairs and unknown sessions.
	ErrNotFound = errors.New("not found")

	// ErrCorruptedState is returned when a persisted record exists but cannot be decoded.
	ErrCorruptedState = errors.New("corrupted state")

	// ErrUpstream wraps failures of the persistence, mail or file collaborators.
	ErrUpstream = errors.New("upstream failure")

	// ErrUnbalancedExpression is returned by the page expander for an unterminated expression.
	ErrUnbalancedExpression = errors.New("unbalanced expression")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Upstream marks err as a collaborator failure while keeping the original in the chain.
func Upstream(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), ErrUpstream, err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
