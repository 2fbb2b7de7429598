package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard client
var (
	// Session errors
	ErrLoginRequired = errors.New("login required")
	ErrNoSession     = errors.New("no session")
	ErrTokenRevoked  = errors.New("token revoked")

	// Login flow errors
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrInvalidPincode  = errors.New("pincode must be 6 digits")
	ErrInvalidFlowStep = errors.New("operation not valid in current login step")

	// Request errors
	ErrMissingParameter = errors.New("missing required parameter")
	ErrMalformedBody    = errors.New("malformed response body")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
