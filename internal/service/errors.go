package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed IDs and bodies; surfaced as 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResultNotFound means the result record truly does not exist.
	ErrResultNotFound = errors.New("result not found")

	// ErrIncorrectPasscode means the passcode failed verification.
	ErrIncorrectPasscode = errors.New("incorrect passcode")

	// ErrMisconfigured means a private result has no passcode digest.
	// Surfaced as a generic server error; the detail stays in the logs.
	ErrMisconfigured = errors.New("result configuration error")
)

// RateLimitedError is returned while a (result, client) pair is locked
// out. RetryAfterSeconds feeds the Retry-After response header.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %ds", e.RetryAfterSeconds)
}
