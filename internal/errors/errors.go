// Package errors provides centralized error handling for configseal.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
var (
	// ErrMalformedKey indicates that the persisted signing key does not
	// decode to exactly 32 bytes.
	ErrMalformedKey = errors.New("malformed signing key")

	// ErrInvalidInput indicates that the input document is missing, unreadable,
	// or not a JSON object at the top level.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSelfTestFailed indicates that the signing primitive failed its
	// startup self-test. It must never be swallowed.
	ErrSelfTestFailed = errors.New("signing self-test failed")

	// ErrMalformedInput indicates that signature or public key bytes could
	// not be decoded. It is distinct from a signature mismatch.
	ErrMalformedInput = errors.New("malformed signature input")

	// ErrIOFailure indicates a file read or write failure.
	ErrIOFailure = errors.New("i/o failure")

	// ErrKeyNotLoaded indicates that a signer was requested before the key was loaded.
	ErrKeyNotLoaded = errors.New("signing key not loaded")

	// ErrNoSigners indicates that an envelope was built without any signer.
	ErrNoSigners = errors.New("no signers provided")

	// ErrUnknownKeyID indicates that an envelope carries no signature for the
	// key id of the verifying public key.
	ErrUnknownKeyID = errors.New("no signature for key id")

	// ErrSignatureMismatch indicates that a well-formed signature did not verify.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrOutputLocked indicates that another process holds the output file lock.
	ErrOutputLocked = errors.New("output file is locked")

	// ErrInvalidCanonicalMode indicates an unknown canonicalization mode.
	ErrInvalidCanonicalMode = errors.New("invalid canonicalization mode")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
