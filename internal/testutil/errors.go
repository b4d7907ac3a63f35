// Package testutil provides testing utilities for configseal.
//
// This package contains mock errors and known-answer fixtures used across
// test files. It should only be imported by test files (*_test.go) and MUST
// NOT import other internal packages.
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockSign simulates a signer that cannot produce a signature.
	ErrMockSign = errors.New("mock sign failure")

	// ErrMockVerify simulates a verifier backend fault.
	ErrMockVerify = errors.New("mock verify failure")

	// ErrMockDiskFull simulates a writer that rejects every write.
	ErrMockDiskFull = errors.New("disk full")
)
