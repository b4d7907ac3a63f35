// Package crypto provides cryptographic interfaces for configseal.
// This package defines interfaces that can be implemented by different crypto backends.
package crypto

import (
	"context"

	"github.com/mrz1836/configseal/internal/domain"
)

// Signer provides signing capabilities.
// Implementations must be deterministic: signing the same message and
// timestamp twice produces the same signature.
type Signer interface {
	// Sign signs ts || message and returns the raw signature.
	Sign(ctx context.Context, message []byte, ts uint64) ([]byte, error)

	// KeyID identifies the key that produced the signature.
	KeyID() domain.KeyID
}

// Verifier provides signature verification capabilities.
type Verifier interface {
	// Verify reports whether signature is valid for ts || message.
	// A mismatch is (false, nil). Undecodable or wrongly sized inputs
	// return an error wrapping errors.ErrMalformedInput.
	Verify(ctx context.Context, message []byte, ts uint64, signature []byte) (bool, error)
}
