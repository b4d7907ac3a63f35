// Package domain contains core domain types for configseal.
// This file defines the key material and signing context of a run.
//
// Import rules per existing conventions:
// - CAN import: internal/constants, internal/errors, standard library
// - MUST NOT import: any other internal packages
package domain

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mrz1836/configseal/internal/errors"
)

// SeedSize is the length of an Ed25519 signing seed.
const SeedSize = ed25519.SeedSize

// KeyIDBytes is the number of SHA-256 bytes that form a key id.
const KeyIDBytes = 4

// Seed is the 32-byte secret from which the key pair is derived.
// Its String method never reveals the bytes.
type Seed []byte

// String implements fmt.Stringer without exposing the secret.
func (s Seed) String() string {
	return "[REDACTED]"
}

// ParseSeed decodes a base64 seed as stored in the signing key file.
// Surrounding whitespace is ignored. Anything other than exactly SeedSize
// decoded bytes is ErrMalformedKey.
func ParseSeed(encoded string) (Seed, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrMalformedKey, err)
	}
	if len(raw) != SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", errors.ErrMalformedKey, SeedSize, len(raw))
	}
	return Seed(raw), nil
}

// Encode returns the base64 form written to the signing key file.
func (s Seed) Encode() string {
	return base64.StdEncoding.EncodeToString(s)
}

// PublicKey derives the Ed25519 public key. The seed must be SeedSize bytes.
func (s Seed) PublicKey() ed25519.PublicKey {
	return s.PrivateKey().Public().(ed25519.PublicKey)
}

// PrivateKey expands the seed into the 64-byte Ed25519 private key.
func (s Seed) PrivateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(s)
}

// KeyID is the short fingerprint of a public key: the upper-case hex form
// of the first four bytes of its SHA-256 digest.
type KeyID string

// NewKeyID computes the key id of a public key.
func NewKeyID(pub ed25519.PublicKey) KeyID {
	sum := sha256.Sum256(pub)
	return KeyID(strings.ToUpper(hex.EncodeToString(sum[:KeyIDBytes])))
}

// String returns the key id.
func (k KeyID) String() string {
	return string(k)
}

// SigningContext carries everything a run signs with. It is built once at
// startup and passed explicitly to every stage.
type SigningContext struct {
	Seed      Seed
	PublicKey ed25519.PublicKey
	KeyID     KeyID
	Timestamp uint64
}

// NewSigningContext derives the public key and key id from seed.
func NewSigningContext(seed Seed, ts uint64) (*SigningContext, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", errors.ErrMalformedKey, SeedSize, len(seed))
	}
	pub := seed.PublicKey()
	return &SigningContext{
		Seed:      seed,
		PublicKey: pub,
		KeyID:     NewKeyID(pub),
		Timestamp: ts,
	}, nil
}

// EncodedPublicKey returns the base64 public key.
func (c *SigningContext) EncodedPublicKey() string {
	return base64.StdEncoding.EncodeToString(c.PublicKey)
}

// String implements fmt.Stringer. The seed is never included.
func (c *SigningContext) String() string {
	return fmt.Sprintf("SigningContext{key_id=%s ts=%d}", c.KeyID, c.Timestamp)
}
