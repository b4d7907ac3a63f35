// Package native provides Ed25519 signing using standard crypto libraries.
package native

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
)

// TimestampSize is the width of the timestamp prefix in a signed message.
const TimestampSize = 8

// FrameMessage builds the bytes that are actually signed: the timestamp as
// 8 little-endian bytes followed by the message.
func FrameMessage(ts uint64, message []byte) []byte {
	framed := make([]byte, TimestampSize+len(message))
	binary.LittleEndian.PutUint64(framed, ts)
	copy(framed[TimestampSize:], message)
	return framed
}

// Sign signs ts || message with the key expanded from seed.
// Ed25519 is deterministic, so equal inputs give equal signatures.
func Sign(seed domain.Seed, ts uint64, message []byte) []byte {
	return ed25519.Sign(seed.PrivateKey(), FrameMessage(ts, message))
}

// Verify reports whether sig is a valid signature of ts || message under pub.
// Inputs of the wrong length simply fail.
func Verify(pub ed25519.PublicKey, ts uint64, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, FrameMessage(ts, message), sig)
}

// EncodeSignature returns the base64 form stored in envelopes.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// DecodeSignature decodes a base64 signature and checks its length.
func DecodeSignature(encoded string) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding signature: %w", errors.ErrMalformedInput, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature is %d bytes, expected %d", errors.ErrMalformedInput, len(sig), ed25519.SignatureSize)
	}
	return sig, nil
}

// DecodePublicKey decodes a base64 public key and checks its length.
// Surrounding whitespace is allowed, as in the public key file.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding public key: %w", errors.ErrMalformedInput, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key is %d bytes, expected %d", errors.ErrMalformedInput, len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// Signer implements crypto.Signer with a single Ed25519 key.
type Signer struct {
	seed  domain.Seed
	keyID domain.KeyID
}

// NewSigner creates a Signer from a 32-byte seed.
func NewSigner(seed domain.Seed) (*Signer, error) {
	if len(seed) != domain.SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", errors.ErrMalformedKey, domain.SeedSize, len(seed))
	}
	return &Signer{
		seed:  seed,
		keyID: domain.NewKeyID(seed.PublicKey()),
	}, nil
}

// Sign signs ts || message using Ed25519.
func (s *Signer) Sign(_ context.Context, message []byte, ts uint64) ([]byte, error) {
	return Sign(s.seed, ts, message), nil
}

// KeyID returns the fingerprint of the signer's public key.
func (s *Signer) KeyID() domain.KeyID {
	return s.keyID
}

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.seed.PublicKey()
}

// Verifier implements crypto.Verifier for one public key.
type Verifier struct {
	pubKey ed25519.PublicKey
}

// NewVerifier creates a Verifier. A key of the wrong size is ErrMalformedInput.
func NewVerifier(pub ed25519.PublicKey) (*Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key is %d bytes, expected %d", errors.ErrMalformedInput, len(pub), ed25519.PublicKeySize)
	}
	return &Verifier{pubKey: pub}, nil
}

// Verify checks the signature using Ed25519.
func (v *Verifier) Verify(_ context.Context, message []byte, ts uint64, signature []byte) (bool, error) {
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: signature is %d bytes, expected %d", errors.ErrMalformedInput, len(signature), ed25519.SignatureSize)
	}
	return Verify(v.pubKey, ts, message, signature), nil
}

// KeyID returns the fingerprint of the verifier's public key.
func (v *Verifier) KeyID() domain.KeyID {
	return domain.NewKeyID(v.pubKey)
}
