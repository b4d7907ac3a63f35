// Package envelope assembles, persists and verifies signed configuration envelopes.
package envelope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/crypto"
	"github.com/mrz1836/configseal/internal/crypto/native"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/flock"
)

// KeyedVerifier is a Verifier bound to one public key.
type KeyedVerifier interface {
	crypto.Verifier
	KeyID() domain.KeyID
}

// Build signs ts || payload with every signer and returns the envelope.
// Each signer contributes one entry keyed by its key id, so adding a signer
// adds a map entry and leaves the envelope shape alone.
func Build(ctx context.Context, payload []byte, ts uint64, signers ...crypto.Signer) (*domain.SignedEnvelope, error) {
	if len(signers) == 0 {
		return nil, errors.ErrNoSigners
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "envelope").Logger()

	sigs := make(domain.SignatureRecord, len(signers))
	for _, s := range signers {
		sig, err := s.Sign(ctx, payload, ts)
		if err != nil {
			return nil, errors.Wrapf(err, "signing with key %s", s.KeyID())
		}
		sigs[s.KeyID()] = native.EncodeSignature(sig)
		logger.Debug().Str("key_id", s.KeyID().String()).Uint64("ts", ts).Msg("payload signed")
	}

	return &domain.SignedEnvelope{
		TS:     ts,
		Config: string(payload),
		Sig:    sigs,
	}, nil
}

// Marshal renders env with two-space indentation. HTML escaping is off so the
// embedded config keeps readable \" and literal + < > & characters.
func Marshal(env *domain.SignedEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// Write replaces the contents of path with data under an exclusive lock and
// returns the number of bytes written.
func Write(path string, data []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, constants.PublicFileMode) // #nosec G302 G304 -- envelope is public
	if err != nil {
		return 0, fmt.Errorf("%w: opening %s: %w", errors.ErrIOFailure, path, err)
	}

	release, err := flock.Hold(f)
	if err != nil {
		_ = f.Close()
		return 0, err
	}

	n, err := writeLocked(f, data)
	release()
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: closing %s: %w", errors.ErrIOFailure, path, closeErr)
	}
	return n, err
}

func writeLocked(f *os.File, data []byte) (int, error) {
	if err := f.Truncate(0); err != nil {
		return 0, fmt.Errorf("%w: truncating %s: %w", errors.ErrIOFailure, f.Name(), err)
	}
	n, err := f.Write(data)
	if err != nil {
		return n, fmt.Errorf("%w: writing %s: %w", errors.ErrIOFailure, f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		return n, fmt.Errorf("%w: syncing %s: %w", errors.ErrIOFailure, f.Name(), err)
	}
	return n, nil
}

// Parse decodes an envelope. Unknown top-level keys are rejected.
func Parse(data []byte) (*domain.SignedEnvelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var env domain.SignedEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding envelope: %w", errors.ErrInvalidInput, err)
	}
	return &env, nil
}

// Read loads and parses the envelope at path.
func Read(path string) (*domain.SignedEnvelope, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errors.ErrIOFailure, path, err)
	}
	return Parse(data)
}

// Verify checks the entry in env.Sig that belongs to verifier's key.
// A missing entry is ErrUnknownKeyID, undecodable signature bytes are
// ErrMalformedInput and a mismatch is ErrSignatureMismatch.
func Verify(ctx context.Context, env *domain.SignedEnvelope, verifier KeyedVerifier) error {
	keyID := verifier.KeyID()
	encoded, ok := env.Sig[keyID]
	if !ok {
		return fmt.Errorf("%w %s", errors.ErrUnknownKeyID, keyID)
	}

	sig, err := native.DecodeSignature(encoded)
	if err != nil {
		return errors.Wrapf(err, "signature for %s", keyID)
	}

	valid, err := verifier.Verify(ctx, []byte(env.Config), env.TS, sig)
	if err != nil {
		return errors.Wrapf(err, "signature for %s", keyID)
	}
	if !valid {
		return fmt.Errorf("%w: key %s", errors.ErrSignatureMismatch, keyID)
	}
	return nil
}
