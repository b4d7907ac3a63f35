package native

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
)

// Identity is the key material of a run. PublicKey and KeyID are always
// derived from Seed and never read back from disk.
type Identity struct {
	Seed      domain.Seed
	PublicKey ed25519.PublicKey
	KeyID     domain.KeyID
	// Created is true when Load generated a new seed.
	Created bool
}

// EncodedPublicKey returns the base64 public key as written to the public key file.
func (id *Identity) EncodedPublicKey() string {
	return base64.StdEncoding.EncodeToString(id.PublicKey)
}

func newIdentity(seed domain.Seed, created bool) *Identity {
	pub := seed.PublicKey()
	return &Identity{
		Seed:      seed,
		PublicKey: pub,
		KeyID:     domain.NewKeyID(pub),
		Created:   created,
	}
}

// KeyManager loads the signing seed from disk, generating one if it doesn't exist.
type KeyManager struct {
	signingKeyPath string
	publicKeyPath  string
	mu             sync.RWMutex
	identity       *Identity // Cached after Load
}

// NewKeyManager creates a KeyManager for the given signing and public key files.
func NewKeyManager(signingKeyPath, publicKeyPath string) *KeyManager {
	return &KeyManager{
		signingKeyPath: signingKeyPath,
		publicKeyPath:  publicKeyPath,
	}
}

// SigningKeyPath returns the path of the secret seed file.
func (km *KeyManager) SigningKeyPath() string {
	return km.signingKeyPath
}

// PublicKeyPath returns the path of the public key file.
func (km *KeyManager) PublicKeyPath() string {
	return km.publicKeyPath
}

// Load reads the seed from disk, generating and persisting a new one if the
// signing key file does not exist. A file that does not decode to exactly
// 32 bytes is ErrMalformedKey.
func (km *KeyManager) Load(ctx context.Context) (*Identity, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if km.identity != nil {
		return km.identity, nil
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "keystore").Logger()

	data, err := os.ReadFile(km.signingKeyPath)
	if os.IsNotExist(err) {
		id, genErr := km.generate()
		if genErr != nil {
			return nil, genErr
		}
		logger.Debug().
			Str("key_id", id.KeyID.String()).
			Str("signing_key_path", km.signingKeyPath).
			Str("public_key_path", km.publicKeyPath).
			Msg("generated signing key")
		km.identity = id
		return id, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: reading signing key: %w", errors.ErrIOFailure, err)
	}

	seed, err := domain.ParseSeed(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", km.signingKeyPath)
	}

	km.identity = newIdentity(seed, false)
	logger.Debug().Str("key_id", km.identity.KeyID.String()).Msg("loaded signing key")
	return km.identity, nil
}

// generate creates a new seed and writes the seed and public key files.
func (km *KeyManager) generate() (*Identity, error) {
	seed := make(domain.Seed, domain.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generating seed: %w", err)
	}
	id := newIdentity(seed, true)

	if err := os.MkdirAll(filepath.Dir(km.signingKeyPath), constants.KeyDirMode); err != nil {
		return nil, fmt.Errorf("%w: creating key directory: %w", errors.ErrIOFailure, err)
	}

	// O_EXCL so a racing run cannot have its seed overwritten.
	f, err := os.OpenFile(km.signingKeyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.SecretFileMode)
	if err != nil {
		return nil, fmt.Errorf("%w: saving signing key: %w", errors.ErrIOFailure, err)
	}
	if _, err := f.WriteString(seed.Encode()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: saving signing key: %w", errors.ErrIOFailure, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: saving signing key: %w", errors.ErrIOFailure, err)
	}

	// The seed is only kept once its public key is on disk; otherwise the
	// next run would load it and never write public.key.
	if err := km.writePublicKey(id); err != nil {
		if rmErr := os.Remove(km.signingKeyPath); rmErr != nil {
			return nil, fmt.Errorf("%w (removing signing key: %w)", err, rmErr)
		}
		return nil, err
	}

	return id, nil
}

func (km *KeyManager) writePublicKey(id *Identity) error {
	if err := os.MkdirAll(filepath.Dir(km.publicKeyPath), constants.KeyDirMode); err != nil {
		return fmt.Errorf("%w: creating public key directory: %w", errors.ErrIOFailure, err)
	}
	if err := os.WriteFile(km.publicKeyPath, []byte(id.EncodedPublicKey()), constants.PublicFileMode); err != nil {
		return fmt.Errorf("%w: saving public key: %w", errors.ErrIOFailure, err)
	}
	return nil
}

// NewSigner creates a Signer using the loaded key.
func (km *KeyManager) NewSigner() (*Signer, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.identity == nil {
		return nil, errors.ErrKeyNotLoaded
	}
	return NewSigner(km.identity.Seed)
}

// NewVerifier creates a Verifier for the loaded public key.
func (km *KeyManager) NewVerifier() (*Verifier, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.identity == nil {
		return nil, errors.ErrKeyNotLoaded
	}
	return NewVerifier(km.identity.PublicKey)
}
