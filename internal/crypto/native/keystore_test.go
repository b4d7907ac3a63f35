package native

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
)

func newTestKeyManager(t *testing.T) *KeyManager {
	t.Helper()
	dir := t.TempDir()
	return NewKeyManager(filepath.Join(dir, "signing.key"), filepath.Join(dir, "public.key"))
}

func TestNewKeyManager(t *testing.T) {
	km := NewKeyManager("a/signing.key", "b/public.key")

	require.NotNil(t, km)
	assert.Equal(t, "a/signing.key", km.SigningKeyPath())
	assert.Equal(t, "b/public.key", km.PublicKeyPath())
}

func TestKeyManager_Load(t *testing.T) {
	t.Run("generates new key if none exists", func(t *testing.T) {
		km := newTestKeyManager(t)

		id, err := km.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, id.Created)
		assert.Len(t, id.Seed, domain.SeedSize)

		data, err := os.ReadFile(km.SigningKeyPath())
		require.NoError(t, err)
		seed, err := domain.ParseSeed(string(data))
		require.NoError(t, err)
		assert.Equal(t, id.Seed, seed)

		pubData, err := os.ReadFile(km.PublicKeyPath())
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(id.PublicKey), string(pubData))
		assert.Equal(t, id.EncodedPublicKey(), string(pubData))
	})

	t.Run("signing key is owner-only", func(t *testing.T) {
		km := newTestKeyManager(t)

		_, err := km.Load(context.Background())
		require.NoError(t, err)

		info, err := os.Stat(km.SigningKeyPath())
		require.NoError(t, err)
		assert.Zero(t, info.Mode().Perm()&0o077)
	})

	t.Run("loads existing key from disk", func(t *testing.T) {
		km := newTestKeyManager(t)

		first, err := km.Load(context.Background())
		require.NoError(t, err)

		// New instance simulates a restart
		km2 := NewKeyManager(km.SigningKeyPath(), km.PublicKeyPath())
		second, err := km2.Load(context.Background())
		require.NoError(t, err)

		assert.False(t, second.Created)
		assert.Equal(t, first.Seed, second.Seed)
		assert.Equal(t, first.PublicKey, second.PublicKey)
		assert.Equal(t, first.KeyID, second.KeyID, "key id must survive restarts")
	})

	t.Run("public key is derived, not read", func(t *testing.T) {
		km := newTestKeyManager(t)
		first, err := km.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(km.PublicKeyPath(), []byte("garbage"), 0o600))

		second, err := NewKeyManager(km.SigningKeyPath(), km.PublicKeyPath()).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.PublicKey, second.PublicKey)

		data, err := os.ReadFile(km.PublicKeyPath())
		require.NoError(t, err)
		assert.Equal(t, "garbage", string(data), "public key file is only written on generation")
	})

	t.Run("accepts trailing whitespace", func(t *testing.T) {
		km := newTestKeyManager(t)
		seed := make(domain.Seed, domain.SeedSize)
		require.NoError(t, os.WriteFile(km.SigningKeyPath(), []byte(seed.Encode()+"\n"), 0o600))

		id, err := km.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, seed, id.Seed)
		assert.Equal(t, seed.PublicKey(), id.PublicKey)
	})

	t.Run("does not reload if key already loaded", func(t *testing.T) {
		km := newTestKeyManager(t)

		first, err := km.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, os.Remove(km.SigningKeyPath()))

		second, err := km.Load(context.Background())
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("returns error for short key", func(t *testing.T) {
		km := newTestKeyManager(t)
		short := base64.StdEncoding.EncodeToString(make([]byte, 16))
		require.NoError(t, os.WriteFile(km.SigningKeyPath(), []byte(short), 0o600))

		id, err := km.Load(context.Background())
		require.ErrorIs(t, err, errors.ErrMalformedKey)
		assert.Nil(t, id)

		_, err = km.NewSigner()
		require.ErrorIs(t, err, errors.ErrKeyNotLoaded)
	})

	t.Run("returns error for invalid base64", func(t *testing.T) {
		km := newTestKeyManager(t)
		require.NoError(t, os.WriteFile(km.SigningKeyPath(), []byte("not-valid-base64!!!"), 0o600))

		_, err := km.Load(context.Background())
		require.ErrorIs(t, err, errors.ErrMalformedKey)
	})

	t.Run("creates directory if it doesn't exist", func(t *testing.T) {
		dir := t.TempDir()
		km := NewKeyManager(filepath.Join(dir, "nested", "keys", "signing.key"), filepath.Join(dir, "pub", "public.key"))

		_, err := km.Load(context.Background())
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(dir, "nested", "keys"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.FileExists(t, km.PublicKeyPath())
	})

	t.Run("handles write error when saving new key", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		dir := t.TempDir()
		km := NewKeyManager(filepath.Join(dir, "signing.key"), filepath.Join(dir, "public.key"))

		require.NoError(t, os.Chmod(dir, 0o500)) //nolint:gosec // G302: intentionally testing error handling
		defer func() {
			_ = os.Chmod(dir, 0o700) //nolint:gosec // G302: cleanup after test
		}()

		_, err := km.Load(context.Background())
		require.ErrorIs(t, err, errors.ErrIOFailure)
		assert.Contains(t, err.Error(), "saving signing key")
	})

	t.Run("removes new seed when public key cannot be written", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o600))
		km := NewKeyManager(filepath.Join(dir, "signing.key"), filepath.Join(blocker, "public.key"))

		id, err := km.Load(context.Background())
		require.ErrorIs(t, err, errors.ErrIOFailure)
		assert.Contains(t, err.Error(), "creating public key directory")
		assert.Nil(t, id)
		assert.NoFileExists(t, km.SigningKeyPath())

		// A later run with a writable location starts from scratch.
		retry := NewKeyManager(km.SigningKeyPath(), filepath.Join(dir, "public.key"))
		id, err = retry.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, id.Created)
		assert.FileExists(t, retry.PublicKeyPath())
	})

	t.Run("handles file permission error when reading key", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		km := newTestKeyManager(t)
		seed := make(domain.Seed, domain.SeedSize)
		require.NoError(t, os.WriteFile(km.SigningKeyPath(), []byte(seed.Encode()), 0o600))

		require.NoError(t, os.Chmod(km.SigningKeyPath(), 0o000))
		defer func() {
			_ = os.Chmod(km.SigningKeyPath(), 0o600)
		}()

		_, err := km.Load(context.Background())
		require.ErrorIs(t, err, errors.ErrIOFailure)
		assert.Contains(t, err.Error(), "reading signing key")
	})
}

func TestKeyManager_NewSigner(t *testing.T) {
	t.Run("creates signer with loaded key", func(t *testing.T) {
		km := newTestKeyManager(t)
		id, err := km.Load(context.Background())
		require.NoError(t, err)

		signer, err := km.NewSigner()
		require.NoError(t, err)
		assert.Equal(t, id.KeyID, signer.KeyID())
		assert.Equal(t, id.PublicKey, signer.PublicKey())
	})

	t.Run("returns error when key not loaded", func(t *testing.T) {
		km := newTestKeyManager(t)

		signer, err := km.NewSigner()
		require.ErrorIs(t, err, errors.ErrKeyNotLoaded)
		assert.Nil(t, signer)

		verifier, err := km.NewVerifier()
		require.ErrorIs(t, err, errors.ErrKeyNotLoaded)
		assert.Nil(t, verifier)
	})

	t.Run("signer and verifier agree", func(t *testing.T) {
		ctx := context.Background()
		km := newTestKeyManager(t)
		_, err := km.Load(ctx)
		require.NoError(t, err)

		signer, err := km.NewSigner()
		require.NoError(t, err)
		verifier, err := km.NewVerifier()
		require.NoError(t, err)

		sig, err := signer.Sign(ctx, []byte("hello"), 42)
		require.NoError(t, err)
		assert.Len(t, sig, ed25519.SignatureSize)

		ok, err := verifier.Verify(ctx, []byte("hello"), 42, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestKeyManager_ConcurrentLoad(t *testing.T) {
	km := newTestKeyManager(t)

	var wg sync.WaitGroup
	ids := make([]*Identity, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = km.Load(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Same(t, ids[0], ids[i])
	}
}
