package selftest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/configseal/internal/crypto/native"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/testutil"
)

// fakeSigner returns a fixed signature or error.
type fakeSigner struct {
	sig []byte
	err error
}

func (f fakeSigner) Sign(context.Context, []byte, uint64) ([]byte, error) { return f.sig, f.err }
func (f fakeSigner) KeyID() domain.KeyID                                  { return "FFFFFFFF" }

// fakeVerifier answers Verify through fn.
type fakeVerifier struct {
	fn func(message string, ts uint64) (bool, error)
}

func (f fakeVerifier) Verify(_ context.Context, message []byte, ts uint64, _ []byte) (bool, error) {
	return f.fn(string(message), ts)
}

func TestRun_RealKey(t *testing.T) {
	seed := make(domain.Seed, domain.SeedSize)
	signer, err := native.NewSigner(seed)
	require.NoError(t, err)
	verifier, err := native.NewVerifier(signer.PublicKey())
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), signer, verifier))
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		signer   fakeSigner
		verify   func(string, uint64) (bool, error)
		contains string
	}{
		{
			name:     "signer error",
			signer:   fakeSigner{err: testutil.ErrMockSign},
			verify:   func(string, uint64) (bool, error) { return true, nil },
			contains: "signing self-test message",
		},
		{
			name:     "valid signature rejected",
			signer:   fakeSigner{sig: []byte("sig")},
			verify:   func(string, uint64) (bool, error) { return false, nil },
			contains: "verify original message",
		},
		{
			name:   "tampered message accepted",
			signer: fakeSigner{sig: []byte("sig")},
			verify: func(m string, _ uint64) (bool, error) {
				return true, nil
			},
			contains: "reject altered message",
		},
		{
			name:   "tampered timestamp accepted",
			signer: fakeSigner{sig: []byte("sig")},
			verify: func(m string, _ uint64) (bool, error) {
				return m == Message, nil
			},
			contains: "reject altered timestamp",
		},
		{
			name:   "verifier error",
			signer: fakeSigner{sig: []byte("sig")},
			verify: func(string, uint64) (bool, error) {
				return false, errors.ErrMalformedInput
			},
			contains: "verify original message",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Run(context.Background(), tc.signer, fakeVerifier{fn: tc.verify})
			require.ErrorIs(t, err, errors.ErrSelfTestFailed)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestRun_MismatchedKeyPair(t *testing.T) {
	a := make(domain.Seed, domain.SeedSize)
	b := make(domain.Seed, domain.SeedSize)
	b[0] = 1

	signer, err := native.NewSigner(a)
	require.NoError(t, err)
	verifier, err := native.NewVerifier(b.PublicKey())
	require.NoError(t, err)

	err = Run(context.Background(), signer, verifier)
	require.ErrorIs(t, err, errors.ErrSelfTestFailed)
}
