package crypto

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/configseal/internal/domain"
)

// echoSigner is a toy implementation used to pin the interface contract.
type echoSigner struct{}

func (echoSigner) Sign(_ context.Context, message []byte, ts uint64) ([]byte, error) {
	return append([]byte{byte(ts)}, message...), nil
}

func (echoSigner) KeyID() domain.KeyID { return "00000000" }

func (echoSigner) Verify(_ context.Context, message []byte, ts uint64, signature []byte) (bool, error) {
	return bytes.Equal(signature, append([]byte{byte(ts)}, message...)), nil
}

var (
	_ Signer   = echoSigner{}
	_ Verifier = echoSigner{}
)

func TestInterfaceContract(t *testing.T) {
	ctx := context.Background()
	s := echoSigner{}

	sig, err := s.Sign(ctx, []byte("msg"), 7)
	require.NoError(t, err)

	ok, err := s.Verify(ctx, []byte("msg"), 7, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, []byte("msg"), 8, sig)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.KeyID("00000000"), s.KeyID())
}
