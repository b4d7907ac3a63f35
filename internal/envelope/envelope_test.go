package envelope

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/configseal/internal/crypto/native"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/flock"
)

func testSigner(t *testing.T, fill byte) *native.Signer {
	t.Helper()
	seed := make(domain.Seed, domain.SeedSize)
	for i := range seed {
		seed[i] = fill
	}
	s, err := native.NewSigner(seed)
	require.NoError(t, err)
	return s
}

func testVerifier(t *testing.T, s *native.Signer) *native.Verifier {
	t.Helper()
	v, err := native.NewVerifier(s.PublicKey())
	require.NoError(t, err)
	return v
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	signer := testSigner(t, 0)
	payload := []byte(`{"a":1,"c":"x"}`)

	env, err := Build(ctx, payload, 1700000000, signer)
	require.NoError(t, err)

	assert.Equal(t, uint64(1700000000), env.TS)
	assert.Equal(t, string(payload), env.Config)
	require.Len(t, env.Sig, 1)

	sig, err := base64.StdEncoding.DecodeString(env.Sig[signer.KeyID()])
	require.NoError(t, err)
	assert.Equal(t, native.Sign(make(domain.Seed, domain.SeedSize), 1700000000, payload), sig)
}

func TestBuild_MultipleSigners(t *testing.T) {
	a, b := testSigner(t, 1), testSigner(t, 2)

	env, err := Build(context.Background(), []byte(`{}`), 9, a, b)
	require.NoError(t, err)

	assert.Len(t, env.Sig, 2)
	assert.Contains(t, env.Sig, a.KeyID())
	assert.Contains(t, env.Sig, b.KeyID())
	require.NoError(t, Verify(context.Background(), env, testVerifier(t, a)))
	require.NoError(t, Verify(context.Background(), env, testVerifier(t, b)))
}

func TestBuild_NoSigners(t *testing.T) {
	_, err := Build(context.Background(), []byte(`{}`), 1)
	require.ErrorIs(t, err, errors.ErrNoSigners)
}

func TestMarshal(t *testing.T) {
	env := &domain.SignedEnvelope{
		TS:     123,
		Config: `{"q":"say \"hi\"","sum":"1+1","html":"<a>&"}`,
		Sig:    domain.SignatureRecord{"ABCD1234": "c2ln+/=="},
	}

	data, err := Marshal(env)
	require.NoError(t, err)

	want := "{\n" +
		"  \"ts\": 123,\n" +
		"  \"config\": \"{\\\"q\\\":\\\"say \\\\\\\"hi\\\\\\\"\\\",\\\"sum\\\":\\\"1+1\\\",\\\"html\\\":\\\"<a>&\\\"}\",\n" +
		"  \"sig\": {\n" +
		"    \"ABCD1234\": \"c2ln+/==\"\n" +
		"  }\n" +
		"}\n"
	assert.Equal(t, want, string(data))
	assert.NotContains(t, string(data), `\u0022`)
	assert.NotContains(t, string(data), `\u002b`)
	assert.NotContains(t, string(data), `\u003c`)
}

func TestMarshal_ParseRoundTrip(t *testing.T) {
	env, err := Build(context.Background(), []byte(`{"k":"v+w"}`), 77, testSigner(t, 3))
	require.NoError(t, err)

	data, err := Marshal(env)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Len(t, top, 3)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `nope`},
		{"unknown field", `{"ts":1,"config":"{}","sig":{},"extra":true}`},
		{"ts not a number", `{"ts":"1","config":"{}","sig":{}}`},
		{"negative ts", `{"ts":-1,"config":"{}","sig":{}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	n, err := Write(path, []byte("first, longer content\n"))
	require.NoError(t, err)
	assert.Equal(t, 22, n)

	n, err = Write(path, []byte("short\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(data), "previous content must be truncated")
}

func TestWrite_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o600))

	holder, err := os.OpenFile(path, os.O_RDWR, 0o600)
	require.NoError(t, err)
	defer func() { _ = holder.Close() }()

	release, err := flock.Hold(holder)
	require.NoError(t, err)
	defer release()

	_, err = Write(path, []byte("new"))
	require.ErrorIs(t, err, errors.ErrOutputLocked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestWrite_MissingDirectory(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "missing", "config.json"), []byte("x"))
	require.ErrorIs(t, err, errors.ErrIOFailure)
}

func TestRead(t *testing.T) {
	signer := testSigner(t, 4)
	env, err := Build(context.Background(), []byte(`{"a":true}`), 5, signer)
	require.NoError(t, err)
	data, err := Marshal(env)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	_, err = Write(path, data)
	require.NoError(t, err)

	read, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, env, read)

	_, err = Read(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, errors.ErrIOFailure)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	signer := testSigner(t, 5)
	verifier := testVerifier(t, signer)

	fresh := func(t *testing.T) *domain.SignedEnvelope {
		t.Helper()
		env, err := Build(ctx, []byte(`{"limit":10}`), 1000, signer)
		require.NoError(t, err)
		return env
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, Verify(ctx, fresh(t), verifier))
	})

	t.Run("tampered config", func(t *testing.T) {
		env := fresh(t)
		env.Config = strings.Replace(env.Config, "10", "11", 1)
		require.ErrorIs(t, Verify(ctx, env, verifier), errors.ErrSignatureMismatch)
	})

	t.Run("tampered timestamp", func(t *testing.T) {
		env := fresh(t)
		env.TS++
		require.ErrorIs(t, Verify(ctx, env, verifier), errors.ErrSignatureMismatch)
	})

	t.Run("unknown key", func(t *testing.T) {
		other := testVerifier(t, testSigner(t, 6))
		require.ErrorIs(t, Verify(ctx, fresh(t), other), errors.ErrUnknownKeyID)
	})

	t.Run("signature not base64", func(t *testing.T) {
		env := fresh(t)
		env.Sig[signer.KeyID()] = "!!!"
		require.ErrorIs(t, Verify(ctx, env, verifier), errors.ErrMalformedInput)
	})

	t.Run("signature wrong length", func(t *testing.T) {
		env := fresh(t)
		env.Sig[signer.KeyID()] = base64.StdEncoding.EncodeToString([]byte("short"))
		err := Verify(ctx, env, verifier)
		require.ErrorIs(t, err, errors.ErrMalformedInput)
		assert.Contains(t, err.Error(), "signature is 5 bytes")
	})
}
