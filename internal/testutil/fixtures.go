package testutil

import (
	"os"
	"testing"
)

// Known answers for the all-zero 32 byte seed.
const (
	// ZeroSeedB64 is the zero seed as stored in a signing key file.
	ZeroSeedB64 = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

	// ZeroSeedPublicKeyHex is its Ed25519 public key in hex.
	ZeroSeedPublicKeyHex = "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29"

	// ZeroSeedPublicKeyB64 is its public key as stored in a public key file.
	ZeroSeedPublicKeyB64 = "O2onvM62pC1io6jQKm8Nc2UyFXcd4kOmOsBIoYtZ2ik="

	// ZeroSeedKeyID is the key id derived from ZeroSeedPublicKeyHex.
	ZeroSeedKeyID = "139E3940"
)

// ZeroSeed returns a fresh all-zero seed.
func ZeroSeed() []byte {
	return make([]byte, 32)
}

// WriteFile writes content to path with owner-only permissions or fails the test.
func WriteFile(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("writing %s: %v", path, err)
	}
}

// FailingWriter is an io.Writer whose every write fails with ErrMockDiskFull.
type FailingWriter struct{}

// Write implements io.Writer.
func (FailingWriter) Write([]byte) (int, error) {
	return 0, ErrMockDiskFull
}
