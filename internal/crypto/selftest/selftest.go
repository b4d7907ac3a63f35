// Package selftest checks the signing primitive against known good and
// tampered inputs before it is trusted with a real payload.
package selftest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/configseal/internal/crypto"
	"github.com/mrz1836/configseal/internal/errors"
)

// Fixed self-test values. The counter stands in for a timestamp.
const (
	Message         = "Testing"
	TamperedMessage = "Testinx"
	Counter         = uint64(123)
	TamperedCounter = uint64(1234)
)

// check is one assertion of the self-test.
type check struct {
	name    string
	message string
	ts      uint64
	want    bool
}

func checks() []check {
	return []check{
		{name: "verify original message", message: Message, ts: Counter, want: true},
		{name: "reject altered message", message: TamperedMessage, ts: Counter, want: false},
		{name: "reject altered timestamp", message: Message, ts: TamperedCounter, want: false},
	}
}

// Run signs the self-test message once with signer and runs every check through
// verifier. Any failed check or unexpected error is ErrSelfTestFailed.
func Run(ctx context.Context, signer crypto.Signer, verifier crypto.Verifier) error {
	logger := zerolog.Ctx(ctx).With().Str("component", "selftest").Logger()

	sig, err := signer.Sign(ctx, []byte(Message), Counter)
	if err != nil {
		return fmt.Errorf("%w: signing self-test message: %w", errors.ErrSelfTestFailed, err)
	}

	for _, c := range checks() {
		ok, err := verifier.Verify(ctx, []byte(c.message), c.ts, sig)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", errors.ErrSelfTestFailed, c.name, err)
		}
		if ok != c.want {
			return fmt.Errorf("%w: %s: verify returned %t, expected %t", errors.ErrSelfTestFailed, c.name, ok, c.want)
		}
		logger.Debug().Str("check", c.name).Msg("self-test check passed")
	}

	return nil
}
