// Package pipeline runs the sign and verify flows end to end.
//
// A sign run loads (or creates) the signing identity, self-tests the signing
// primitive, canonicalizes the input, signs it and writes the envelope. The
// output file is only opened after every earlier stage has succeeded.
//
// Import rules:
//   - CAN import: internal/canonical, internal/clock, internal/config,
//     internal/crypto/..., internal/ctxutil, internal/domain,
//     internal/envelope, internal/errors, internal/tui
//   - MUST NOT import: internal/cli
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/configseal/internal/canonical"
	"github.com/mrz1836/configseal/internal/clock"
	"github.com/mrz1836/configseal/internal/config"
	"github.com/mrz1836/configseal/internal/crypto/native"
	"github.com/mrz1836/configseal/internal/crypto/selftest"
	"github.com/mrz1836/configseal/internal/ctxutil"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/envelope"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/tui"
)

// Result describes a completed sign run.
type Result struct {
	KeyID        domain.KeyID `json:"key_id"`
	PublicKey    string       `json:"public_key"`
	Created      bool         `json:"created"`
	Timestamp    uint64       `json:"ts"`
	Canonical    string       `json:"canonical"`
	BytesWritten int          `json:"bytes_written"`
	OutputPath   string       `json:"output"`
}

// VerifyResult describes a successfully verified envelope.
type VerifyResult struct {
	KeyID        domain.KeyID `json:"key_id"`
	Timestamp    uint64       `json:"ts"`
	EnvelopePath string       `json:"envelope"`
	Signatures   int          `json:"signatures"`
}

// Pipeline wires the signing components for one configuration.
type Pipeline struct {
	cfg   *config.Config
	clock clock.Clock
	keys  *native.KeyManager
	out   tui.Output
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock the signing timestamp is read from.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithKeyManager replaces the key manager built from cfg.Keys.
func WithKeyManager(km *native.KeyManager) Option {
	return func(p *Pipeline) {
		p.keys = km
	}
}

// WithOutput sets where operator-facing notices are printed.
func WithOutput(out tui.Output) Option {
	return func(p *Pipeline) {
		p.out = out
	}
}

// New creates a Pipeline for cfg. Without options it uses the system clock,
// the key files named in cfg and discards console notices.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:   cfg,
		clock: clock.RealClock{},
		out:   tui.NewOutput(io.Discard, tui.FormatJSON),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.keys == nil {
		p.keys = native.NewKeyManager(cfg.Keys.SigningKey, cfg.Keys.PublicKey)
	}
	return p
}

// KeyManager returns the key manager the pipeline signs with.
func (p *Pipeline) KeyManager() *native.KeyManager {
	return p.keys
}

// Run executes the sign flow and returns what was written. The timestamp is
// read from the clock before anything else happens.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	// One timestamp per run, shared by the signature and the envelope.
	ts := clock.UnixSeconds(p.clock)

	if err := config.Validate(p.cfg); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("component", "pipeline").Logger()

	canon, err := canonical.New(canonical.Mode(p.cfg.Canonical.Mode))
	if err != nil {
		return nil, err
	}

	id, err := p.Identity(ctx)
	if err != nil {
		return nil, err
	}

	sc, err := domain.NewSigningContext(id.Seed, ts)
	if err != nil {
		return nil, err
	}
	signer, err := p.keys.NewSigner()
	if err != nil {
		return nil, err
	}
	verifier, err := p.keys.NewVerifier()
	if err != nil {
		return nil, err
	}

	if err := ctxutil.Stage(ctx, "self-test"); err != nil {
		return nil, err
	}
	if err := selftest.Run(ctx, signer, verifier); err != nil {
		return nil, err
	}
	logger.Debug().Str("key_id", sc.KeyID.String()).Msg("self-test passed")

	if err := ctxutil.Stage(ctx, "read input"); err != nil {
		return nil, err
	}
	input, err := os.ReadFile(p.cfg.Input) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errors.ErrInvalidInput, p.cfg.Input, err)
	}

	payload, err := canon.Canonicalize(input)
	if err != nil {
		return nil, errors.Wrapf(err, "canonicalizing %s", p.cfg.Input)
	}

	logger.Info().
		Str("key_id", sc.KeyID.String()).
		Uint64("ts", sc.Timestamp).
		Str("canonical", string(canon.Mode())).
		Msg("signing with key")

	env, err := envelope.Build(ctx, payload, sc.Timestamp, signer)
	if err != nil {
		return nil, err
	}
	data, err := envelope.Marshal(env)
	if err != nil {
		return nil, err
	}

	if err := ctxutil.Stage(ctx, "write output"); err != nil {
		return nil, err
	}
	n, err := envelope.Write(p.cfg.Output, data)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("bytes", n).Str("output", p.cfg.Output).Msg("envelope written")

	return &Result{
		KeyID:        sc.KeyID,
		PublicKey:    sc.EncodedPublicKey(),
		Created:      id.Created,
		Timestamp:    sc.Timestamp,
		Canonical:    string(canon.Mode()),
		BytesWritten: n,
		OutputPath:   p.cfg.Output,
	}, nil
}

// Identity loads or creates the signing identity and announces a newly
// generated one on the console.
func (p *Pipeline) Identity(ctx context.Context) (*native.Identity, error) {
	if err := ctxutil.Stage(ctx, "load signing key"); err != nil {
		return nil, err
	}
	id, err := p.keys.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id.Created {
		p.out.Warning(fmt.Sprintf("Generated a new signing key in %s", p.keys.SigningKeyPath()))
		p.out.Field("Key ID", id.KeyID.String())
		p.out.Field("Public key", id.EncodedPublicKey())
		p.out.Field("Public key file", p.keys.PublicKeyPath())
	}
	return id, nil
}

// Verify checks the envelope at cfg.Output against the public key file at
// cfg.Keys.PublicKey.
func (p *Pipeline) Verify(ctx context.Context) (*VerifyResult, error) {
	if err := config.Validate(p.cfg); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("component", "pipeline").Logger()

	if err := ctxutil.Stage(ctx, "read public key"); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p.cfg.Keys.PublicKey) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("%w: reading public key: %w", errors.ErrIOFailure, err)
	}
	pub, err := native.DecodePublicKey(string(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", p.cfg.Keys.PublicKey)
	}
	verifier, err := native.NewVerifier(pub)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Read(p.cfg.Output)
	if err != nil {
		return nil, err
	}
	if err := envelope.Verify(ctx, env, verifier); err != nil {
		return nil, err
	}

	logger.Info().
		Str("key_id", verifier.KeyID().String()).
		Uint64("ts", env.TS).
		Str("envelope", p.cfg.Output).
		Msg("envelope verified")

	return &VerifyResult{
		KeyID:        verifier.KeyID(),
		Timestamp:    env.TS,
		EnvelopePath: p.cfg.Output,
		Signatures:   len(env.Sig),
	}, nil
}
