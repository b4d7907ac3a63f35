package config

import (
	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - key, input and output paths must not be empty
//   - canonical.mode must be "ordered" or "jcs"
//   - timeout must be positive
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	paths := []struct {
		key   string
		value string
	}{
		{"keys.signing_key", cfg.Keys.SigningKey},
		{"keys.public_key", cfg.Keys.PublicKey},
		{"input", cfg.Input},
		{"output", cfg.Output},
	}
	for _, p := range paths {
		if p.value == "" {
			return errors.Wrapf(errors.ErrEmptyValue, "%s must not be empty", p.key)
		}
	}

	switch cfg.Canonical.Mode {
	case constants.CanonicalOrdered, constants.CanonicalJCS:
	default:
		return errors.Wrapf(errors.ErrInvalidCanonicalMode,
			"canonical.mode must be %q or %q, got %q",
			constants.CanonicalOrdered, constants.CanonicalJCS, cfg.Canonical.Mode)
	}

	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrEmptyValue, "timeout must be positive, got %s", cfg.Timeout)
	}

	return nil
}
