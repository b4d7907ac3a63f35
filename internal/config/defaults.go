package config

import (
	"time"

	"github.com/mrz1836/configseal/internal/constants"
)

// DefaultTimeout bounds a single run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// DefaultConfig returns a new Config with the built-in defaults.
// The file names match the layout of a signing working directory.
func DefaultConfig() *Config {
	return &Config{
		Keys: KeysConfig{
			SigningKey: constants.SigningKeyFileName,
			PublicKey:  constants.PublicKeyFileName,
		},
		Input:  constants.InputFileName,
		Output: constants.OutputFileName,
		Canonical: CanonicalConfig{
			// Mode: "ordered" reproduces the byte layout existing verifiers expect.
			Mode: constants.CanonicalOrdered,
		},
		Timeout: DefaultTimeout,
		Log: LogConfig{
			File: true,
		},
	}
}
