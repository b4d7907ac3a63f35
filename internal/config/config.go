// Package config provides configuration management for configseal with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (applied with ApplyOverrides)
//  2. Environment variables (CONFIGSEAL_* prefix)
//  3. Project config (.configseal.yaml in the working directory)
//  4. Global config ($CONFIGSEAL_HOME/config.yaml, default ~/.configseal/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants, internal/errors and
// internal/logging, but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for configseal.
type Config struct {
	// Keys locates the signing identity on disk.
	Keys KeysConfig `yaml:"keys" mapstructure:"keys"`

	// Input is the JSON document to sign.
	// Default: "input.json"
	Input string `yaml:"input" mapstructure:"input"`

	// Output is where the signed envelope is written, and where verify reads it from.
	// Default: "config.json"
	Output string `yaml:"output" mapstructure:"output"`

	// Canonical controls how the input is canonicalized before signing.
	Canonical CanonicalConfig `yaml:"canonical" mapstructure:"canonical"`

	// Timeout bounds a whole sign or verify run.
	// Default: 30 seconds
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Log contains settings for the rotating log file.
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// KeysConfig holds the key file locations.
type KeysConfig struct {
	// SigningKey is the base64 seed file. It is created with mode 0600 when missing.
	// Default: "signing.key"
	SigningKey string `yaml:"signing_key" mapstructure:"signing_key"`

	// PublicKey is the base64 public key file. It is written when a new
	// identity is generated and read by verify.
	// Default: "public.key"
	PublicKey string `yaml:"public_key" mapstructure:"public_key"`
}

// CanonicalConfig selects the canonicalization mode.
type CanonicalConfig struct {
	// Mode is "ordered" (input key order, nulls dropped) or "jcs" (RFC 8785).
	// Default: "ordered"
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// LogConfig controls file logging.
type LogConfig struct {
	// File enables the rotating log file under the configseal home directory.
	// Default: true
	File bool `yaml:"file" mapstructure:"file"`

	// Dir overrides the directory holding configseal.log.
	// Default: "" (use $CONFIGSEAL_HOME/logs)
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
}
