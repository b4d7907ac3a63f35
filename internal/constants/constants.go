// Package constants provides centralized constant values used throughout configseal.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

// Default file names for a signing run, relative to the working directory.
const (
	// SigningKeyFileName holds the base64 encoded 32 byte signing seed.
	SigningKeyFileName = "signing.key"

	// PublicKeyFileName holds the base64 encoded Ed25519 public key.
	// It is written only when a new identity is generated.
	PublicKeyFileName = "public.key"

	// InputFileName is the JSON document to sign.
	InputFileName = "input.json"

	// OutputFileName is the signed envelope.
	OutputFileName = "config.json"
)

// Directory and configuration names.
const (
	// ConfigSealHome is the hidden directory name in the user's home directory
	// that holds the global config and logs.
	ConfigSealHome = ".configseal"

	// HomeEnvVar overrides the location of ConfigSealHome.
	HomeEnvVar = "CONFIGSEAL_HOME"

	// EnvPrefix is the prefix for configuration environment variables.
	EnvPrefix = "CONFIGSEAL"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// GlobalConfigName is the name of the global configuration file.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the name of the project configuration file.
	ProjectConfigName = ".configseal.yaml"

	// CLILogFileName is the name of the CLI log file inside LogsDir.
	CLILogFileName = "configseal.log"
)

// File permissions.
const (
	// SecretFileMode restricts the signing key to its owner.
	SecretFileMode = 0o600

	// PublicFileMode is used for the public key and the output envelope.
	PublicFileMode = 0o644

	// KeyDirMode is used when creating missing key directories.
	KeyDirMode = 0o700
)

// Log rotation settings.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)

// Canonicalization modes.
const (
	// CanonicalOrdered keeps input key order and drops null fields.
	CanonicalOrdered = "ordered"

	// CanonicalJCS applies RFC 8785 on top of the ordered form.
	CanonicalJCS = "jcs"
)
