package config

import (
	"context"
	stderrors "errors"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/logging"
)

// newViperInstance creates a new Viper instance with the CONFIGSEAL_ env
// prefix, key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
// defaults, the global config file, the project config file, then CONFIGSEAL_*
// environment variables. CLI flags are applied afterwards with ApplyOverrides.
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	globalPath, _ := getGlobalConfigPathIfExists()

	projectPath := ProjectConfigPath()
	if !fileExists(projectPath) {
		projectPath = ""
	}

	return LoadFromPaths(ctx, projectPath, globalPath)
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if !fileExists(globalConfigPath) {
		return "", false
	}
	return globalConfigPath, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyOverrides merges the non-zero values of overrides into cfg and
// re-validates it. A nil overrides only validates.
func ApplyOverrides(cfg, overrides *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}
	if err := Validate(cfg); err != nil {
		return errors.Wrap(err, "invalid configuration after overrides")
	}
	return nil
}

// LoadFromPaths loads configuration from specific file paths. The project
// file is merged over the global one. Either path can be empty, or name a
// missing file, to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config file %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config file %s", projectConfigPath)
		}
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logSettings(ctx, v)
	return cfg, nil
}

// logSettings writes every resolved setting at debug level. Values of
// secret-looking keys are redacted, since config files and env may carry
// more than configseal reads.
func logSettings(ctx context.Context, v *viper.Viper) {
	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	event := logger.Debug()
	if event == nil {
		return
	}

	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		event = event.Str(key, logging.RedactIfSensitive(key, v.GetString(key)))
	}
	event.Str("config_file", v.ConfigFileUsed()).Msg("configuration loaded")
}

// setDefaults configures all default values on the Viper instance.
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("keys.signing_key", def.Keys.SigningKey)
	v.SetDefault("keys.public_key", def.Keys.PublicKey)
	v.SetDefault("input", def.Input)
	v.SetDefault("output", def.Output)
	v.SetDefault("canonical.mode", def.Canonical.Mode)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.dir", def.Log.Dir)
}

// applyOverrides merges non-zero override values into the config.
//
// Log.File is a bool and cannot be overridden to false here; the CLI sets it
// directly when its flag changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Keys.SigningKey != "" {
		cfg.Keys.SigningKey = overrides.Keys.SigningKey
	}
	if overrides.Keys.PublicKey != "" {
		cfg.Keys.PublicKey = overrides.Keys.PublicKey
	}
	if overrides.Input != "" {
		cfg.Input = overrides.Input
	}
	if overrides.Output != "" {
		cfg.Output = overrides.Output
	}
	if overrides.Canonical.Mode != "" {
		cfg.Canonical.Mode = overrides.Canonical.Mode
	}
	if overrides.Timeout != 0 {
		cfg.Timeout = overrides.Timeout
	}
	if overrides.Log.Dir != "" {
		cfg.Log.Dir = overrides.Log.Dir
	}
}

// viperDecoderOption configures mapstructure to decode durations from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
