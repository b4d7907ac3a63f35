package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/errors"
)

// GlobalConfigDir returns the configseal home directory.
// CONFIGSEAL_HOME wins when set, otherwise it is ~/.configseal.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	if dir := os.Getenv(constants.HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.ConfigSealHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return constants.ProjectConfigName
}

// LogDir returns the directory for the CLI log file.
func LogDir(cfg *Config) (string, error) {
	if cfg != nil && cfg.Log.Dir != "" {
		return cfg.Log.Dir, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}
