// Package cli provides the command-line interface for configseal.
package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/configseal/internal/config"
	"github.com/mrz1836/configseal/internal/errors"
	"github.com/mrz1836/configseal/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// appState carries what PersistentPreRunE resolved to the subcommands.
type appState struct {
	flags *GlobalFlags
	cfg   *config.Config
}

// resolve returns a copy of the loaded configuration with overrides applied.
func (s *appState) resolve(overrides *config.Config) (*config.Config, error) {
	if s.cfg == nil {
		return nil, errors.ErrConfigNil
	}
	cfg := *s.cfg
	if err := config.ApplyOverrides(&cfg, overrides); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// output returns the console output selected by --output.
func (s *appState) output(cmd *cobra.Command) tui.Output {
	return tui.NewOutput(cmd.OutOrStdout(), s.flags.Output)
}

// newRootCmd creates the root command for the configseal CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()
	state := &appState{flags: flags}

	cmd := &cobra.Command{
		Use:   "configseal",
		Short: "Sign JSON configuration with Ed25519",
		Long: `configseal signs a JSON configuration document with a detached Ed25519
signature and writes a self-describing envelope:

  {"ts": <unix seconds>, "config": "<canonical JSON>", "sig": {"<key id>": "<base64>"}}

The signing key is created on first use. Every run self-tests the signing
primitive before the real signature is produced.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			flags.Output = v.GetString("output")
			flags.Verbose = v.GetBool("verbose")
			flags.Quiet = v.GetBool("quiet")

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			tui.CheckNoColor()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// Config is loaded with a console-only logger; the file sink
			// location is itself configurable.
			bootstrap := InitLoggerWithWriter(flags.Verbose, flags.Quiet, selectOutput())
			cfg, err := config.Load(bootstrap.WithContext(ctx))
			if err != nil {
				return err
			}
			state.cfg = cfg

			logDir := ""
			if cfg.Log.File {
				if logDir, err = config.LogDir(cfg); err != nil {
					bootstrap.Warn().Err(err).Msg("file logging disabled")
					logDir = ""
				}
			}

			logger := InitLogger(flags.Verbose, flags.Quiet, logDir).
				With().Str("run_id", uuid.NewString()).Logger()

			cmd.SetContext(logger.WithContext(ctx))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddSignCommand(cmd, state)
	AddVerifyCommand(cmd, state)
	AddKeyCommand(cmd, state)
	AddConfigCommand(cmd, state)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// Errors are printed to stderr in the selected output format and returned
// so the caller can map them to an exit code.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	return run(ctx, cmd, flags)
}

func run(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags) error {
	defer CloseLogFile()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		format := flags.Output
		if !IsValidOutputFormat(format) {
			format = OutputText
		}
		tui.NewOutput(cmd.ErrOrStderr(), format).Error(err)
	}
	return err
}
