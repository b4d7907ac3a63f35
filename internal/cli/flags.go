package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/errors"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = "text"
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
}

// AddGlobalFlags adds global flags to a command.
// These flags are available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// globalFlagEnv maps each global flag to its environment variable. The
// output format uses CONFIGSEAL_FORMAT because CONFIGSEAL_OUTPUT is the
// envelope path config key.
//
//nolint:gochecknoglobals // Fixed lookup table
var globalFlagEnv = map[string]string{
	"output":  constants.EnvPrefix + "_FORMAT",
	"verbose": constants.EnvPrefix + "_VERBOSE",
	"quiet":   constants.EnvPrefix + "_QUIET",
}

// BindGlobalFlags binds global flags to Viper so CONFIGSEAL_FORMAT,
// CONFIGSEAL_VERBOSE and CONFIGSEAL_QUIET are honored when the flag is unset.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	// Root().PersistentFlags() finds root flags even from a subcommand's hook.
	rootFlags := cmd.Root().PersistentFlags()

	for name, env := range globalFlagEnv {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
		if err := v.BindEnv(name, env); err != nil {
			return err
		}
	}

	return nil
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

// invalidInputErrors are sentinels caused by what the operator passed in.
//
//nolint:gochecknoglobals // Fixed lookup list
var invalidInputErrors = []error{
	errors.ErrInvalidInput,
	errors.ErrInvalidOutputFormat,
	errors.ErrInvalidCanonicalMode,
	errors.ErrEmptyValue,
}

// ExitCodeForError returns the appropriate exit code for the given error.
// Returns ExitSuccess (0) for nil errors, ExitInvalidInput (2) for user input
// errors (unreadable or non-object input, bad flags or config values), and
// ExitError (1) for everything else, including key, self-test and I/O failures.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.IsExitCode2Error(err) {
		return ExitInvalidInput
	}

	for _, target := range invalidInputErrors {
		if stderrors.Is(err, target) {
			return ExitInvalidInput
		}
	}

	// Cobra flag parsing errors carry no sentinel.
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// isInvalidInputError checks if an error message is one of Cobra's flag or
// argument validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts 0 arg(s)",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
