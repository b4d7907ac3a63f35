package cli

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/configseal/internal/errors"
)

func TestGlobalFlags_Defaults(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	require.NoError(t, cmd.ParseFlags(nil))
	assert.Equal(t, OutputText, flags.Output)
	assert.False(t, flags.Verbose)
	assert.False(t, flags.Quiet)
}

func TestBindGlobalFlags(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags([]string{"-o", "json", "-v"}))

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, cmd))
	assert.Equal(t, "json", v.GetString("output"))
	assert.True(t, v.GetBool("verbose"))
}

func TestBindGlobalFlags_Env(t *testing.T) {
	t.Setenv("CONFIGSEAL_FORMAT", "json")
	t.Setenv("CONFIGSEAL_QUIET", "true")
	t.Setenv("CONFIGSEAL_OUTPUT", "envelope.json")

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(nil))

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, cmd))
	assert.Equal(t, "json", v.GetString("output"))
	assert.True(t, v.GetBool("quiet"))
	assert.False(t, v.GetBool("verbose"))
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid input", fmt.Errorf("reading input.json: %w", errors.ErrInvalidInput), ExitInvalidInput},
		{"invalid output format", errors.ErrInvalidOutputFormat, ExitInvalidInput},
		{"invalid canonical mode", errors.Wrap(errors.ErrInvalidCanonicalMode, "canonical.mode"), ExitInvalidInput},
		{"empty config value", errors.Wrap(errors.ErrEmptyValue, "input"), ExitInvalidInput},
		{"explicit exit code 2", errors.NewExitCode2Error(fmt.Errorf("bad")), ExitInvalidInput}, //nolint:err113 // test error
		{"unknown flag", fmt.Errorf("unknown flag: --nope"), ExitInvalidInput},                    //nolint:err113 // test error
		{"flag group", fmt.Errorf("if any flags in the group [verbose quiet] are set none of the others can be"), ExitInvalidInput}, //nolint:err113 // test error
		{"malformed key", errors.ErrMalformedKey, ExitError},
		{"self-test", errors.ErrSelfTestFailed, ExitError},
		{"io failure", errors.ErrIOFailure, ExitError},
		{"signature mismatch", errors.ErrSignatureMismatch, ExitError},
		{"output locked", errors.ErrOutputLocked, ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}
