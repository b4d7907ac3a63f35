package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/configseal/internal/config"
	"github.com/mrz1836/configseal/internal/pipeline"
)

// VerifyFlags holds flags specific to the verify command.
type VerifyFlags struct {
	// Envelope is the signed envelope to check.
	Envelope string
	// PublicKey is the public key file to verify with.
	PublicKey string
}

// AddVerifyCommand adds the verify command to the root command.
func AddVerifyCommand(root *cobra.Command, state *appState) {
	flags := &VerifyFlags{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signed envelope",
		Long: `Verify a signed envelope against a public key.

The signature entry for the public key's key id is checked over the envelope's
ts and config fields exactly as stored. A missing entry, undecodable signature
or mismatch exits non-zero.

Examples:
  configseal verify
  configseal verify --envelope app.signed.json --public-key release.pub`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.Context(), cmd, state, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Envelope, "envelope", "", "signed envelope to verify (default \"config.json\")")
	cmd.Flags().StringVar(&flags.PublicKey, "public-key", "", "public key file (default \"public.key\")")

	root.AddCommand(cmd)
}

func runVerify(ctx context.Context, cmd *cobra.Command, state *appState, flags *VerifyFlags) error {
	cfg, err := state.resolve(&config.Config{
		Keys:   config.KeysConfig{PublicKey: flags.PublicKey},
		Output: flags.Envelope,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	out := state.output(cmd)
	res, err := pipeline.New(cfg, pipeline.WithOutput(out)).Verify(ctx)
	if err != nil {
		return err
	}

	if state.flags.Output == OutputJSON {
		return out.JSON(res)
	}
	out.Success(fmt.Sprintf("%s verified with key %s", res.EnvelopePath, res.KeyID))
	out.Field("Timestamp", fmt.Sprintf("%d", res.Timestamp))
	return nil
}
