package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/configseal/internal/config"
	"github.com/mrz1836/configseal/internal/domain"
	"github.com/mrz1836/configseal/internal/pipeline"
)

// keyShowResult is the JSON shape of key show.
type keyShowResult struct {
	KeyID          domain.KeyID `json:"key_id"`
	PublicKey      string       `json:"public_key"`
	Created        bool         `json:"created"`
	SigningKeyPath string       `json:"signing_key_path"`
	PublicKeyPath  string       `json:"public_key_path"`
}

// AddKeyCommand adds the key command group to the root command.
func AddKeyCommand(root *cobra.Command, state *appState) {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect the signing identity",
	}

	flags := &keyFlags{}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the key id and public key",
		Long: `Load the signing key (creating it if missing) and print its key id and
public key. The seed itself is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeyShow(cmd.Context(), cmd, state, flags)
		},
	}
	addKeyFlags(showCmd, flags)

	keyCmd.AddCommand(showCmd)
	root.AddCommand(keyCmd)
}

func runKeyShow(ctx context.Context, cmd *cobra.Command, state *appState, flags *keyFlags) error {
	cfg, err := state.resolve(&config.Config{Keys: flags.overrides()})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	out := state.output(cmd)
	p := pipeline.New(cfg, pipeline.WithOutput(out))
	id, err := p.Identity(ctx)
	if err != nil {
		return err
	}

	res := keyShowResult{
		KeyID:          id.KeyID,
		PublicKey:      id.EncodedPublicKey(),
		Created:        id.Created,
		SigningKeyPath: p.KeyManager().SigningKeyPath(),
		PublicKeyPath:  p.KeyManager().PublicKeyPath(),
	}

	if state.flags.Output == OutputJSON {
		return out.JSON(res)
	}
	if !id.Created {
		out.Field("Key ID", res.KeyID.String())
		out.Field("Public key", res.PublicKey)
		out.Field("Signing key file", res.SigningKeyPath)
	}
	return nil
}
