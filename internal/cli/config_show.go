package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/configseal/internal/config"
)

// configFileStatus describes one config file layer.
type configFileStatus struct {
	Path   string `json:"path" yaml:"path"`
	Loaded bool   `json:"loaded" yaml:"loaded"`
}

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, state *appState) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective configseal configuration as YAML.

Values are resolved in this order (later wins):
  - built-in defaults
  - global config ($CONFIGSEAL_HOME/config.yaml, default ~/.configseal/config.yaml)
  - project config (.configseal.yaml in the working directory)
  - CONFIGSEAL_* environment variables, e.g. CONFIGSEAL_KEYS_SIGNING_KEY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, state)
		},
	}

	configCmd.AddCommand(showCmd)
	root.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, state *appState) error {
	cfg, err := state.resolve(nil)
	if err != nil {
		return err
	}

	if state.flags.Output == OutputJSON {
		doc, err := configDocument(cfg)
		if err != nil {
			return err
		}
		return state.output(cmd).JSON(map[string]any{
			"config":  doc,
			"sources": configSources(),
		})
	}

	return writeConfigYAML(cmd.OutOrStdout(), cfg)
}

// writeConfigYAML prints the config file layers as comments followed by cfg.
func writeConfigYAML(w io.Writer, cfg *config.Config) error {
	for name, src := range orderedSources(configSources()) {
		state := "not found"
		if src.Loaded {
			state = "loaded"
		}
		if _, err := fmt.Fprintf(w, "# %s config: %s (%s)\n", name, src.Path, state); err != nil {
			return err
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// configDocument converts cfg to a generic document through its YAML form,
// so JSON output uses the same keys and duration strings as YAML.
func configDocument(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return doc, nil
}

func configSources() map[string]configFileStatus {
	sources := map[string]configFileStatus{}
	if path, err := config.GlobalConfigPath(); err == nil {
		sources["global"] = configFileStatus{Path: path, Loaded: fileExists(path)}
	}
	project := config.ProjectConfigPath()
	sources["project"] = configFileStatus{Path: project, Loaded: fileExists(project)}
	return sources
}

// orderedSources yields the layers lowest precedence first.
func orderedSources(sources map[string]configFileStatus) func(yield func(string, configFileStatus) bool) {
	return func(yield func(string, configFileStatus) bool) {
		for _, name := range []string{"global", "project"} {
			src, ok := sources[name]
			if !ok {
				continue
			}
			if !yield(name, src) {
				return
			}
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
