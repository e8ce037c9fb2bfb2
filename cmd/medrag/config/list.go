package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .medrag/ directory. Use --effective to
include environment variable overrides and stored credentials. API keys are masked.

Examples:
  medrag config list
  medrag config list --effective`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, effective)
		},
	}

	cmd.Flags().BoolVar(&effective, "effective", false, "Apply environment overrides before listing")

	return cmd
}

func runList(w io.Writer, configDir string, effective bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "Using config file: %s\n\n", target)
	} else {
		fmt.Fprint(w, "No config file found. Using default config.\n\n")
	}

	value := cfger.GetConfigValue
	if effective {
		v, err := config.InitViper(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg := config.FromViper(v)
		if err := config.LoadCredentials(cfg, configDir); err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		value = func(key string) (string, error) { return config.Value(cfg, key) }
	}

	keys := config.ValidConfigKeys()

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	for _, key := range keys {
		val, err := value(key)
		if err != nil {
			return err
		}

		if val == "" {
			fmt.Fprintf(w, "%-*s = <not set>\n", maxLen, key)
		} else {
			fmt.Fprintf(w, "%-*s = %q\n", maxLen, key, display(key, val))
		}
	}

	return nil
}
