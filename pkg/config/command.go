package config

import (
	"github.com/spf13/cobra"
)

// LoadForCommand resolves the effective configuration for cmd. It reads the
// persistent --config-dir flag, initializes viper from that directory and
// binds the given registry flags so explicit flags win. Keys stored with
// `medrag auth` fill whatever api_key settings remain empty.
func LoadForCommand(cmd *cobra.Command, registryKeys []string) (*Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	BindRegisteredFlags(v, cmd, Flags, registryKeys)

	cfg := FromViper(v)
	if err := LoadCredentials(cfg, configDir); err != nil {
		return nil, err
	}
	return cfg, nil
}
