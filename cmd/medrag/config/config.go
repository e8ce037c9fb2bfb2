// Package configcmder provides the config command for managing persistent
// medrag configuration stored in the .medrag/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/config"
)

const configLongDesc string = `Manage persistent medrag configuration.

Configuration is stored as config.toml in the .medrag/ directory and provides
default values for command flags. Environment variables (MEDRAG_*, plus the
QDRANT_URL, GEMINI_API_KEY and ASSEMBLY_API_KEY names read from config/.env)
override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure, for example:
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.model, embedding.dimensions,
  llm.provider, llm.model, llm.caption_model,
  transcription.provider, ingest.raw_dir, query.top_k, api.listen

Use subcommands to get, set, or list configuration values:
  medrag config set <key> <value>    Set a configuration value
  medrag config get <key>            Get a configuration value
  medrag config list                 List all configuration values

Examples:
  medrag config set vector_store.provider chromem
  medrag config set llm.model gemini-2.5-flash
  medrag config get query.top_k
  medrag config list`

const configShortDesc string = "Manage persistent medrag configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// display masks credentials so they are not echoed to the terminal.
func display(key, value string) string {
	if value == "" || !config.IsSecretKey(key) {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
