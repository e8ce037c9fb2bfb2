// Package medragcmder
package medragcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/medrag/cmd/medrag/auth"
	configcmder "github.com/papercomputeco/medrag/cmd/medrag/config"
	ingestcmder "github.com/papercomputeco/medrag/cmd/medrag/ingest"
	initcmder "github.com/papercomputeco/medrag/cmd/medrag/init"
	querycmder "github.com/papercomputeco/medrag/cmd/medrag/query"
	servecmder "github.com/papercomputeco/medrag/cmd/medrag/serve"
	versioncmder "github.com/papercomputeco/medrag/cmd/version"
)

const medragLongDesc string = `medrag answers questions about one medical file at a time.

Text notes, scans and recordings are ingested into a vector store. Queries are
answered from the units of a single target file, in a report written for a
doctor or for a patient.

Get started:
  medrag init                  Create ./.medrag with a provider preset
  medrag ingest                Ingest files under data/raw
  medrag query                 Ask a question about one file
  medrag serve                 Run the HTTP and MCP API

Configuration:
  medrag config list           Show the effective configuration
  medrag config set <k> <v>    Persist a setting in .medrag/config.toml
  medrag auth <provider>       Store a hosted provider API key`

const medragShortDesc string = "medrag - targeted multimodal RAG for medical files"

func NewMedragCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "medrag",
		Short:        medragShortDesc,
		Long:         medragLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .medrag directory (default: ./.medrag or ~/.medrag)")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
