// Package servecmder provides the serve command, which runs the HTTP API and
// the MCP endpoint over the query pipeline.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/api"
	"github.com/papercomputeco/medrag/pkg/components"
	"github.com/papercomputeco/medrag/pkg/config"
	"github.com/papercomputeco/medrag/pkg/dotdir"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/storage"
)

type ServeCommander struct {
	cfg        *config.Config
	configDir  string
	debug      bool
	jsonLogs   bool
	disableMCP bool

	// flag targets, resolved through viper into cfg
	listen      string
	topK        uint
	storageProv string
	sqlitePath  string
	postgresDSN string
	vsProvider  string
	vsTarget    string
	collection  string
	embProvider string
	embTarget   string
	embModel    string
	embDims     uint
	llmProvider string
	llmTarget   string
	llmModel    string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagTopK,
	config.FlagStorageProv,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
}

const serveLongDesc string = `Run the medrag API server.

Endpoints:
  POST /analyze   {user_query, file_path, persona[, top_k]} -> {report, sources}
  GET  /files     ingested files a query can target
  GET  /ping      health check
  /mcp            MCP streamable HTTP endpoint (analyze, list_files tools)

The server starts even when the vector store or generation model is not
available; /analyze then answers 400 with the missing component.

Examples:
  medrag serve
  medrag serve --listen :8080 --vector-store-provider chromem`

const serveShortDesc string = "Run the medrag API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForCommand(cmd, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Write JSON logs instead of colorized console logs")
	cmd.Flags().BoolVar(&cmder.disableMCP, "no-mcp", false, "Do not mount the MCP endpoint")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProv, &cmder.storageProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vsTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(c.jsonLogs),
		logger.WithPretty(!c.jsonLogs),
		logger.WithWriter(os.Stderr),
		logger.WithRedact(logger.PatientDataKeys...),
	)

	persistDir, err := dotdir.NewManager().PersistDir(c.configDir)
	if err != nil {
		return err
	}

	stack := components.BuildQuery(c.cfg, persistDir, c.logger)
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Warn("closing query components", "error", err)
		}
	}()

	// The index store only backs GET /files and list_files.
	var index storage.Driver
	index, err = components.IndexStore(ctx, c.cfg, persistDir, c.logger)
	if err != nil {
		c.logger.Warn("index store unavailable, file listing disabled", "error", err)
		index = nil
	} else {
		defer index.Close()
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:  c.cfg.API.Listen,
		DefaultTopK: int(c.cfg.Query.TopK),
		DisableMCP:  c.disableMCP,
		Logger:      c.logger,
	}, stack.Analyzer, index)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("medrag API configured",
		"vector_store", c.cfg.VectorStore.Provider,
		"embedding", c.cfg.Embedding.Provider,
		"llm", c.cfg.LLM.Provider,
		"model", c.cfg.LLM.Model,
		"mcp", !c.disableMCP,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context cancelled, shutting down")
	}

	return server.Shutdown()
}
