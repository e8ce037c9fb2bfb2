package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/papercomputeco/medrag/api/mcp"
	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/storage"
)

// Analyzer answers analysis requests.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Server is the API server for querying ingested medical files.
type Server struct {
	config   Config
	analyzer Analyzer
	index    storage.Driver
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The index is optional; without it
// GET /files reports that no index store is configured.
func NewServer(config Config, analyzer Analyzer, index storage.Driver) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		analyzer: analyzer,
		index:    index,
		logger:   config.Logger,
		app:      app,
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "*",
	}))

	app.Get("/ping", s.handlePing)
	app.Get("/files", s.handleListFiles)
	app.Post("/analyze", s.handleAnalyze)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Analyzer: analyzer,
			Index:    index,
			Logger:   config.Logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
