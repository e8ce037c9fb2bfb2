// Package mcp provides an MCP (Model Context Protocol) server exposing
// medrag analysis to agents.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/utils"
)

// Analyzer answers analysis requests.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

type Config struct {
	// Analyzer runs the query pipeline for the analyze tool.
	Analyzer Analyzer

	// Index lists ingested files for the list_files tool. Optional.
	Index storage.Driver

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	logger    *slog.Logger
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the analyze and list_files tools.
func NewServer(c Config) (*Server, error) {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	s := &Server{
		config: c,
		logger: c.Logger,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "medrag",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Analyzer == nil {
			return nil, errors.New("analyzer is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        analyzeToolName,
			Description: analyzeDescription,
		}, s.handleAnalyze)

		if c.Index != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        listFilesToolName,
				Description: listFilesDescription,
			}, s.handleListFiles)
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless:    true,
			JSONResponse: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying server, for connecting other transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
