// Package api provides the HTTP API server for medical file analysis.
package api

import "log/slog"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// DefaultTopK is used when a request does not set top_k. Zero defers to
	// the retriever's default.
	DefaultTopK int

	// DisableMCP skips mounting the MCP server at /mcp.
	DisableMCP bool

	Logger *slog.Logger
}
