// Package provider constructs generation clients by provider name.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/llm/provider/gemini"
	"github.com/papercomputeco/medrag/pkg/llm/provider/ollama"
	"github.com/papercomputeco/medrag/pkg/llm/provider/openai"
)

// Config selects and configures a generation client.
type Config struct {
	// Type is one of SupportedProviders().
	Type string

	APIKey  string
	BaseURL string
	Model   string
	Logger  *slog.Logger
}

// New creates the llm.Client for cfg.Type.
// Returns an error if the provider type is not recognized.
func New(cfg Config) (llm.Client, error) {
	switch cfg.Type {
	case Gemini:
		return gemini.New(gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  cfg.Logger,
		})
	case OpenAI:
		return openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  cfg.Logger,
		})
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  cfg.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", cfg.Type, SupportedProviders())
	}
}
