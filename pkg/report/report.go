// Package report generates persona-adapted structured medical reports.
//
// Generation failures never escape Generate. They are rendered into the
// returned text so the report body always says what went wrong.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/logger"
)

// DefaultTemperature keeps reports focused and repeatable.
const DefaultTemperature = 0.3

// Config configures a Generator.
type Config struct {
	// Client may be nil, in which case every report is an error message.
	Client llm.Client

	// Provider labels error messages, e.g. "Gemini".
	Provider string

	// Model overrides the client's default model.
	Model string

	// Temperature defaults to DefaultTemperature when zero.
	Temperature float64

	Logger *slog.Logger
}

// Generator produces reports with a single model call each.
type Generator struct {
	client      llm.Client
	provider    string
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) *Generator {
	provider := cfg.Provider
	if provider == "" {
		provider = "LLM"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Generator{
		client:      cfg.Client,
		provider:    provider,
		model:       cfg.Model,
		temperature: temperature,
		logger:      cfg.Logger,
	}
}

// Configured reports whether a generation client is set.
func (g *Generator) Configured() bool {
	return g.client != nil
}

// Provider returns the label used in error messages.
func (g *Generator) Provider() string {
	return g.provider
}

// NotConfiguredMessage is returned by Generate when no client is set.
func (g *Generator) NotConfiguredMessage() string {
	return fmt.Sprintf("ERROR: %s client not active. Cannot generate structured response.", g.provider)
}

// Generate returns the report text, or a description of the failure.
func (g *Generator) Generate(ctx context.Context, query, target, contextText string, persona Persona) string {
	if g.client == nil {
		return g.NotConfiguredMessage()
	}

	resp, err := g.client.Generate(ctx, llm.Request{
		Model:       g.model,
		System:      SystemInstruction(persona),
		Prompt:      UserPrompt(query, target, contextText),
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error("report generation failed",
			"provider", g.provider,
			"target", target,
			"persona", persona.String(),
			"error", err,
		)
		if _, ok := llm.AsAPIError(err); ok {
			return fmt.Sprintf("\n[%s API Error]: Failed to generate response. Error: %v", g.provider, err)
		}
		return fmt.Sprintf("\n[%s Fatal Error]: Failed to generate response. Error: %v", g.provider, err)
	}

	g.logger.Debug("report generated", "target", target, "persona", persona.String(), "model", resp.Model)
	return resp.Text
}
