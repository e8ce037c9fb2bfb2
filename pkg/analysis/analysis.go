// Package analysis runs the query pipeline: targeted retrieval, context
// aggregation and report generation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/retrieval"
	"github.com/papercomputeco/medrag/pkg/unit"
)

var (
	// ErrNotConfigured is returned when the vector store or the generation
	// model is not configured.
	ErrNotConfigured = errors.New("analysis is not configured")

	// ErrInvalidRequest is returned for requests missing a query or target.
	ErrInvalidRequest = errors.New("invalid analysis request")
)

// Retriever fetches units for one target file.
type Retriever interface {
	Retrieve(ctx context.Context, query, target string, topK int) ([]unit.Retrieved, error)
}

// Request is one analysis query.
type Request struct {
	Query string

	// TargetFile may be a path; only its base name is matched.
	TargetFile string

	Persona report.Persona

	// TopK defaults to retrieval.DefaultTopK.
	TopK int
}

// Source is one unit that contributed context to a report.
type Source struct {
	Source  string        `json:"source"`
	Score   float32       `json:"score"`
	Type    unit.Modality `json:"type"`
	Content string        `json:"content"`
}

// Report is the outcome of an analysis.
type Report struct {
	// Target is the base name the retrieval was restricted to.
	Target string

	// Body is the generated report or a generation error message.
	Body string

	Sources []Source
}

// Config configures an Analyzer.
type Config struct {
	Retriever Retriever
	Generator *report.Generator
	Logger    *slog.Logger
}

// Analyzer answers analysis requests.
type Analyzer struct {
	retriever Retriever
	generator *report.Generator
	logger    *slog.Logger
}

// New creates an Analyzer. Missing components are reported by Analyze as
// ErrNotConfigured so a server can start and explain what is missing.
func New(cfg Config) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Analyzer{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}
}

// Target reduces a file path to the name units are stored under.
func Target(filePath string) string {
	p := strings.TrimSpace(filePath)
	if p == "" {
		return ""
	}
	return filepath.Base(filepath.FromSlash(p))
}

// Analyze runs retrieval, aggregation and generation in sequence. Generation
// failures are reported in Report.Body, not as errors.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	if a.retriever == nil {
		return nil, fmt.Errorf("%w: vector store unavailable", ErrNotConfigured)
	}
	if a.generator == nil || !a.generator.Configured() {
		return nil, fmt.Errorf("%w: no generation model", ErrNotConfigured)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidRequest)
	}
	target := Target(req.TargetFile)
	if target == "" {
		return nil, fmt.Errorf("%w: file path is empty", ErrInvalidRequest)
	}
	if !req.Persona.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, report.ErrUnknownPersona)
	}

	units, err := a.retriever.Retrieve(ctx, req.Query, target, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context for %s: %w", target, err)
	}

	contextText := retrieval.Aggregate(units, target)
	body := a.generator.Generate(ctx, req.Query, target, contextText, req.Persona)

	sources := make([]Source, 0, len(units))
	for _, u := range units {
		sources = append(sources, Source{
			Source:  u.Metadata.Source,
			Score:   u.Score,
			Type:    u.Metadata.Type,
			Content: u.Text,
		})
	}

	a.logger.Info("analysis complete",
		"target", target,
		"persona", req.Persona.String(),
		"sources", len(sources),
	)
	return &Report{Target: target, Body: body, Sources: sources}, nil
}
