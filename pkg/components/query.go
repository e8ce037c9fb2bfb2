package components

import (
	"errors"
	"log/slog"

	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/config"
	"github.com/papercomputeco/medrag/pkg/embeddings"
	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/retrieval"
	"github.com/papercomputeco/medrag/pkg/vector"
)

// QueryStack holds the collaborators behind an analysis.Analyzer.
type QueryStack struct {
	Analyzer *analysis.Analyzer

	// Vector, Embedder and LLM are nil when they could not be built. The
	// Analyzer then reports analysis.ErrNotConfigured.
	Vector   vector.Driver
	Embedder embeddings.Embedder
	LLM      llm.Client
}

// BuildQuery assembles the query pipeline. Unavailable components are logged
// and left out so that a server can start and explain what is missing.
func BuildQuery(cfg *config.Config, persistDir string, logger *slog.Logger) *QueryStack {
	q := &QueryStack{}

	driver, err := VectorDriver(cfg, persistDir, logger)
	if err != nil {
		logger.Warn("vector store unavailable", "provider", cfg.VectorStore.Provider, "error", err)
	} else {
		q.Vector = driver
	}

	embedder, err := Embedder(cfg, logger)
	if err != nil {
		logger.Warn("embedder unavailable", "provider", cfg.Embedding.Provider, "error", err)
	} else {
		q.Embedder = embedder
	}

	client, err := LLM(cfg, logger)
	if err != nil {
		logger.Warn("generation model unavailable", "provider", cfg.LLM.Provider, "error", err)
	} else {
		q.LLM = client
	}

	ac := analysis.Config{
		Generator: Generator(cfg, q.LLM, logger),
		Logger:    logger,
	}
	if q.Vector != nil && q.Embedder != nil {
		r, err := retrieval.New(retrieval.Config{
			Driver:   q.Vector,
			Embedder: q.Embedder,
			Logger:   logger,
		})
		if err == nil {
			ac.Retriever = r
		}
	}
	q.Analyzer = analysis.New(ac)

	return q
}

// Close releases the vector store and embedder.
func (q *QueryStack) Close() error {
	var errs []error
	if q.Vector != nil {
		errs = append(errs, q.Vector.Close())
	}
	if q.Embedder != nil {
		errs = append(errs, q.Embedder.Close())
	}
	return errors.Join(errs...)
}
