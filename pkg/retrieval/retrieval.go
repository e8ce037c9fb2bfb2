// Package retrieval fetches context for a query from exactly one source file.
//
// The vector store is asked to filter by source, and every result is checked
// again locally. A store that ignores or mis-applies the filter therefore
// cannot leak units from other files into the context.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/papercomputeco/medrag/pkg/embeddings"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/unit"
	"github.com/papercomputeco/medrag/pkg/vector"
)

// DefaultTopK is the number of units requested when the caller asks for none.
const DefaultTopK = 20

// Config configures a Retriever.
type Config struct {
	Driver   vector.Driver
	Embedder embeddings.Embedder
	Logger   *slog.Logger
}

// Retriever runs targeted similarity searches.
type Retriever struct {
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// New creates a Retriever.
func New(cfg Config) (*Retriever, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Retriever{
		driver:   cfg.Driver,
		embedder: cfg.Embedder,
		logger:   cfg.Logger,
	}, nil
}

// Retrieve returns up to topK units whose source is exactly target, ordered
// by score descending and then by id ascending. An empty result is not an
// error.
func (r *Retriever) Retrieve(ctx context.Context, query, target string, topK int) ([]unit.Retrieved, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.driver.Query(ctx, embedding, topK, vector.Filter{unit.KeySource: target})
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	out := make([]unit.Retrieved, 0, len(results))
	for _, res := range results {
		md := unit.MetadataFromMap(res.Metadata)
		if md.Source != target {
			r.logger.Debug("dropping result from other source",
				"target", target,
				"source", md.Source,
				"id", res.ID,
			)
			continue
		}
		out = append(out, unit.Retrieved{
			Unit: unit.Unit{
				ID:       res.ID,
				Text:     res.Content,
				Metadata: md,
			},
			Score: res.Score,
		})
	}

	Order(out)
	return out, nil
}

// Order sorts units by score descending, breaking ties by id ascending, and
// assigns each its rank.
func Order(units []unit.Retrieved) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Score != units[j].Score {
			return units[i].Score > units[j].Score
		}
		return units[i].ID < units[j].ID
	})
	for i := range units {
		units[i].Rank = i
	}
}
