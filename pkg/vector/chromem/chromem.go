// Package chromem provides an in-process vector driver backed by chromem-go.
// With a persistence directory the collection survives restarts, which makes
// it the zero-infrastructure option for local use.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/papercomputeco/medrag/pkg/vector"
)

// DefaultCollectionName is the default collection name for medrag units.
const DefaultCollectionName = "medrag"

// Config holds configuration for the chromem driver.
type Config struct {
	// PersistDir is where chromem stores its gob files.
	// Empty keeps everything in memory.
	PersistDir string

	// Compress gzips persisted documents.
	Compress bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string
}

// Driver implements vector.Driver on a chromem-go collection.
type Driver struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	logger     *slog.Logger
}

// noEmbed refuses to embed. Units always arrive with embeddings, so chromem
// must never fall back to its default remote embedding function.
func noEmbed(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem driver requires precomputed embeddings")
}

// NewDriver opens (or creates) the collection.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	name := c.CollectionName
	if name == "" {
		name = DefaultCollectionName
	}

	var (
		db  *chromemgo.DB
		err error
	)
	if c.PersistDir == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(c.PersistDir, c.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: opening chromem db at %s: %v", vector.ErrConnection, c.PersistDir, err)
		}
	}

	collection, err := db.GetOrCreateCollection(name, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", name, err)
	}

	logger.Info("chromem vector driver initialized",
		"persist_dir", c.PersistDir,
		"collection", name,
		"documents", collection.Count(),
	)

	return &Driver{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// Upsert stores documents. chromem replaces documents that share an ID.
func (d *Driver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromemgo.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromemgo.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  maps.Clone(doc.Metadata),
			Embedding: doc.Embedding,
		}
	}

	if err := d.collection.AddDocuments(ctx, chromDocs, 1); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	d.logger.Debug("upserted documents to chromem", "count", len(docs))
	return nil
}

// Query finds the topK most similar documents matching filter. chromem's
// where clause is an exact-match map, so the filter passes through as is.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	// chromem-go requires nResults <= collection size.
	count := d.collection.Count()
	if count == 0 {
		return nil, nil
	}
	topK = min(topK, count)

	var where map[string]string
	if len(filter) > 0 {
		where = filter
	}

	res, err := d.collection.QueryEmbedding(ctx, embedding, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	results := make([]vector.QueryResult, len(res))
	for i, r := range res {
		results[i] = vector.QueryResult{
			Document: vector.Document{
				ID:        r.ID,
				Content:   r.Content,
				Metadata:  r.Metadata,
				Embedding: r.Embedding,
			},
			Score: r.Similarity,
		}
	}

	d.logger.Debug("queried chromem", "results", len(results))
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var docs []vector.Document
	for _, id := range ids {
		doc, err := d.collection.GetByID(ctx, id)
		if err != nil {
			// chromem reports a missing ID as an error
			continue
		}
		docs = append(docs, vector.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		})
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := d.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	d.logger.Debug("deleted documents from chromem", "count", len(ids))
	return nil
}

// Close is a no-op. A persistent DB writes through on every change.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
