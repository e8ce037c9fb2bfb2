// Package vector provides interfaces and implementations for vector storage and embedding.
package vector

import "context"

// Document represents a stored unit with its embedding and metadata.
type Document struct {
	// ID is the unit's deterministic identifier.
	ID string

	// Content is the unit text shown back as retrieval context.
	Content string

	// Metadata is the flat string payload persisted alongside the vector.
	Metadata map[string]string

	// Embedding is the vector representation of the document content.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Filter restricts a query to documents whose metadata equals every given
// key/value pair. A nil or empty filter matches everything.
type Filter map[string]string

// Matches reports whether metadata satisfies every condition in f.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		got, ok := metadata[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Upsert stores documents with their embeddings. A document whose ID
	// already exists replaces the stored one.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding among
	// those matching filter. Implementations push the filter down to the store
	// where they can, so callers must not assume stricter matching than
	// Filter.Matches.
	Query(ctx context.Context, embedding []float32, topK int, filter Filter) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}

// DefaultTopK is used by drivers when a query asks for zero or fewer results.
const DefaultTopK = 10
