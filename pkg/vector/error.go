package vector

import "errors"

var (
	// ErrEmbedding wraps failures of an embedding provider.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store cannot be reached.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensions is returned when an embedding does not match the
	// dimensions the store was created with.
	ErrDimensions = errors.New("embedding dimensions mismatch")
)
