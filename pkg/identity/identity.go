// Package identity derives stable unit identifiers.
//
// Identifiers are name-based (version 5) UUIDs under one namespace shared by
// the whole process. The same seed always yields the same identifier, which
// lets the vector store treat a re-ingested unit as an update of the previous
// one instead of a new record.
package identity

import (
	"strconv"

	"github.com/google/uuid"
)

// Namespace is the UUID namespace every identifier is derived under.
// Changing it re-keys the entire index.
var Namespace = uuid.NameSpaceDNS

// New returns the version 5 UUID for seed.
func New(seed string) string {
	return uuid.NewSHA1(Namespace, []byte(seed)).String()
}

// ForContent identifies a whole-file unit by the digest of its bytes.
// Two files with identical content share an identifier even when their names
// differ.
func ForContent(contentHash string) string {
	return New(contentHash)
}

// ForChunk identifies a text chunk by its source filename and the character offset
// the chunk starts at. Unchanged files re-chunk to the same offsets and
// therefore to the same identifiers.
func ForChunk(source string, offset int) string {
	return New(ChunkSeed(source, offset))
}

// ChunkSeed is the seed string ForChunk hashes.
func ChunkSeed(source string, offset int) string {
	return source + "_" + strconv.Itoa(offset)
}
