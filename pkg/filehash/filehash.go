// Package filehash computes content digests of ingested files. The digest
// seeds the identity of whole-file units (images, audio) so that identical
// bytes always map to the same unit regardless of the file's name.
package filehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// BlockSize is the read size used while streaming a file into the hash.
const BlockSize = 8 * 1024

// Digest returns the hex-encoded SHA-256 of everything read from r.
func Digest(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Sum returns the hex-encoded SHA-256 of the file at path.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	digest, err := Digest(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return digest, nil
}

// SumOrRandom behaves like Sum but never fails. When the file cannot be read
// it logs the failure and returns a random UUID, so the file is still ingested
// with an identity that will not be stable across runs.
func SumOrRandom(path string, logger *slog.Logger) string {
	digest, err := Sum(path)
	if err != nil {
		fallback := uuid.NewString()
		logger.Error("hashing file failed, using random identity",
			"path", path,
			"fallback", fallback,
			"error", err,
		)
		return fallback
	}
	return digest
}
