package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/papercomputeco/medrag/pkg/chunker"
	"github.com/papercomputeco/medrag/pkg/identity"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/unit"
)

// ErrInvalidUTF8 is returned by ReadText for files that are not UTF-8.
var ErrInvalidUTF8 = errors.New("file is not valid UTF-8")

// TextConfig configures the text extractor.
type TextConfig struct {
	// Chunker splits file contents. Defaults to chunker.New().
	Chunker *chunker.Chunker

	Logger *slog.Logger
}

// Text chunks plain text files. Each chunk's identity is derived from the
// filename and the character offset the chunk starts at.
type Text struct {
	chunker *chunker.Chunker
	logger  *slog.Logger
}

// NewText creates a text extractor.
func NewText(cfg TextConfig) *Text {
	c := cfg.Chunker
	if c == nil {
		c = chunker.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Text{chunker: c, logger: cfg.Logger}
}

// ReadText reads a UTF-8 file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}
	return string(data), nil
}

// Extract implements Extractor.
func (t *Text) Extract(_ context.Context, path string) []unit.Unit {
	content, err := ReadText(path)
	if err != nil {
		t.logger.Error("error processing text file", "path", path, "error", err)
		return nil
	}

	name := filepath.Base(path)
	chunks := t.chunker.Split(content)
	units := make([]unit.Unit, 0, len(chunks))
	for _, c := range chunks {
		id := identity.ForChunk(name, c.Start)
		units = append(units, unit.Unit{
			ID:   id,
			Text: c.Text,
			Metadata: unit.Metadata{
				Source:      name,
				Type:        unit.Text,
				ID:          id,
				StartOffset: c.Start,
			},
		})
	}

	t.logger.Debug("chunked text file", "source", name, "chunks", len(units))
	return units
}
