// Package ingest discovers raw files, extracts units from them and stores the
// units in the vector store.
//
// Unit identities are deterministic, so running ingest again over unchanged
// files updates the stored units instead of adding duplicates.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/papercomputeco/medrag/pkg/embeddings"
	"github.com/papercomputeco/medrag/pkg/eventstream"
	"github.com/papercomputeco/medrag/pkg/extract"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/unit"
	"github.com/papercomputeco/medrag/pkg/vector"
)

// File patterns, relative to the raw directory.
const (
	TextPattern  = "text/*.txt"
	ImagePattern = "images/*.{png,jpg,jpeg}"
	AudioPattern = "audio/*.{mp3,wav}"
)

// Config configures a Coordinator.
type Config struct {
	// RawDir holds the text/, images/ and audio/ subdirectories.
	RawDir string

	// Extractors per modality. A nil extractor skips that modality.
	Text  extract.Extractor
	Image extract.Extractor
	Audio extract.Extractor

	Driver   vector.Driver
	Embedder embeddings.Embedder

	// Index receives one record per stored unit. Optional.
	Index storage.Driver

	// Publisher receives one event per completed run. Optional.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Coordinator runs ingestion. Runs must not overlap.
type Coordinator struct {
	rawDir    string
	text      extract.Extractor
	image     extract.Extractor
	audio     extract.Extractor
	driver    vector.Driver
	embedder  embeddings.Embedder
	index     storage.Driver
	publisher eventstream.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.RawDir == "" {
		return nil, errors.New("raw directory is required")
	}
	if cfg.Driver == nil {
		return nil, errors.New("vector driver is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Coordinator{
		rawDir:    cfg.RawDir,
		text:      cfg.Text,
		image:     cfg.Image,
		audio:     cfg.Audio,
		driver:    cfg.Driver,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Discover returns the sorted paths under rawDir matching pattern. A missing
// directory matches nothing.
func Discover(rawDir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(rawDir), pattern)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("globbing %s in %s: %w", pattern, rawDir, err)
	}
	sort.Strings(matches)

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(rawDir, filepath.FromSlash(m)))
	}
	return paths, nil
}

// Collect discovers every raw file and extracts its units. Per-file failures
// are logged by the extractors and never abort collection.
func (c *Coordinator) Collect(ctx context.Context) ([]unit.Unit, Stats, error) {
	var (
		units []unit.Unit
		stats Stats
	)

	modalities := []struct {
		name      string
		pattern   string
		extractor extract.Extractor
		count     *int
	}{
		{"text", TextPattern, c.text, &stats.TextFiles},
		{"image", ImagePattern, c.image, &stats.ImageFiles},
		{"audio", AudioPattern, c.audio, &stats.AudioFiles},
	}

	for _, m := range modalities {
		paths, err := Discover(c.rawDir, m.pattern)
		if err != nil {
			return nil, stats, err
		}
		*m.count = len(paths)
		c.logger.Info("found files", "modality", m.name, "count", len(paths))

		if m.extractor == nil {
			if len(paths) > 0 {
				c.logger.Warn("no extractor configured, skipping files", "modality", m.name, "count", len(paths))
			}
			continue
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			units = append(units, m.extractor.Extract(ctx, path)...)
		}
	}

	stats.Units = len(units)
	c.logger.Info("collected units for ingestion", "units", stats.Units)
	return units, stats, nil
}

// Run collects units and stores them. An empty collection is reported as a
// skipped run rather than an error. Embedding and upsert failures fail the
// run.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	start := c.now()

	units, stats, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Stats: stats}
	if len(units) == 0 {
		result.Skipped = true
		result.Duration = c.now().Sub(start)
		c.logger.Info("no documents found, ingestion skipped", "raw_dir", c.rawDir)
		return result, nil
	}

	docs := make([]vector.Document, 0, len(units))
	for _, u := range dedupe(units) {
		emb, err := c.embedder.Embed(ctx, u.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding unit %s from %s: %w", u.ID, u.Metadata.Source, err)
		}
		docs = append(docs, vector.Document{
			ID:        u.ID,
			Content:   u.Text,
			Metadata:  u.Metadata.Map(),
			Embedding: emb,
		})
	}

	c.logger.Info("upserting units", "units", len(docs))
	if err := c.driver.Upsert(ctx, docs); err != nil {
		return nil, fmt.Errorf("upserting %d units: %w", len(docs), err)
	}

	ingestedAt := c.now()
	if c.index != nil {
		records := make([]storage.Record, 0, len(units))
		for _, u := range units {
			records = append(records, storage.RecordFromUnit(u, ingestedAt))
		}
		inserted, err := c.index.Put(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("persisting index records: %w", err)
		}
		result.NewUnits = inserted
	}

	result.Duration = c.now().Sub(start)

	if c.publisher != nil {
		event := eventstream.NewIngestEvent(eventstream.IngestStats{
			TextFiles:  stats.TextFiles,
			ImageFiles: stats.ImageFiles,
			AudioFiles: stats.AudioFiles,
			Units:      stats.Units,
			NewUnits:   result.NewUnits,
			DurationMs: result.Duration.Milliseconds(),
		}, units, ingestedAt)
		if err := c.publisher.PublishIngest(ctx, event); err != nil {
			c.logger.Warn("failed to publish ingest event", "event_id", event.EventID, "error", err)
		}
	}

	c.logger.Info("ingest complete",
		"units", result.Units,
		"new_units", result.NewUnits,
		"duration", result.Duration,
	)
	return result, nil
}

// dedupe keeps the last unit for each ID. Identical files under different
// names share a content-derived ID, and some stores reject batches that
// repeat an ID.
func dedupe(units []unit.Unit) []unit.Unit {
	last := make(map[string]int, len(units))
	for i, u := range units {
		last[u.ID] = i
	}
	if len(last) == len(units) {
		return units
	}

	out := make([]unit.Unit, 0, len(last))
	for i, u := range units {
		if last[u.ID] == i {
			out = append(out, u)
		}
	}
	return out
}
