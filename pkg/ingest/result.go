package ingest

import (
	"fmt"
	"time"
)

// Stats counts what Collect discovered and extracted.
type Stats struct {
	TextFiles  int
	ImageFiles int
	AudioFiles int
	Units      int
}

// Files is the total number of discovered files.
func (s Stats) Files() int {
	return s.TextFiles + s.ImageFiles + s.AudioFiles
}

// Result contains statistics from an ingest run.
type Result struct {
	Stats

	// Skipped is set when no units were collected and nothing was stored.
	Skipped bool

	// NewUnits is the number of units the index store had not seen before.
	NewUnits int

	Duration time.Duration
}

// Summary returns a human-readable summary of the ingest result.
func (r *Result) Summary() string {
	if r.Skipped {
		return fmt.Sprintf(
			"No documents found in raw directories. Ingestion skipped.\n"+
				"Scanned %d text, %d image and %d audio files",
			r.TextFiles, r.ImageFiles, r.AudioFiles,
		)
	}
	return fmt.Sprintf(
		"Ingest complete: %d units upserted (%d new) in %s\n"+
			"Scanned %d text, %d image and %d audio files",
		r.Units, r.NewUnits, r.Duration.Round(time.Millisecond),
		r.TextFiles, r.ImageFiles, r.AudioFiles,
	)
}
