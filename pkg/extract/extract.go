// Package extract turns raw text, image and audio files into units.
//
// Extractors never fail a run: a file that cannot be processed yields zero
// units and a log line, so one bad file does not stop ingestion of the rest.
package extract

import (
	"context"

	"github.com/papercomputeco/medrag/pkg/unit"
)

// Extractor converts one file into zero or more units.
type Extractor interface {
	Extract(ctx context.Context, path string) []unit.Unit
}

// OCR reads printed text out of an image.
type OCR interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Captioner describes an image in natural language.
type Captioner interface {
	Caption(ctx context.Context, path string) (string, error)
}

// Transcriber converts speech in an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}
