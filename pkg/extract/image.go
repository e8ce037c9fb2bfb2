package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/medrag/pkg/filehash"
	"github.com/papercomputeco/medrag/pkg/identity"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/unit"
)

// ImageConfig configures the image extractor. Either backend may be nil.
type ImageConfig struct {
	OCR       OCR
	Captioner Captioner

	// CaptionerName labels the visual description, e.g. "Gemini".
	CaptionerName string

	Logger *slog.Logger
}

// Image combines OCR text and a generated caption into a single unit per
// image file.
type Image struct {
	ocr           OCR
	captioner     Captioner
	captionerName string
	logger        *slog.Logger
}

// NewImage creates an image extractor.
func NewImage(cfg ImageConfig) *Image {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	name := cfg.CaptionerName
	if name == "" {
		name = "Captioner"
	}
	return &Image{
		ocr:           cfg.OCR,
		captioner:     cfg.Captioner,
		captionerName: name,
		logger:        cfg.Logger,
	}
}

// Extract implements Extractor.
func (i *Image) Extract(ctx context.Context, path string) []unit.Unit {
	name := filepath.Base(path)

	var ocrText, caption string
	if i.ocr != nil {
		text, err := i.ocr.Extract(ctx, path)
		if err != nil {
			i.logger.Warn("ocr failed", "path", path, "error", err)
		}
		ocrText = strings.TrimSpace(text)
	}
	if i.captioner != nil {
		text, err := i.captioner.Caption(ctx, path)
		if err != nil {
			i.logger.Warn("caption failed", "path", path, "captioner", i.captionerName, "error", err)
		}
		caption = strings.TrimSpace(text)
	}

	body := ImageBody(name, ocrText, i.captionerName, caption)
	if body == "" {
		i.logger.Warn("skipping image, could not extract any useful text", "path", path)
		return nil
	}

	hash := filehash.SumOrRandom(path, i.logger)
	id := identity.ForContent(hash)
	return []unit.Unit{{
		ID:   id,
		Text: body,
		Metadata: unit.Metadata{
			Source:      name,
			Type:        unit.ImageAnalysis,
			ID:          id,
			ContentHash: hash,
		},
	}}
}

// ImageBody renders the text of an image unit. Empty sections are left out
// and the result is empty when both are.
func ImageBody(name, ocrText, captionerName, caption string) string {
	var sections []string
	if ocrText != "" {
		sections = append(sections, "OCR Text: "+ocrText)
	}
	if caption != "" {
		sections = append(sections, "Visual Description ("+captionerName+"): "+caption)
	}
	if len(sections) == 0 {
		return ""
	}
	return "--- Image Analysis for " + name + " ---\n" + strings.Join(sections, "\n\n")
}
