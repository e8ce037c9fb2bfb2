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

// AudioConfig configures the audio extractor.
type AudioConfig struct {
	// Transcriber may be nil, in which case audio files are skipped.
	Transcriber Transcriber

	// TranscriberName labels the transcript, e.g. "AssemblyAI".
	TranscriberName string

	Logger *slog.Logger
}

// Audio transcribes each audio file into one unit.
type Audio struct {
	transcriber     Transcriber
	transcriberName string
	logger          *slog.Logger
}

// NewAudio creates an audio extractor.
func NewAudio(cfg AudioConfig) *Audio {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	name := cfg.TranscriberName
	if name == "" {
		name = "Audio"
	}
	return &Audio{
		transcriber:     cfg.Transcriber,
		transcriberName: name,
		logger:          cfg.Logger,
	}
}

// Extract implements Extractor.
func (a *Audio) Extract(ctx context.Context, path string) []unit.Unit {
	if a.transcriber == nil {
		a.logger.Warn("no transcriber configured, skipping audio file", "path", path)
		return nil
	}

	text, err := a.transcriber.Transcribe(ctx, path)
	if err != nil {
		a.logger.Error("transcription failed", "path", path, "transcriber", a.transcriberName, "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn("transcription was empty", "path", path)
		return nil
	}

	name := filepath.Base(path)
	hash := filehash.SumOrRandom(path, a.logger)
	id := identity.ForContent(hash)
	return []unit.Unit{{
		ID:   id,
		Text: "--- " + a.transcriberName + " Transcription ---\n" + text,
		Metadata: unit.Metadata{
			Source:      name,
			Type:        unit.AudioTranscription,
			ID:          id,
			ContentHash: hash,
		},
	}}
}
