// Package whisper transcribes audio with the OpenAI audio transcription API.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/medrag/pkg/logger"
)

const (
	// Name labels transcripts produced by this package.
	Name = "Whisper"

	// DefaultModel is the transcription model.
	DefaultModel = goopenai.Whisper1
)

// Config configures the Whisper transcriber.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Logger   *slog.Logger
}

// Transcriber wraps the go-openai client.
type Transcriber struct {
	client   *goopenai.Client
	model    string
	language string
	logger   *slog.Logger
}

// New creates a Whisper transcriber.
func New(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Transcriber{
		client:   goopenai.NewClientWithConfig(clientCfg),
		model:    model,
		language: language,
		logger:   cfg.Logger,
	}, nil
}

// Transcribe uploads the file and returns the transcript text.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription of %s: %w", path, err)
	}

	t.logger.Debug("transcription complete", "path", path, "chars", len(resp.Text))
	return resp.Text, nil
}
