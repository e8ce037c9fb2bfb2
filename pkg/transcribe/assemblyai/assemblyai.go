// Package assemblyai transcribes audio with the AssemblyAI REST API.
//
// A transcription uploads the file, submits a transcript job for the upload
// URL and polls the job until it completes or fails.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/medrag/pkg/logger"
)

const (
	// Name labels transcripts produced by this package.
	Name = "AssemblyAI"

	// DefaultBaseURL is the public v2 API.
	DefaultBaseURL = "https://api.assemblyai.com/v2"

	// DefaultLanguage is the spoken language requested for every transcript.
	DefaultLanguage = "en"

	// DefaultPollInterval is the wait between status checks.
	DefaultPollInterval = 3 * time.Second
)

// ErrTranscriptFailed is returned when a transcript job ends in error.
var ErrTranscriptFailed = errors.New("transcript failed")

// Config configures the AssemblyAI transcriber.
type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Transcriber implements synchronous transcription over the async API.
type Transcriber struct {
	apiKey       string
	baseURL      string
	language     string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates an AssemblyAI transcriber.
func New(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("assemblyai API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Transcriber{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		language:     language,
		pollInterval: interval,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: cfg.Logger,
	}, nil
}

// Transcribe blocks until the transcript for the file at path is ready.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	uploadURL, err := t.upload(ctx, path)
	if err != nil {
		return "", err
	}

	var job transcript
	if err := t.do(ctx, http.MethodPost, "/transcript", "application/json",
		mustJSON(transcriptRequest{AudioURL: uploadURL, LanguageCode: t.language}), &job); err != nil {
		return "", fmt.Errorf("submitting transcript: %w", err)
	}

	t.logger.Info("transcribing audio file", "path", path, "transcript_id", job.ID)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	for {
		switch job.Status {
		case StatusCompleted:
			return job.Text, nil
		case StatusError:
			return "", fmt.Errorf("%w: %s", ErrTranscriptFailed, job.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		if err := t.do(ctx, http.MethodGet, "/transcript/"+job.ID, "", nil, &job); err != nil {
			return "", fmt.Errorf("polling transcript %s: %w", job.ID, err)
		}
	}
}

func (t *Transcriber) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var resp uploadResponse
	if err := t.do(ctx, http.MethodPost, "/upload", "application/octet-stream", f, &resp); err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	return resp.UploadURL, nil
}

func (t *Transcriber) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", t.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func mustJSON(v any) io.Reader {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(data)
}
