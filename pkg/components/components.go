// Package components builds the pipeline's collaborators from configuration.
// Commands share it so that ingest, query and serve resolve providers the
// same way.
package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/medrag/pkg/config"
	"github.com/papercomputeco/medrag/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/medrag/pkg/embeddings/utils"
	"github.com/papercomputeco/medrag/pkg/eventstream"
	"github.com/papercomputeco/medrag/pkg/eventstream/kafka"
	"github.com/papercomputeco/medrag/pkg/eventstream/nop"
	"github.com/papercomputeco/medrag/pkg/extract"
	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/llm/provider"
	"github.com/papercomputeco/medrag/pkg/ocr/tesseract"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/storage/inmemory"
	"github.com/papercomputeco/medrag/pkg/storage/postgres"
	"github.com/papercomputeco/medrag/pkg/storage/sqlite"
	"github.com/papercomputeco/medrag/pkg/transcribe/assemblyai"
	"github.com/papercomputeco/medrag/pkg/transcribe/whisper"
	"github.com/papercomputeco/medrag/pkg/vector"
	vectorutils "github.com/papercomputeco/medrag/pkg/vector/utils"
)

// Provider names accepted by the selectors below.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageInMemory = "inmemory"

	TranscriptionAssemblyAI = "assemblyai"
	TranscriptionWhisper    = "whisper"
	TranscriptionNone       = "none"

	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// ErrMissingAPIKey is returned when a hosted provider has no credentials.
var ErrMissingAPIKey = errors.New("API key is not configured")

// VectorDriver connects to the configured vector store. Embedded stores keep
// their files under persistDir.
func VectorDriver(cfg *config.Config, persistDir string, logger *slog.Logger) (vector.Driver, error) {
	return vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		APIKey:       cfg.VectorStore.APIKey,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		PersistDir:   persistDir,
		Logger:       logger,
	})
}

// Embedder builds the configured embedding client.
func Embedder(cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, error) {
	return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       cfg.Embedding.APIKey,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
}

// LLM builds the generation client used for reports and captions.
func LLM(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	if cfg.LLM.Provider != provider.Ollama && cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("%s %w (set %s)", provider.DisplayName(cfg.LLM.Provider), ErrMissingAPIKey, config.EnvName("llm.api_key"))
	}
	return provider.New(provider.Config{
		Type:    cfg.LLM.Provider,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.Target,
		Model:   cfg.LLM.Model,
		Logger:  logger,
	})
}

// Generator wraps client, which may be nil, in a report generator labeled
// with the configured provider.
func Generator(cfg *config.Config, client llm.Client, logger *slog.Logger) *report.Generator {
	return report.NewGenerator(report.Config{
		Client:   client,
		Provider: provider.DisplayName(cfg.LLM.Provider),
		Model:    cfg.LLM.Model,
		Logger:   logger,
	})
}

// Captioner describes images with client, or returns nil when client is nil.
func Captioner(cfg *config.Config, client llm.Client) extract.Captioner {
	if client == nil {
		return nil
	}
	return &extract.LLMCaptioner{
		Client: client,
		Model:  cfg.LLM.CaptionModel,
	}
}

// OCR returns the tesseract engine, or nil when the binary is not installed.
func OCR(cfg *config.Config, logger *slog.Logger) extract.OCR {
	o := tesseract.New(tesseract.Config{
		Binary:    cfg.OCR.Binary,
		Languages: cfg.OCR.Languages,
		Logger:    logger,
	})
	if !o.Available() {
		logger.Warn("tesseract not found, images will be analyzed without OCR", "binary", cfg.OCR.Binary)
		return nil
	}
	return o
}

// Transcriber builds the configured speech-to-text client. It returns a nil
// transcriber for the "none" provider.
func Transcriber(cfg *config.Config, logger *slog.Logger) (extract.Transcriber, string, error) {
	switch cfg.Transcription.Provider {
	case TranscriptionAssemblyAI:
		t, err := assemblyai.New(assemblyai.Config{
			APIKey:  cfg.Transcription.APIKey,
			BaseURL: cfg.Transcription.Target,
			Logger:  logger,
		})
		if err != nil {
			return nil, "", err
		}
		return t, assemblyai.Name, nil
	case TranscriptionWhisper:
		t, err := whisper.New(whisper.Config{
			APIKey:  cfg.Transcription.APIKey,
			BaseURL: cfg.Transcription.Target,
			Logger:  logger,
		})
		if err != nil {
			return nil, "", err
		}
		return t, whisper.Name, nil
	case TranscriptionNone, "":
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported transcription provider: %s", cfg.Transcription.Provider)
	}
}

// IndexStore opens the configured index store. The SQLite store defaults to
// index.sqlite under persistDir.
func IndexStore(ctx context.Context, cfg *config.Config, persistDir string, logger *slog.Logger) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case StorageSQLite, "":
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = filepath.Join(persistDir, "index.sqlite")
		}
		logger.Debug("using SQLite index store", "path", path)
		d, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, err
		}
		return d, nil
	case StoragePostgres:
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("postgres index store requires storage.postgres_dsn")
		}
		logger.Debug("using PostgreSQL index store")
		d, err := postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return d, nil
	case StorageInMemory:
		logger.Debug("using in-memory index store")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

// Publisher builds the ingest event publisher.
func Publisher(cfg *config.Config, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case EventsNop, "":
		return nop.NewPublisher(), nil
	case EventsKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: SplitList(cfg.Events.Brokers),
			Topic:   cfg.Events.Topic,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Events.Provider)
	}
}

// SplitList splits a comma-separated setting, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
