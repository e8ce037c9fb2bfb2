package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent medrag configuration stored as config.toml
// in the .medrag/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version       int                 `toml:"version"`
	Storage       StorageConfig       `toml:"storage"`
	VectorStore   VectorStoreConfig   `toml:"vector_store"`
	Embedding     EmbeddingConfig     `toml:"embedding"`
	LLM           LLMConfig           `toml:"llm"`
	Transcription TranscriptionConfig `toml:"transcription"`
	OCR           OCRConfig           `toml:"ocr"`
	Ingest        IngestConfig        `toml:"ingest"`
	Query         QueryConfig         `toml:"query"`
	API           APIConfig           `toml:"api"`
	Events        EventsConfig        `toml:"events"`
}

// StorageConfig selects the index store that records what has been ingested.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// LLMConfig holds the generation provider used for reports and image
// captions.
type LLMConfig struct {
	Provider     string `toml:"provider,omitempty"`
	Target       string `toml:"target,omitempty"`
	Model        string `toml:"model,omitempty"`
	CaptionModel string `toml:"caption_model,omitempty"`
	APIKey       string `toml:"api_key,omitempty"`
}

// TranscriptionConfig holds the speech-to-text provider for audio files.
type TranscriptionConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// OCRConfig configures the tesseract binary used on images.
type OCRConfig struct {
	Binary    string `toml:"binary,omitempty"`
	Languages string `toml:"languages,omitempty"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	// RawDir contains the text/, images/ and audio/ subdirectories.
	RawDir string `toml:"raw_dir,omitempty"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	TopK uint `toml:"top_k,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig selects where ingest events are published.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":    stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.api_key":    stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),

	"llm.provider":      stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":        stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":         stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.caption_model": stringKey(func(c *Config) *string { return &c.LLM.CaptionModel }),
	"llm.api_key":       stringKey(func(c *Config) *string { return &c.LLM.APIKey }),

	"transcription.provider": stringKey(func(c *Config) *string { return &c.Transcription.Provider }),
	"transcription.target":   stringKey(func(c *Config) *string { return &c.Transcription.Target }),
	"transcription.api_key":  stringKey(func(c *Config) *string { return &c.Transcription.APIKey }),

	"ocr.binary":    stringKey(func(c *Config) *string { return &c.OCR.Binary }),
	"ocr.languages": stringKey(func(c *Config) *string { return &c.OCR.Languages }),

	"ingest.raw_dir": stringKey(func(c *Config) *string { return &c.Ingest.RawDir }),

	"query.top_k": uintKey("query.top_k", func(c *Config) *uint { return &c.Query.TopK }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.collection",
	"vector_store.api_key",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"embedding.api_key",
	"llm.provider",
	"llm.target",
	"llm.model",
	"llm.caption_model",
	"llm.api_key",
	"transcription.provider",
	"transcription.target",
	"transcription.api_key",
	"ocr.binary",
	"ocr.languages",
	"ingest.raw_dir",
	"query.top_k",
	"api.listen",
	"events.provider",
	"events.brokers",
	"events.topic",
}

// secretKeys are masked by `medrag config list`.
var secretKeys = map[string]bool{
	"vector_store.api_key":  true,
	"embedding.api_key":     true,
	"llm.api_key":           true,
	"transcription.api_key": true,
	"storage.postgres_dsn":  true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}
