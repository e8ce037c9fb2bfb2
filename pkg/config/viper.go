package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/medrag/pkg/dotdir"
)

// legacyEnv lists the environment variable names older deployments set in
// config/.env. Each key still accepts its MEDRAG_ name first.
var legacyEnv = map[string][]string{
	"vector_store.target":     {"QDRANT_URL"},
	"vector_store.collection": {"QDRANT_COLLECTION_NAME"},
	"vector_store.api_key":    {"QDRANT_API_KEY"},
	"llm.api_key":             {"GEMINI_API_KEY", "OPENAI_API_KEY"},
	"embedding.api_key":       {"OPENAI_API_KEY"},
	"transcription.api_key":   {"ASSEMBLY_API_KEY", "OPENAI_API_KEY"},
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDRAG"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), loads .env files and binds environment
// variables with the MEDRAG_ prefix plus the legacy names.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEDRAG_VECTOR_STORE_TARGET, QDRANT_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. .env files never override variables already in the environment.
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	// 4. Environment variables: MEDRAG_LLM_API_KEY, MEDRAG_INGEST_RAW_DIR, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	return v, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range legacyEnv {
		envs := append([]string{EnvName(key)}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// EnvName returns the MEDRAG_ variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// FromViper materializes the layered settings in v as a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
			APIKey:     v.GetString("vector_store.api_key"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKey:     v.GetString("embedding.api_key"),
		},
		LLM: LLMConfig{
			Provider:     v.GetString("llm.provider"),
			Target:       v.GetString("llm.target"),
			Model:        v.GetString("llm.model"),
			CaptionModel: v.GetString("llm.caption_model"),
			APIKey:       v.GetString("llm.api_key"),
		},
		Transcription: TranscriptionConfig{
			Provider: v.GetString("transcription.provider"),
			Target:   v.GetString("transcription.target"),
			APIKey:   v.GetString("transcription.api_key"),
		},
		OCR: OCRConfig{
			Binary:    v.GetString("ocr.binary"),
			Languages: v.GetString("ocr.languages"),
		},
		Ingest: IngestConfig{
			RawDir: v.GetString("ingest.raw_dir"),
		},
		Query: QueryConfig{
			TopK: v.GetUint("query.top_k"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. Every config key gets a default, even an empty
// one, so AutomaticEnv can resolve it.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	for _, key := range ValidConfigKeys() {
		switch key {
		case "embedding.dimensions":
			v.SetDefault(key, d.Embedding.Dimensions)
		case "query.top_k":
			v.SetDefault(key, d.Query.TopK)
		default:
			v.SetDefault(key, configKeys[key].get(d))
		}
	}
}
