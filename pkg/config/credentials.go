package config

import (
	"fmt"

	"github.com/papercomputeco/medrag/pkg/credentials"
)

// LoadCredentials reads credentials.toml from the resolved configDir and
// fills any api_key left empty in cfg.
func LoadCredentials(cfg *Config, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}

	creds, err := mgr.Load()
	if err != nil {
		return err
	}

	ApplyCredentials(cfg, creds)
	return nil
}

// ApplyCredentials fills empty api_key settings from stored provider keys.
// Keys already set by flags, environment or config.toml are kept.
func ApplyCredentials(cfg *Config, creds *credentials.Credentials) {
	fill := func(dst *string, provider string) {
		if *dst == "" {
			*dst = creds.Key(provider)
		}
	}

	fill(&cfg.LLM.APIKey, cfg.LLM.Provider)
	fill(&cfg.Embedding.APIKey, cfg.Embedding.Provider)
	fill(&cfg.VectorStore.APIKey, cfg.VectorStore.Provider)

	switch cfg.Transcription.Provider {
	case "whisper":
		fill(&cfg.Transcription.APIKey, credentials.OpenAI)
	default:
		fill(&cfg.Transcription.APIKey, cfg.Transcription.Provider)
	}
}
