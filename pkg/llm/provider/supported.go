package provider

import (
	"github.com/papercomputeco/medrag/pkg/llm/provider/gemini"
	"github.com/papercomputeco/medrag/pkg/llm/provider/ollama"
	"github.com/papercomputeco/medrag/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Gemini = "gemini"
	OpenAI = "openai"
	Ollama = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Gemini, OpenAI, Ollama}
}

// DisplayName is the label a provider's failures are reported under.
// Unknown types are returned unchanged.
func DisplayName(providerType string) string {
	switch providerType {
	case Gemini:
		return gemini.Name
	case OpenAI:
		return openai.Name
	case Ollama:
		return ollama.Name
	default:
		return providerType
	}
}
