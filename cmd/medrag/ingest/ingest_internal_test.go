package ingestcmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/config"
)

var _ = Describe("captionerName", func() {
	It("names the configured generation provider", func() {
		cfg := &config.Config{LLM: config.LLMConfig{Provider: "gemini"}}
		Expect(captionerName(cfg)).To(Equal("Gemini"))

		cfg.LLM.Provider = "ollama"
		Expect(captionerName(cfg)).To(Equal("Ollama"))
	})

	It("falls back to the raw provider string", func() {
		cfg := &config.Config{LLM: config.LLMConfig{Provider: "custom"}}
		Expect(captionerName(cfg)).To(Equal("custom"))
	})
})
