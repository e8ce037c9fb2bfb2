package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/medrag/pkg/llm"
)

// DefaultCaptionPrompt asks for a clinically focused image description.
const DefaultCaptionPrompt = "Analyze this medical image (e.g., X-ray, ECG, MRI). " +
	"Provide a concise, detailed description of the findings, including any " +
	"visible abnormalities, labels, or key characteristics. " +
	"Focus on clinical relevance for diagnosis."

// LLMCaptioner captions images with a multimodal generation model.
type LLMCaptioner struct {
	Client llm.Client

	// Model overrides the client's default model, e.g. a faster vision model.
	Model string

	// Prompt defaults to DefaultCaptionPrompt.
	Prompt string
}

// Caption implements Captioner.
func (c *LLMCaptioner) Caption(ctx context.Context, path string) (string, error) {
	if c.Client == nil {
		return "", fmt.Errorf("no generation client configured for captioning")
	}

	img, err := llm.LoadImage(path)
	if err != nil {
		return "", err
	}

	prompt := c.Prompt
	if prompt == "" {
		prompt = DefaultCaptionPrompt
	}

	resp, err := c.Client.Generate(ctx, llm.Request{
		Model:  c.Model,
		Prompt: prompt,
		Images: []llm.Image{img},
	})
	if err != nil {
		return "", fmt.Errorf("captioning %s: %w", path, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
