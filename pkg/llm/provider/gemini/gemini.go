// Package gemini implements llm.Client against the Google Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/logger"
)

const (
	// Name is the provider label used in error messages.
	Name = "Gemini"

	// DefaultBaseURL is the public Generative Language API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "gemini-2.5-pro"
)

// Config holds configuration for the Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *slog.Logger
}

// Client calls models/{model}:generateContent.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Gemini client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 3 * time.Minute,
		},
		logger: cfg.Logger,
	}, nil
}

func buildRequest(req llm.Request) generateRequest {
	out := generateRequest{
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	for _, msg := range req.Messages() {
		if msg.Role == llm.RoleSystem {
			out.SystemInstruction = &content{Parts: []part{{Text: msg.GetText()}}}
			continue
		}

		c := content{Role: "user"}
		for _, block := range msg.Content {
			switch {
			case block.Type == "text" && block.Text != "":
				c.Parts = append(c.Parts, part{Text: block.Text})
			case block.Type == "image" && block.Image != nil:
				c.Parts = append(c.Parts, part{InlineData: &inlineData{
					MimeType: block.Image.MediaType,
					Data:     base64.StdEncoding.EncodeToString(block.Image.Data),
				}})
			}
		}
		if len(c.Parts) == 0 {
			c.Parts = []part{{Text: ""}}
		}
		out.Contents = append(out.Contents, c)
	}
	return out
}

// Generate sends one generateContent request and concatenates the text parts
// of the first candidate.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	data, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result generateResponse
	jsonErr := json.Unmarshal(body, &result)

	if jsonErr == nil && result.Error != nil {
		return nil, &llm.APIError{Provider: Name, StatusCode: result.Error.Code, Message: result.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.APIError{Provider: Name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", jsonErr)
	}

	out := &llm.Response{Model: model}
	if result.ModelVersion != "" {
		out.Model = result.ModelVersion
	}
	if len(result.Candidates) > 0 {
		cand := result.Candidates[0]
		out.StopReason = cand.FinishReason
		if cand.Content != nil {
			var sb strings.Builder
			for _, p := range cand.Content.Parts {
				sb.WriteString(p.Text)
			}
			out.Text = sb.String()
		}
	}
	if result.UsageMetadata != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		}
	}

	c.logger.Debug("gemini generation complete",
		"model", out.Model,
		"finish_reason", out.StopReason,
	)
	return out, nil
}

var _ llm.Client = (*Client)(nil)
