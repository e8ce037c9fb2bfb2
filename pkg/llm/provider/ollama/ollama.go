// Package ollama implements llm.Client against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
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
	Name = "Ollama"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "llama3.2"
)

// Config holds configuration for the Ollama client.
type Config struct {
	BaseURL string
	Model   string
	Logger  *slog.Logger
}

// Client calls Ollama's chat API without streaming.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an Ollama client.
func New(cfg Config) *Client {
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
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			// local models can be slow to load
			Timeout: 5 * time.Minute,
		},
		logger: cfg.Logger,
	}
}

func (c *Client) buildRequest(req llm.Request) chatRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	temperature := req.Temperature
	body := chatRequest{
		Model: model,
		Options: &optionsFields{
			Temperature: &temperature,
		},
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		body.Options.NumPredict = &maxTokens
	}

	for _, msg := range req.Messages() {
		m := chatMessage{Role: msg.Role, Content: msg.GetText()}
		for _, block := range msg.Content {
			if block.Type == "image" && block.Image != nil {
				m.Images = append(m.Images, base64.StdEncoding.EncodeToString(block.Image.Data))
			}
		}
		body.Messages = append(body.Messages, m)
	}
	return body
}

// Generate sends one chat request and returns the assistant message.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	data, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result chatResponse
	jsonErr := json.Unmarshal(body, &result)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if jsonErr == nil && result.Error != "" {
			msg = result.Error
		}
		return nil, &llm.APIError{Provider: Name, StatusCode: resp.StatusCode, Message: msg}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", jsonErr)
	}

	c.logger.Debug("ollama generation complete",
		"model", result.Model,
		"prompt_tokens", result.PromptEvalCount,
		"completion_tokens", result.EvalCount,
	)

	return &llm.Response{
		Model:      result.Model,
		Text:       result.Message.Content,
		StopReason: result.DoneReason,
		Usage: &llm.Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
	}, nil
}

var _ llm.Client = (*Client)(nil)
