// Package openai implements llm.Client with the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/medrag/pkg/llm"
	"github.com/papercomputeco/medrag/pkg/logger"
)

const (
	// Name is the provider label used in error messages.
	Name = "OpenAI"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = goopenai.GPT4oMini
)

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint, for proxies and compatible servers.
	BaseURL string

	Model  string
	Logger *slog.Logger
}

// Client wraps the go-openai client.
type Client struct {
	client *goopenai.Client
	model  string
	logger *slog.Logger
}

// New creates an OpenAI client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: cfg.Logger,
	}, nil
}

func (c *Client) buildRequest(req llm.Request) goopenai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	out := goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	for _, msg := range req.Messages() {
		if len(msg.Content) == 1 {
			out.Messages = append(out.Messages, goopenai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.GetText(),
			})
			continue
		}

		parts := make([]goopenai.ChatMessagePart, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch {
			case block.Type == "text":
				parts = append(parts, goopenai.ChatMessagePart{
					Type: goopenai.ChatMessagePartTypeText,
					Text: block.Text,
				})
			case block.Type == "image" && block.Image != nil:
				parts = append(parts, goopenai.ChatMessagePart{
					Type: goopenai.ChatMessagePartTypeImageURL,
					ImageURL: &goopenai.ChatMessageImageURL{
						URL:    "data:" + block.Image.MediaType + ";base64," + base64.StdEncoding.EncodeToString(block.Image.Data),
						Detail: goopenai.ImageURLDetailAuto,
					},
				})
			}
		}
		out.Messages = append(out.Messages, goopenai.ChatCompletionMessage{
			Role:         msg.Role,
			MultiContent: parts,
		})
	}
	return out
}

// Generate sends one chat completion request.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, &llm.APIError{Provider: Name, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *goopenai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &llm.APIError{Provider: Name, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	c.logger.Debug("openai generation complete",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return &llm.Response{
		Model:      resp.Model,
		Text:       resp.Choices[0].Message.Content,
		StopReason: string(resp.Choices[0].FinishReason),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ llm.Client = (*Client)(nil)
