package testutils

import (
	"context"

	"github.com/papercomputeco/medrag/pkg/llm"
)

// MockLLMClient records requests and returns a canned response or error.
type MockLLMClient struct {
	// Text is returned as the response text.
	Text string

	// Err, when set, is returned instead of a response.
	Err error

	Requests []llm.Request
}

func NewMockLLMClient(text string) *MockLLMClient {
	return &MockLLMClient{Text: text}
}

func (m *MockLLMClient) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.Response{Model: "mock", Text: m.Text, StopReason: "stop"}, nil
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockLLMClient) LastRequest() llm.Request {
	if len(m.Requests) == 0 {
		return llm.Request{}
	}
	return m.Requests[len(m.Requests)-1]
}
