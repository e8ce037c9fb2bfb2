// Package llm defines the text generation boundary and the provider-neutral
// request and response types that cross it.
package llm

import "context"

// Client generates a single completion. Implementations live under
// pkg/llm/provider.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
