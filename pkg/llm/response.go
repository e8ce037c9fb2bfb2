package llm

// Response is a provider-agnostic generation result.
type Response struct {
	// Model that generated the response
	Model string

	// Text is the concatenated text output.
	Text string

	// Stop reason as reported by the provider (e.g. "stop", "STOP", "length")
	StopReason string

	// Usage is nil when the provider does not report it.
	Usage *Usage
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
