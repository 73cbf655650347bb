package llm

import "context"

// Provider is a text generation backend.
type Provider interface {
	// Complete sends a completion request and returns the generated candidates.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
