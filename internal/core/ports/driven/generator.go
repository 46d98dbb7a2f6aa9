package driven

import "context"

// AnswerGenerator produces a prose answer from retrieved context.
// Optional; retrieval works without one.
type AnswerGenerator interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// ModelName returns the model identifier in use.
	ModelName() string
}

// GenerateOptions tune a generation request.
type GenerateOptions struct {
	// MaxTokens limits the completion length (0 = provider default).
	MaxTokens int

	// Temperature controls randomness (0 = provider default).
	Temperature float64
}
