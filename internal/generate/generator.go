// Package generate defines the text-generation collaborator the pipeline
// drives. The pipeline only needs a prompt-in, text-out call; the concrete
// client speaks the OpenAI-compatible chat completions protocol.
package generate

import "context"

// Generator produces text for a prompt. Calls block until the response
// arrives or the bounded wait expires; errors are never retried by the
// pipeline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
