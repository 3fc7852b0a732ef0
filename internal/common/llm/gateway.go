// Package llm is the model gateway: one chat-completion call per request
// against an OpenAI-compatible endpoint, optionally behind a circuit breaker.
package llm

import "context"

// Gateway performs a single completion. Implementations never retry.
type Gateway interface {
	// Validate reports a CONFIGURATION_MISSING error when the gateway cannot
	// be used at all, without contacting the provider.
	Validate() error
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
