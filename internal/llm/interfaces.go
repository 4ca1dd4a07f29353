// Package llm provides the external model-call capability consumed by the
// memory lifecycle engine: candidate extraction and response generation.
// Provider clients (Ollama, OpenAI, Anthropic, Gemini) are plain HTTP
// clients wrapped with circuit breaker protection and optional request
// pacing. The model is treated as a black box that may fail or return
// malformed output; callers are expected to degrade gracefully.
package llm

import "context"

// ModelCaller is the capability object injected into the engine. Both
// operations may block; they carry bounded timeouts and circuit breaker
// protection internally.
type ModelCaller interface {
	// Extract sends an extraction directive and returns the raw model text,
	// expected (but not guaranteed) to parse as a JSON candidate array.
	Extract(ctx context.Context, prompt string) (string, error)

	// Respond generates a natural-language reply given assembled behavioral
	// directives and the raw user text.
	Respond(ctx context.Context, systemDirectives, userText string) (string, error)

	// Model returns the configured model name, for logging.
	Model() string

	// BreakerState reports the circuit breaker guarding the provider's
	// HTTP calls: "closed", "open", or "half-open".
	BreakerState() string
}
