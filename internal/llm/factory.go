package llm

import (
	"fmt"
	"time"
)

// Config selects and configures a model provider.
type Config struct {
	Provider          string        // ollama, openai, anthropic, gemini
	BaseURL           string        // provider endpoint override
	APIKey            string        // for hosted providers
	Model             string        // provider model name
	Timeout           time.Duration // per-request timeout
	RequestsPerMinute int           // 0 disables pacing
}

// NewModelCaller creates the appropriate provider client and wraps it with
// request pacing when configured.
func NewModelCaller(cfg Config) (ModelCaller, error) {
	var (
		caller ModelCaller
		err    error
	)

	switch cfg.Provider {
	case "ollama", "":
		caller = NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout})
	case "openai":
		caller = NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	case "anthropic":
		caller = NewAnthropicClient(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	case "gemini":
		caller = NewGeminiClient(GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	default:
		err = fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewThrottled(caller, cfg.RequestsPerMinute), nil
}
