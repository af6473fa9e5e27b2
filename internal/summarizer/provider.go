// Package summarizer generates AI summaries for analyzed modules and
// their exported symbols: provider clients, a hash-keyed summary cache,
// a bounded admission gate, and the orchestrator that fans calls out
// across them.
package summarizer

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/repolens/repolens/internal/config"
)

// GenerateOptions tune a single completion call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	System      string
}

// Provider is a single-model completion backend.
type Provider interface {
	Name() string
	Model() string

	// SmallModel reports whether this is a small local model; symbol-level
	// summarization is skipped for those.
	SmallModel() bool

	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// NewProvider builds the configured provider. A missing key, empty
// provider name, or unknown name yields (nil, nil): summarization is
// optional and its absence is not an error.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			log.Warn().Msg("anthropic provider selected but ANTHROPIC_API_KEY is not set, skipping summarization")
			return nil, nil
		}
		return NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel, cfg.Timeout), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			log.Warn().Msg("openai provider selected but OPENAI_API_KEY is not set, skipping summarization")
			return nil, nil
		}
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Timeout), nil
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout), nil
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("unknown AI provider, skipping summarization")
		return nil, nil
	}
}
