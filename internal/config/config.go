// Package config holds process configuration: environment-sourced
// settings for the AI provider and analysis runtime, plus the optional
// per-repository .repolens.yaml project file.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	AI       AIConfig
	Analysis AnalysisConfig
}

// AIConfig configures the summarization provider and orchestrator.
type AIConfig struct {
	// Provider name: anthropic, openai, ollama, or empty to disable.
	Provider string

	AnthropicKey   string
	AnthropicModel string

	OpenAIKey   string
	OpenAIModel string

	OllamaURL   string
	OllamaModel string

	// Orchestrator tuning.
	Concurrency int
	CallDelay   time.Duration
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration

	// SymbolSummaries enables per-symbol calls in addition to per-module
	// ones; always suppressed for small local models.
	SymbolSummaries bool
}

// AnalysisConfig tunes the parse pipeline.
type AnalysisConfig struct {
	// Workers bounds parallel file parsing; 0 means one per CPU.
	Workers int

	// ParseTimeout bounds a single parser invocation so a pathological
	// file cannot wedge the run.
	ParseTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AI: AIConfig{
			Provider:        getEnv("REPOLENS_AI_PROVIDER", ""),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("REPOLENS_ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("REPOLENS_OPENAI_MODEL", "gpt-4o-mini"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("REPOLENS_OLLAMA_MODEL", "qwen2.5-coder:7b"),
			Concurrency:     getEnvInt("REPOLENS_AI_CONCURRENCY", 3),
			CallDelay:       getEnvDuration("REPOLENS_AI_CALL_DELAY", 200*time.Millisecond),
			Timeout:         getEnvDuration("REPOLENS_AI_TIMEOUT", 2*time.Minute),
			MaxRetries:      getEnvInt("REPOLENS_AI_MAX_RETRIES", 3),
			BackoffBase:     getEnvDuration("REPOLENS_AI_BACKOFF_BASE", time.Second),
			SymbolSummaries: getEnvBool("REPOLENS_AI_SYMBOL_SUMMARIES", true),
		},
		Analysis: AnalysisConfig{
			Workers:      getEnvInt("REPOLENS_WORKERS", 0),
			ParseTimeout: getEnvDuration("REPOLENS_PARSE_TIMEOUT", 30*time.Second),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
