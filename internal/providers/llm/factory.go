package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/pulsebot/internal/config"
	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
)

// Provider is an AIProvider whose model can be swapped at runtime.
type Provider interface {
	core.AIProvider
	SetModel(model string)
}

// NewProvider creates the appropriate Provider based on configuration.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (Provider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Model), nil
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, cfg.Model), nil
	case "custom":
		return NewCustomOpenAI(cfg.CustomBaseURL, cfg.CustomAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
