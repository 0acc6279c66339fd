package llm

import (
	"fmt"

	"github.com/openai/openai-go/option"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements Provider for OpenRouter, which exposes many
// upstream models behind an OpenAI-compatible API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(cfg ProviderConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels["openrouter"]
	}

	var extra []option.RequestOption
	if cfg.HTTPReferer != "" {
		extra = append(extra, option.WithHeader("HTTP-Referer", cfg.HTTPReferer))
	}
	if cfg.AppTitle != "" {
		extra = append(extra, option.WithHeader("X-Title", cfg.AppTitle))
	}

	return &OpenRouterProvider{
		OpenAIProvider: newChatCompletionsProvider("openrouter", model, cfg, extra...),
	}, nil
}

var _ Provider = (*OpenRouterProvider)(nil)
