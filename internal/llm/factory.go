package llm

import (
	"context"
	"fmt"
	"strings"

	"mindmate/internal/config"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	GeminiAPIKey       string
	GeminiModel        string
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		GeminiAPIKey:       cfg.GeminiAPIKey,
		GeminiModel:        cfg.GeminiModel,
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenaiModel:        cfg.OpenAIModel,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(ctx context.Context, provider string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderGemini:
		return NewGemini(ctx, f.GeminiAPIKey, f.GeminiModel)
	case config.ProviderOpenAI:
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel, f.OpenRouterReferrer, f.OpenRouterTitle), nil
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
