package openai

import (
	"errors"
	"net/http"

	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg config.OpenAIConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new OpenAIClient, pointed at OpenRouter when configured
func (f *Factory) CreateLLMClient() (core.ModelClient, error) {
	if f.cfg.APIKey == "" {
		return nil, errors.New("no API key configured for OpenAI (set openai.api_key, OPENAI_API_KEY or OPENROUTER_API_KEY)")
	}

	if !f.cfg.UseOpenRouter {
		f.logger.Info("Using OpenAI", zap.String("model", f.cfg.ModelName))
		return NewOpenAIClient(openai.NewClient(f.cfg.APIKey), f.cfg.ModelName, f.logger), nil
	}

	clientCfg := openai.DefaultConfig(f.cfg.APIKey)
	clientCfg.BaseURL = OpenRouterBaseURL
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": f.cfg.OpenRouterReferer,
				"X-Title":      f.cfg.OpenRouterTitle,
			},
		},
	}

	f.logger.Info("Using OpenRouter", zap.String("model", f.cfg.OpenRouterModel))
	return NewOpenAIClient(openai.NewClientWithConfig(clientCfg), f.cfg.OpenRouterModel, f.logger), nil
}
