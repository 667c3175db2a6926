package factory

import (
	"fmt"

	"github.com/mikey/rfq-workflow/internal/adapters/bedrock"
	"github.com/mikey/rfq-workflow/internal/adapters/gemini"
	"github.com/mikey/rfq-workflow/internal/adapters/openai"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates model clients
type LLMFactory struct {
	settings *config.Settings
	logger   *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(settings *config.Settings, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		settings: settings,
		logger:   logger,
	}
}

// CreateLLMClient creates a new model client for the configured provider
func (f *LLMFactory) CreateLLMClient() (core.ModelClient, error) {
	switch provider := f.settings.LLM.Provider; provider {
	case "bedrock":
		return bedrock.NewFactory(f.settings.Bedrock, f.logger).CreateLLMClient()
	case "gemini":
		return gemini.NewFactory(f.settings.Gemini, f.logger).CreateLLMClient()
	case "openai":
		return openai.NewFactory(f.settings.OpenAI, f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
