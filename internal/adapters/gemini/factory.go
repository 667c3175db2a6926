package gemini

import (
	"context"
	"errors"

	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    config.GeminiConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new GeminiClient
func (f *Factory) CreateLLMClient() (core.ModelClient, error) {
	if f.cfg.APIKey == "" {
		return nil, errors.New("no API key configured for Gemini (set gemini.api_key or GEMINI_API_KEY)")
	}
	f.logger.Info("Using Gemini", zap.String("model", f.cfg.ModelName))
	return NewGeminiClient(context.Background(), f.cfg.APIKey, f.cfg.ModelName, f.logger)
}
