package factory

import (
	"fmt"
	"time"

	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/enrichment"
	"go.uber.org/zap"
)

// EnrichmentFactory creates the enrichment scheduler
type EnrichmentFactory struct {
	cfg    config.ProcessingConfig
	ttl    time.Duration
	logger *zap.Logger
}

// NewEnrichmentFactory creates a new enrichment factory
func NewEnrichmentFactory(settings *config.Settings, logger *zap.Logger) *EnrichmentFactory {
	return &EnrichmentFactory{
		cfg:    settings.Processing,
		ttl:    settings.Cache.TTL,
		logger: logger,
	}
}

// Options maps the processing configuration onto scheduler options
func (f *EnrichmentFactory) Options() enrichment.Options {
	return enrichment.Options{
		Concurrency:         f.cfg.Concurrency,
		BatchSize:           f.cfg.BatchSize,
		SleepBetweenBatches: f.cfg.SleepBetweenBatches,
		RequestTimeout:      f.cfg.RequestTimeout,
		RateLimitRPS:        f.cfg.RateLimitRPS,
		Retry: enrichment.RetryPolicy{
			Attempts:   f.cfg.RetryAttempts,
			MinWait:    f.cfg.RetryMinWait,
			MaxWait:    f.cfg.RetryMaxWait,
			Multiplier: 2,
			JitterFrac: f.cfg.RetryJitter,
		},
		MaxTokens:   f.cfg.MaxTokens,
		Temperature: f.cfg.Temperature,
		CacheTTL:    f.ttl,
	}
}

// Products returns the product list used in prompts
func (f *EnrichmentFactory) Products() ([]string, error) {
	if f.cfg.ProductListFile == "" {
		return enrichment.DefaultProducts(), nil
	}
	products, err := enrichment.LoadProductList(f.cfg.ProductListFile)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded product list",
		zap.String("file", f.cfg.ProductListFile),
		zap.Int("count", len(products)))
	return products, nil
}

// CreateScheduler creates a scheduler for the client. cache may be nil.
func (f *EnrichmentFactory) CreateScheduler(client core.ModelClient, cache core.CacheRepository) (*enrichment.Scheduler, error) {
	parser, err := enrichment.NewParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create response parser: %w", err)
	}
	products, err := f.Products()
	if err != nil {
		return nil, err
	}

	var options []enrichment.Option
	if cache != nil {
		options = append(options, enrichment.WithCache(cache))
	}
	return enrichment.NewScheduler(client, parser, enrichment.NewPromptBuilder(products), f.Options(), f.logger, options...), nil
}
