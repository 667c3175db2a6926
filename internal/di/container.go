package di

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/rfq-workflow/internal/adapters/mailsource"
	"github.com/mikey/rfq-workflow/internal/adapters/notify"
	"github.com/mikey/rfq-workflow/internal/adapters/review"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/extraction"
	"github.com/mikey/rfq-workflow/internal/factory"
	"github.com/mikey/rfq-workflow/internal/location"
	"github.com/mikey/rfq-workflow/internal/logging"
	"github.com/mikey/rfq-workflow/internal/ports"
	"github.com/mikey/rfq-workflow/internal/utils"
	"github.com/mikey/rfq-workflow/internal/workflow"
)

// Flags contains the command line flags of the workflow application
type Flags struct {
	ConfigFile     string
	StartDate      string
	EndDate        string
	ExtractOnly    bool
	SkipExtraction bool
	AutoProcess    bool
	Verbose        bool
}

// ParseFlags parses command line flags and returns a Flags struct
func ParseFlags(fs *flag.FlagSet, args []string) (*Flags, error) {
	flags := &Flags{}

	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&flags.StartDate, "start-date", "", "Only process items received on or after this date")
	fs.StringVar(&flags.EndDate, "end-date", "", "Only process items received on or before this date")
	fs.BoolVar(&flags.ExtractOnly, "extract-only", false, "Stop at the review checkpoint")
	fs.BoolVar(&flags.SkipExtraction, "skip-extraction", false, "Resume a run from the saved checkpoint")
	fs.BoolVar(&flags.AutoProcess, "auto-process", false, "Continue to enrichment without asking")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(flags *Flags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *Flags { return flags }); err != nil {
		return nil, err
	}

	// Register resource tracker
	if err := container.Provide(NewResources); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *Flags) (*config.Config, error) {
		cfg, err := config.New(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if flags.Verbose {
			cfg.Set("logging.level", "debug")
		}
		if flags.AutoProcess {
			cfg.Set("processing.auto_process", true)
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register validated settings
	if err := container.Provide(func(cfg *config.Config) (*config.Settings, error) {
		s := cfg.Settings()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(s *config.Settings) (*zap.Logger, error) {
		return logging.InitLogger(s.Logging)
	}); err != nil {
		return nil, err
	}

	// Register run options
	if err := container.Provide(func(flags *Flags) (workflow.Options, error) {
		rng, err := workflow.NewDateRange(flags.StartDate, flags.EndDate, time.Local)
		if err != nil {
			return workflow.Options{}, err
		}
		return workflow.Options{
			Range:          rng,
			ExtractOnly:    flags.ExtractOnly,
			SkipExtraction: flags.SkipExtraction,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	for _, constructor := range []any{
		factory.NewTextProcessorFactory,
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewEnrichmentFactory,
		factory.NewSinkFactory,
	} {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	// Register extraction
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(location.NewExtractor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		s *config.Settings,
		locator *location.Extractor,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) extraction.ItemClassifier {
		return extraction.NewClassifier(extraction.Config{
			MaxBodyLength:         s.Extraction.MaxBodyLength,
			RFQKeywords:           s.Extraction.RFQKeywords,
			ExclusionKeywords:     s.Extraction.ExclusionKeywords,
			ExcludedSenderDomains: s.Extraction.ExcludedSenderDomains,
		}, locator, text, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		classifier extraction.ItemClassifier,
		s *config.Settings,
		logger *zap.Logger,
	) *extraction.Pipeline {
		return extraction.NewPipeline(classifier, review.NewConsoleReporter(os.Stderr), s.Extraction.ProgressInterval, logger)
	}); err != nil {
		return nil, err
	}

	// Register mail source
	if err := container.Provide(func(s *config.Settings, logger *zap.Logger) ports.MailSource {
		return mailsource.NewStore(s.Source.Root, logger)
	}); err != nil {
		return nil, err
	}

	// Register enricher, nil for extract-only runs
	if err := container.Provide(func(
		flags *Flags,
		llm *factory.LLMFactory,
		caches *factory.CacheFactory,
		f *factory.EnrichmentFactory,
		res *Resources,
		logger *zap.Logger,
	) (workflow.Enricher, error) {
		if flags.ExtractOnly {
			return nil, nil
		}
		client, err := llm.CreateLLMClient()
		if err != nil {
			return nil, err
		}
		res.Add(client)

		cache, err := caches.CreateCacheRepository()
		if err != nil {
			return nil, err
		}
		if cache != nil {
			res.Add(cache)
			logger.Info("Enrichment cache enabled", zap.Duration("ttl", caches.GetCacheTTL()))
		}
		return f.CreateScheduler(client, cache)
	}); err != nil {
		return nil, err
	}

	// Register checkpoint gate
	if err := container.Provide(func(s *config.Settings, logger *zap.Logger) *workflow.Gate {
		decider := review.NewConsoleDecider(os.Stdin, os.Stdout, logger)
		return workflow.NewGate(s.Processing.AutoProcess, decider, logger)
	}); err != nil {
		return nil, err
	}

	// Register output sink
	if err := container.Provide(func(f *factory.SinkFactory, res *Resources) (ports.Sink, error) {
		sink, err := f.CreateSink(context.Background())
		if err != nil {
			return nil, err
		}
		res.Add(sink)
		return sink, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(sink ports.Sink, s *config.Settings, logger *zap.Logger) *workflow.Aggregator {
		return workflow.NewAggregator(sink, s.Output.MergeEnrichmentErrors, logger)
	}); err != nil {
		return nil, err
	}

	// Register state file
	if err := container.Provide(func(s *config.Settings) *workflow.StateFile {
		return workflow.NewStateFile(s.Workflow.StateFile)
	}); err != nil {
		return nil, err
	}

	// Register notifier, nil when disabled
	if err := container.Provide(func(s *config.Settings, logger *zap.Logger) ports.Notifier {
		if !s.Notify.Enabled {
			return nil
		}
		return notify.NewSMTPNotifier(s.Notify, logger)
	}); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(func(
		s *config.Settings,
		source ports.MailSource,
		pipeline *extraction.Pipeline,
		gate *workflow.Gate,
		enricher workflow.Enricher,
		aggregator *workflow.Aggregator,
		state *workflow.StateFile,
		notifier ports.Notifier,
		logger *zap.Logger,
	) *workflow.Orchestrator {
		folder := workflow.Folder{Account: s.Source.Account, Path: s.Source.Folder}
		return workflow.NewOrchestrator(source, folder, pipeline, gate, enricher, aggregator, state, notifier, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
