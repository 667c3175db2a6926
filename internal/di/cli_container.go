package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/extraction"
	"github.com/mikey/rfq-workflow/internal/factory"
	"github.com/mikey/rfq-workflow/internal/location"
	"github.com/mikey/rfq-workflow/internal/logging"
	"github.com/mikey/rfq-workflow/internal/utils"
	"github.com/mikey/rfq-workflow/internal/workflow"
)

// CLIFlags contains all command line flags for the single message CLI
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	UseOpenRouter   bool

	// Extraction flags
	MaxBodyLength   int
	ExcludedDomains []string

	// Input flags
	InputFile  string
	Enrich     bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseCLIFlags parses command line flags and returns a CLIFlags struct
func ParseCLIFlags(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (bedrock, gemini, openai)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 700, "Maximum tokens for the model response")
	fs.Float64Var(&flags.Temperature, "temperature", 0, "Temperature for model generation")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI or OpenRouter")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")
	fs.BoolVar(&flags.UseOpenRouter, "openrouter", false, "Send OpenAI requests through OpenRouter")

	// Extraction flags
	fs.IntVar(&flags.MaxBodyLength, "max-body-length", 5000, "Maximum body length of an admitted record")
	fs.Func("exclude-domain", "Sender domain to exclude (repeatable)", func(s string) error {
		flags.ExcludedDomains = append(flags.ExcludedDomains, s)
		return nil
	})

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input message file (use stdin if not specified)")
	fs.BoolVar(&flags.Enrich, "enrich", false, "Enrich the message when it is admitted")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register resource tracker
	if err := container.Provide(NewResources); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
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

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEnrichmentFactory); err != nil {
		return nil, err
	}

	// Register classifier
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
	) *extraction.Classifier {
		return extraction.NewClassifier(extraction.Config{
			MaxBodyLength:         s.Extraction.MaxBodyLength,
			RFQKeywords:           s.Extraction.RFQKeywords,
			ExclusionKeywords:     s.Extraction.ExclusionKeywords,
			ExcludedSenderDomains: s.Extraction.ExcludedSenderDomains,
		}, locator, text, logger)
	}); err != nil {
		return nil, err
	}

	// Register enricher without a cache, nil unless requested
	if err := container.Provide(func(
		flags *CLIFlags,
		llm *factory.LLMFactory,
		f *factory.EnrichmentFactory,
		res *Resources,
	) (workflow.Enricher, error) {
		if !flags.Enrich {
			return nil, nil
		}
		client, err := llm.CreateLLMClient()
		if err != nil {
			return nil, err
		}
		res.Add(client)
		return f.CreateScheduler(client, nil)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)
	v.Set("processing.max_tokens", flags.MaxTokens)
	v.Set("processing.temperature", flags.Temperature)
	v.Set("processing.retry_attempts", 1)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.use_openrouter", flags.UseOpenRouter)
	}

	// Set extraction settings
	v.Set("extraction.max_body_length", flags.MaxBodyLength)
	v.Set("extraction.excluded_sender_domains", flags.ExcludedDomains)

	return config.NewFromViper(v)
}
