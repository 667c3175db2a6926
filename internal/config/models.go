package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Settings is the immutable configuration handed to components
type Settings struct {
	Source     SourceConfig
	Extraction ExtractionConfig
	Processing ProcessingConfig
	LLM        LLMConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Bedrock    BedrockConfig
	Cache      CacheConfig
	Output     OutputConfig
	Workflow   WorkflowConfig
	Notify     NotifyConfig
	Logging    LoggingConfig
}

// SourceConfig represents the mail source location
type SourceConfig struct {
	Root    string
	Account string
	Folder  string
}

// ExtractionConfig represents the classifier and pipeline configuration
type ExtractionConfig struct {
	ProgressInterval      int
	MaxBodyLength         int
	ExcludedSenderDomains []string
	RFQKeywords           []string
	ExclusionKeywords     []string
}

// ProcessingConfig represents the enrichment scheduler configuration
type ProcessingConfig struct {
	Concurrency         int
	BatchSize           int
	SleepBetweenBatches time.Duration
	RetryAttempts       int
	RetryMinWait        time.Duration
	RetryMaxWait        time.Duration
	RetryJitter         float64
	RequestTimeout      time.Duration
	RateLimitRPS        float64
	MaxTokens           int
	Temperature         float32
	ProductListFile     string
	AutoProcess         bool
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI and OpenRouter
type OpenAIConfig struct {
	APIKey            string
	ModelName         string
	UseOpenRouter     bool
	OpenRouterModel   string
	OpenRouterReferer string
	OpenRouterTitle   string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
}

// CacheConfig represents the enrichment cache configuration
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// S3Config represents the output mirror bucket
type S3Config struct {
	Enabled  bool
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// KafkaConfig represents the output record stream
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// OutputConfig represents where record sets are written
type OutputConfig struct {
	Type                  string
	Dir                   string
	Basename              string
	MergeEnrichmentErrors bool
	S3                    S3Config
	Kafka                 KafkaConfig
}

// WorkflowConfig represents the workflow state persistence
type WorkflowConfig struct {
	StateFile string
}

// NotifyConfig represents the summary mail
type NotifyConfig struct {
	Enabled  bool
	SMTPAddr string
	Username string
	Password string
	From     string
	To       []string
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Settings reads the configuration into an immutable value
func (c *Config) Settings() *Settings {
	return &Settings{
		Source: SourceConfig{
			Root:    c.GetString("source.root"),
			Account: c.GetString("source.account"),
			Folder:  c.GetString("source.folder"),
		},
		Extraction: ExtractionConfig{
			ProgressInterval:      c.GetInt("extraction.progress_interval"),
			MaxBodyLength:         c.GetInt("extraction.max_body_length"),
			ExcludedSenderDomains: c.GetStringSlice("extraction.excluded_sender_domains"),
			RFQKeywords:           c.GetStringSlice("extraction.rfq_keywords"),
			ExclusionKeywords:     c.GetStringSlice("extraction.exclusion_keywords"),
		},
		Processing: c.GetProcessing(),
		LLM:        c.GetLLM(),
		OpenAI:     c.GetOpenAI(),
		Gemini:     c.GetGemini(),
		Bedrock:    c.GetBedrock(),
		Cache: CacheConfig{
			Enabled:          c.GetBool("cache.enabled"),
			Type:             c.GetString("cache.type"),
			TTL:              c.GetDuration("cache.ttl"),
			CleanupFrequency: c.GetDuration("cache.cleanup_frequency"),
			SQLitePath:       c.GetString("cache.sqlite_path"),
			MySQLDSN:         c.GetString("cache.mysql_dsn"),
			RedisAddr:        c.GetString("cache.redis_addr"),
			RedisPassword:    c.GetString("cache.redis_password"),
			RedisDB:          c.GetInt("cache.redis_db"),
		},
		Output: OutputConfig{
			Type:                  c.GetString("output.type"),
			Dir:                   c.GetString("output.dir"),
			Basename:              c.GetString("output.basename"),
			MergeEnrichmentErrors: c.GetBool("output.merge_enrichment_errors"),
			S3: S3Config{
				Enabled:  c.GetBool("output.s3.enabled"),
				Bucket:   c.GetString("output.s3.bucket"),
				Prefix:   c.GetString("output.s3.prefix"),
				Region:   c.GetString("output.s3.region"),
				Endpoint: c.GetString("output.s3.endpoint"),
			},
			Kafka: KafkaConfig{
				Brokers:     c.GetStringSlice("output.kafka.brokers"),
				TopicPrefix: c.GetString("output.kafka.topic_prefix"),
			},
		},
		Workflow: WorkflowConfig{
			StateFile: c.GetString("workflow.state_file"),
		},
		Notify: NotifyConfig{
			Enabled:  c.GetBool("notify.enabled"),
			SMTPAddr: c.GetString("notify.smtp_addr"),
			Username: c.GetString("notify.username"),
			Password: c.GetString("notify.password"),
			From:     c.GetString("notify.from"),
			To:       c.GetStringSlice("notify.to"),
		},
		Logging: LoggingConfig{
			Level:  c.GetString("logging.level"),
			Format: c.GetString("logging.format"),
		},
	}
}

// GetProcessing returns the enrichment scheduler configuration
func (c *Config) GetProcessing() ProcessingConfig {
	return ProcessingConfig{
		Concurrency:         c.GetInt("processing.concurrency"),
		BatchSize:           c.GetInt("processing.batch_size"),
		SleepBetweenBatches: c.GetDuration("processing.sleep_between_batches"),
		RetryAttempts:       c.GetInt("processing.retry_attempts"),
		RetryMinWait:        c.GetDuration("processing.retry_min_wait"),
		RetryMaxWait:        c.GetDuration("processing.retry_max_wait"),
		RetryJitter:         c.GetFloat64("processing.retry_jitter"),
		RequestTimeout:      c.GetDuration("processing.request_timeout"),
		RateLimitRPS:        c.GetFloat64("processing.rate_limit_rps"),
		MaxTokens:           c.GetInt("processing.max_tokens"),
		Temperature:         float32(c.GetFloat64("processing.temperature")),
		ProductListFile:     c.GetString("processing.product_list_file"),
		AutoProcess:         c.GetBool("processing.auto_process"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration. The key falls back to
// OPENROUTER_API_KEY and then OPENAI_API_KEY.
func (c *Config) GetOpenAI() OpenAIConfig {
	cfg := OpenAIConfig{
		APIKey:            c.GetString("openai.api_key"),
		ModelName:         c.GetString("openai.model_name"),
		UseOpenRouter:     c.GetBool("openai.use_openrouter"),
		OpenRouterModel:   c.GetString("openai.openrouter_model"),
		OpenRouterReferer: c.GetString("openai.openrouter_referer"),
		OpenRouterTitle:   c.GetString("openai.openrouter_title"),
	}
	if cfg.APIKey == "" && cfg.UseOpenRouter {
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	cfg := GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}

// Validate rejects settings no component can run with
func (s *Settings) Validate() error {
	var errs []error
	p := s.Processing
	if p.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("processing.concurrency must be positive, got %d", p.Concurrency))
	}
	if p.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("processing.batch_size must not be negative, got %d", p.BatchSize))
	}
	if p.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("processing.retry_attempts must be at least 1, got %d", p.RetryAttempts))
	}
	if p.RetryMinWait < 0 || p.RetryMinWait > p.RetryMaxWait {
		errs = append(errs, fmt.Errorf("processing.retry_min_wait %s must be between 0 and retry_max_wait %s", p.RetryMinWait, p.RetryMaxWait))
	}
	if p.RetryJitter < 0 || p.RetryJitter >= 1 {
		errs = append(errs, fmt.Errorf("processing.retry_jitter must be in [0, 1), got %g", p.RetryJitter))
	}
	if p.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("processing.rate_limit_rps must not be negative, got %g", p.RateLimitRPS))
	}
	if s.Extraction.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("extraction.progress_interval must be positive, got %d", s.Extraction.ProgressInterval))
	}
	switch s.LLM.Provider {
	case "openai", "gemini", "bedrock":
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider: %q", s.LLM.Provider))
	}
	if s.Cache.Enabled {
		switch s.Cache.Type {
		case "memory", "sqlite", "mysql", "redis":
		default:
			errs = append(errs, fmt.Errorf("unsupported cache type: %q", s.Cache.Type))
		}
	}
	switch s.Output.Type {
	case "csv", "kafka":
	default:
		errs = append(errs, fmt.Errorf("unsupported output type: %q", s.Output.Type))
	}
	if s.Output.S3.Enabled && s.Output.S3.Bucket == "" {
		errs = append(errs, errors.New("output.s3.bucket is required when output.s3.enabled is set"))
	}
	if s.Notify.Enabled && len(s.Notify.To) == 0 {
		errs = append(errs, errors.New("notify.to is required when notify.enabled is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
