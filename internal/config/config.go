package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. An explicit path overrides the search paths.
func New(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("workflow")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/rfq-workflow/")
		v.AddConfigPath("$HOME/.rfq-workflow")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("RFQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Load reads the configuration and returns validated settings
func Load(path string) (*Settings, error) {
	cfg, err := New(path)
	if err != nil {
		return nil, err
	}
	s := cfg.Settings()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Mail source defaults
	v.SetDefault("source.root", "./mail")
	v.SetDefault("source.account", "")
	v.SetDefault("source.folder", "INBOX")

	// Extraction defaults
	v.SetDefault("extraction.progress_interval", 10)
	v.SetDefault("extraction.max_body_length", 5000)
	v.SetDefault("extraction.excluded_sender_domains", []string{})
	v.SetDefault("extraction.rfq_keywords", []string{})
	v.SetDefault("extraction.exclusion_keywords", []string{})

	// Processing defaults
	v.SetDefault("processing.concurrency", 10)
	v.SetDefault("processing.batch_size", 0)
	v.SetDefault("processing.sleep_between_batches", "0s")
	v.SetDefault("processing.retry_attempts", 3)
	v.SetDefault("processing.retry_min_wait", "2s")
	v.SetDefault("processing.retry_max_wait", "20s")
	v.SetDefault("processing.retry_jitter", 0.2)
	v.SetDefault("processing.request_timeout", "60s")
	v.SetDefault("processing.rate_limit_rps", 0.0)
	v.SetDefault("processing.max_tokens", 700)
	v.SetDefault("processing.temperature", 0.0)
	v.SetDefault("processing.product_list_file", "")
	v.SetDefault("processing.auto_process", false)

	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.use_openrouter", false)
	v.SetDefault("openai.openrouter_model", "openai/gpt-4o-mini")
	v.SetDefault("openai.openrouter_referer", "https://github.com/mikey/rfq-workflow")
	v.SetDefault("openai.openrouter_title", "RFQ Workflow")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "outputs/enrichment_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/rfq_workflow")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Output defaults
	v.SetDefault("output.type", "csv")
	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.basename", "emails")
	v.SetDefault("output.merge_enrichment_errors", false)
	v.SetDefault("output.s3.enabled", false)
	v.SetDefault("output.s3.bucket", "")
	v.SetDefault("output.s3.prefix", "rfq-workflow")
	v.SetDefault("output.s3.region", "us-east-1")
	v.SetDefault("output.s3.endpoint", "")
	v.SetDefault("output.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("output.kafka.topic_prefix", "rfq")

	// Workflow defaults
	v.SetDefault("workflow.state_file", "outputs/workflow_state.yaml")

	// Notification defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.smtp_addr", "localhost:25")
	v.SetDefault("notify.username", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.from", "rfq-workflow@localhost")
	v.SetDefault("notify.to", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// Set overrides a key, used for command line flags
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
