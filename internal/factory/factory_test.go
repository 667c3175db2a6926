package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/rfq-workflow/internal/adapters/sink"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/enrichment"
	"go.uber.org/zap/zaptest"
)

func TestCacheFactoryDisabled(t *testing.T) {
	f := NewCacheFactory(&config.Settings{Cache: config.CacheConfig{Type: "memory"}}, zaptest.NewLogger(t))
	repo, err := f.CreateCacheRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo != nil {
		t.Fatalf("expected no cache when disabled, got %T", repo)
	}
	if f.IsCacheEnabled() {
		t.Error("cache reported enabled")
	}
}

func TestCacheFactoryBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.CacheConfig
		want string
	}{
		{"memory", config.CacheConfig{Enabled: true, Type: "memory"}, "*cache.MemoryCache"},
		{"sqlite", config.CacheConfig{Enabled: true, Type: "sqlite", SQLitePath: filepath.Join(dir, "sub", "cache.db")}, "*cache.SQLiteCache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewCacheFactory(&config.Settings{Cache: tt.cfg}, zaptest.NewLogger(t))
			repo, err := f.CreateCacheRepository()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer repo.(interface{ Stop() }).Stop()
			if got := fmt.Sprintf("%T", repo); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCacheFactoryUnknownType(t *testing.T) {
	f := NewCacheFactory(&config.Settings{Cache: config.CacheConfig{Enabled: true, Type: "etcd"}}, zaptest.NewLogger(t))
	if _, err := f.CreateCacheRepository(); err == nil {
		t.Fatal("expected an error for an unknown cache type")
	}
}

func TestLLMFactoryRejectsUnknownProvider(t *testing.T) {
	f := NewLLMFactory(&config.Settings{LLM: config.LLMConfig{Provider: "cohere"}}, zaptest.NewLogger(t))
	if _, err := f.CreateLLMClient(); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestLLMFactoryRequiresOpenAIKey(t *testing.T) {
	f := NewLLMFactory(&config.Settings{
		LLM:    config.LLMConfig{Provider: "openai"},
		OpenAI: config.OpenAIConfig{ModelName: "gpt-4o-mini"},
	}, zaptest.NewLogger(t))
	if _, err := f.CreateLLMClient(); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestLLMFactoryOpenAI(t *testing.T) {
	f := NewLLMFactory(&config.Settings{
		LLM:    config.LLMConfig{Provider: "openai"},
		OpenAI: config.OpenAIConfig{APIKey: "sk-test", ModelName: "gpt-4o-mini"},
	}, zaptest.NewLogger(t))
	client, err := f.CreateLLMClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", client.Model())
	}
}

func TestSinkFactoryCSV(t *testing.T) {
	dir := t.TempDir()
	f := NewSinkFactory(&config.Settings{Output: config.OutputConfig{Type: "csv", Dir: dir, Basename: "emails"}}, zaptest.NewLogger(t))
	s, err := f.CreateSink(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*sink.CSVSink); !ok {
		t.Fatalf("expected *sink.CSVSink, got %T", s)
	}
}

func TestSinkFactoryUnknownType(t *testing.T) {
	f := NewSinkFactory(&config.Settings{Output: config.OutputConfig{Type: "parquet"}}, zaptest.NewLogger(t))
	if _, err := f.CreateSink(context.Background()); err == nil {
		t.Fatal("expected an error for an unknown output type")
	}
}

func TestEnrichmentFactoryOptions(t *testing.T) {
	f := NewEnrichmentFactory(&config.Settings{
		Processing: config.ProcessingConfig{
			Concurrency:         4,
			BatchSize:           8,
			SleepBetweenBatches: time.Second,
			RetryAttempts:       5,
			RetryMinWait:        time.Second,
			RetryMaxWait:        10 * time.Second,
			RetryJitter:         0.1,
			RequestTimeout:      30 * time.Second,
			RateLimitRPS:        2,
			MaxTokens:           500,
			Temperature:         0.2,
		},
		Cache: config.CacheConfig{TTL: time.Hour},
	}, zaptest.NewLogger(t))

	want := enrichment.Options{
		Concurrency:         4,
		BatchSize:           8,
		SleepBetweenBatches: time.Second,
		RequestTimeout:      30 * time.Second,
		RateLimitRPS:        2,
		Retry: enrichment.RetryPolicy{
			Attempts:   5,
			MinWait:    time.Second,
			MaxWait:    10 * time.Second,
			Multiplier: 2,
			JitterFrac: 0.1,
		},
		MaxTokens:   500,
		Temperature: 0.2,
		CacheTTL:    time.Hour,
	}
	if diff := cmp.Diff(want, f.Options()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestEnrichmentFactoryProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.txt")
	if err := os.WriteFile(path, []byte("Pumps\nBlowers, Valves\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewEnrichmentFactory(&config.Settings{Processing: config.ProcessingConfig{ProductListFile: path}}, zaptest.NewLogger(t))
	got, err := f.Products()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Pumps", "Blowers", "Valves"}, got); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}

	f = NewEnrichmentFactory(&config.Settings{}, zaptest.NewLogger(t))
	defaults, err := f.Products()
	if err != nil || len(defaults) == 0 {
		t.Fatalf("expected the built-in product list, got %v, %v", defaults, err)
	}
}
