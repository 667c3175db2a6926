package factory

import (
	"fmt"
	"time"

	"github.com/mikey/rfq-workflow/internal/adapters/cache"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    config.CacheConfig
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(settings *config.Settings, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    settings.Cache,
		logger: logger,
	}
}

// CreateCacheRepository creates a cache repository based on the configuration.
// It returns nil when caching is disabled.
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	if !f.cfg.Enabled {
		return nil, nil
	}

	switch f.cfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, f.cfg.CleanupFrequency), nil
	case "sqlite":
		return cache.NewSQLiteCache(f.cfg.SQLitePath, f.logger, f.cfg.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(f.cfg.MySQLDSN, f.logger, f.cfg.CleanupFrequency)
	case "redis":
		return cache.NewRedisCache(f.cfg.RedisAddr, f.cfg.RedisPassword, f.cfg.RedisDB, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", f.cfg.Type)
	}
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() time.Duration {
	return f.cfg.TTL
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.Enabled
}
