package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

func sampleEntry(key string, expires time.Time) *core.CacheEntry {
	return &core.CacheEntry{
		Key:   key,
		Model: "gpt-4o-mini",
		Attributes: core.Attributes{
			CompanyName:           "Acme",
			CompanyCountry:        "Chile",
			EmailCategory:         core.CategoryProducts,
			EquipmentRequested:    "pressure gauge",
			SubjectBodyConsistent: true,
		},
		StoredAt:  time.Unix(1_700_000_000, 0).UTC(),
		ExpiresAt: expires.UTC().Truncate(time.Second),
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()

	entry := sampleEntry("k1", time.Now().Add(time.Hour))
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k1"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss after delete, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, sampleEntry("live", now.Add(time.Minute)))
	_ = c.Set(ctx, sampleEntry("dead", now.Add(-time.Minute)))

	if _, err := c.Get(ctx, "dead"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
	if _, err := c.Get(ctx, "live"); err != nil {
		t.Errorf("expected live entry, got %v", err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", c.Len())
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache", "enrichment.db"), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer c.Stop()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss, got %v", err)
	}

	entry := sampleEntry("k1", time.Now().Add(time.Hour))
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	// replacing keeps one row
	entry.Attributes.CompanyName = "Acme Ltda"
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	got, _ = c.Get(ctx, "k1")
	if got.Attributes.CompanyName != "Acme Ltda" {
		t.Errorf("expected replaced entry, got %q", got.Attributes.CompanyName)
	}
}

func TestSQLiteCacheCleanup(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "enrichment.db"), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer c.Stop()

	_ = c.Set(ctx, sampleEntry("old", time.Now().Add(-time.Hour)))
	_ = c.Set(ctx, sampleEntry("new", time.Now().Add(time.Hour)))

	if _, err := c.Get(ctx, "old"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM enrichment_cache`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row after cleanup, got %d", n)
	}
}

// MySQL and Redis tests need a live server and are skipped unless one is configured
func TestMySQLCacheRoundTrip(t *testing.T) {
	dsn := os.Getenv("RFQ_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RFQ_TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	c, err := NewMySQLCache(dsn, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer c.Stop()

	key := uuid.NewString()
	expired := uuid.NewString()
	defer func() {
		_ = c.Delete(ctx, key)
		_ = c.Delete(ctx, expired)
	}()

	if _, err := c.Get(ctx, key); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss, got %v", err)
	}

	entry := sampleEntry(key, time.Now().Add(time.Hour))
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	entry.Attributes.CompanyName = "Acme Ltda"
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	got, err = c.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after replace failed: %v", err)
	}
	if got.Attributes.CompanyName != "Acme Ltda" {
		t.Errorf("expected replaced entry, got %q", got.Attributes.CompanyName)
	}

	_ = c.Set(ctx, sampleEntry(expired, time.Now().Add(-time.Hour)))
	if _, err := c.Get(ctx, expired); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM enrichment_cache WHERE cache_key = ?`, expired).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected expired row to be cleaned up, found %d", n)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss after delete, got %v", err)
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("RFQ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RFQ_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(addr, os.Getenv("RFQ_TEST_REDIS_PASSWORD"), 0, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Stop()

	key := uuid.NewString()
	defer func() { _ = c.Delete(ctx, key) }()

	if _, err := c.Get(ctx, key); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss, got %v", err)
	}

	entry := sampleEntry(key, time.Now().Add(time.Hour))
	if err := c.Set(ctx, entry); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	ttl, err := c.client.TTL(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("expected ttl within an hour, got %v", ttl)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected cache miss after delete, got %v", err)
	}

	// an entry that is already expired is not written
	if err := c.Set(ctx, sampleEntry(key, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("set of expired entry failed: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expected expired entry to be skipped, got %v", err)
	}
}
