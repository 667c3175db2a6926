// Package enrichment derives model attributes for admitted records.
package enrichment

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures the scheduler
type Options struct {
	Concurrency int
	// BatchSize is the dispatch window after which SleepBetweenBatches is
	// inserted. Zero means Concurrency.
	BatchSize           int
	SleepBetweenBatches time.Duration
	RequestTimeout      time.Duration
	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64
	Retry        RetryPolicy
	ModelID      string
	MaxTokens    int
	Temperature  float32
	CacheTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 10
	}
	if o.BatchSize <= 0 {
		o.BatchSize = o.Concurrency
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 700
	}
	o.Retry = o.Retry.withDefaults()
	return o
}

// Scheduler drives one model call per admitted record over a bounded pool
type Scheduler struct {
	client  core.ModelClient
	parser  *Parser
	prompts *PromptBuilder
	cache   core.CacheRepository
	limiter *rate.Limiter
	sleep   Sleeper
	rnd     func() float64
	now     func() time.Time
	opts    Options
	logger  *zap.Logger
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithCache stores successful results and answers repeated records from the cache
func WithCache(cache core.CacheRepository) Option {
	return func(s *Scheduler) { s.cache = cache }
}

// WithSleeper replaces the timer used for backoff and batch pauses
func WithSleeper(sleep Sleeper) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// WithRand replaces the jitter source
func WithRand(rnd func() float64) Option {
	return func(s *Scheduler) { s.rnd = rnd }
}

// WithClock replaces the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a new enrichment scheduler
func NewScheduler(client core.ModelClient, parser *Parser, prompts *PromptBuilder, opts Options, logger *zap.Logger, options ...Option) *Scheduler {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = NewPromptBuilder(nil)
	}
	s := &Scheduler{
		client:  client,
		parser:  parser,
		prompts: prompts,
		sleep:   sleepWithContext,
		rnd:     rand.Float64,
		now:     time.Now,
		opts:    opts,
		logger:  logger,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// EnrichAll enriches every admitted record. At most Concurrency model calls are
// in flight; a record's backoff holds only its own slot. It returns once every
// record is enriched or has exhausted its attempts, with both sets sorted by
// record index. A failing record never cancels the others.
func (s *Scheduler) EnrichAll(ctx context.Context, admitted []core.ExtractionRecord) ([]core.EnrichmentRecord, []core.EnrichmentFailure) {
	var (
		mu       sync.Mutex
		enriched = make([]core.EnrichmentRecord, 0, len(admitted))
		failures []core.EnrichmentFailure
	)

	s.logger.Info("Starting enrichment",
		zap.Int("records", len(admitted)),
		zap.Int("concurrency", s.opts.Concurrency),
		zap.String("model", s.modelID()))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	for start := 0; start < len(admitted); start += s.opts.BatchSize {
		if start > 0 && s.opts.SleepBetweenBatches > 0 {
			// The pause applies after a full pass over the previous window
			_ = g.Wait()
			s.logger.Debug("Pausing between batches", zap.Duration("sleep", s.opts.SleepBetweenBatches))
			if err := s.sleep(ctx, s.opts.SleepBetweenBatches); err != nil {
				s.logger.Warn("Batch pause interrupted", zap.Error(err))
			}
		}
		end := min(start+s.opts.BatchSize, len(admitted))
		for _, rec := range admitted[start:end] {
			g.Go(func() error {
				res, fail := s.enrichOne(ctx, rec)
				mu.Lock()
				defer mu.Unlock()
				if fail != nil {
					failures = append(failures, *fail)
				} else {
					enriched = append(enriched, res)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(enriched, func(i, j int) bool { return enriched[i].Index < enriched[j].Index })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })

	s.logger.Info("Enrichment finished",
		zap.Int("enriched", len(enriched)),
		zap.Int("failed", len(failures)))
	return enriched, failures
}

func (s *Scheduler) modelID() string {
	if s.opts.ModelID != "" {
		return s.opts.ModelID
	}
	return s.client.Model()
}

func (s *Scheduler) enrichOne(ctx context.Context, rec core.ExtractionRecord) (core.EnrichmentRecord, *core.EnrichmentFailure) {
	model := s.modelID()
	key := s.cacheKey(rec, model)
	if attrs, ok := s.cached(ctx, key); ok {
		return core.EnrichmentRecord{ExtractionRecord: rec, Attributes: attrs, Model: model, FromCache: true, EnrichedAt: s.now()}, nil
	}

	system, prompt := s.prompts.Build(rec)
	req := core.ModelRequest{
		System:      system,
		Prompt:      prompt,
		ModelID:     s.opts.ModelID,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}

	var state RetryState
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				state.Attempts++
				state.LastErr = err
				return core.EnrichmentRecord{}, s.failure(rec, state)
			}
		}

		attrs, err := s.attempt(ctx, req)
		if err == nil {
			s.store(ctx, key, model, attrs)
			return core.EnrichmentRecord{
				ExtractionRecord: rec,
				Attributes:       attrs,
				Model:            model,
				Attempts:         state.Attempts + 1,
				EnrichedAt:       s.now(),
			}, nil
		}

		if !state.Fail(err, s.opts.Retry, s.rnd) {
			s.logger.Error("Enrichment retries exhausted",
				zap.String("id", rec.ID),
				zap.Int("attempts", state.Attempts),
				zap.Error(err))
			return core.EnrichmentRecord{}, s.failure(rec, state)
		}

		s.logger.Warn("Enrichment attempt failed, retrying",
			zap.String("id", rec.ID),
			zap.Int("attempt", state.Attempts),
			zap.String("kind", string(core.KindOf(err))),
			zap.Duration("delay", state.NextDelay),
			zap.Error(err))

		if err := s.sleep(ctx, state.NextDelay); err != nil {
			state.LastErr = err
			return core.EnrichmentRecord{}, s.failure(rec, state)
		}
	}
}

// attempt issues one bounded model call and parses the answer
func (s *Scheduler) attempt(ctx context.Context, req core.ModelRequest) (core.Attributes, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	text, err := s.client.Complete(reqCtx, req)
	if err != nil {
		return core.Attributes{}, classifyErr(err)
	}
	return s.parser.Parse(text)
}

// classifyErr makes sure every client failure carries a call kind
func classifyErr(err error) error {
	var ce *core.CallError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewCallError(core.KindTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return core.NewCallError(core.KindTimeout, err)
	}
	return core.NewCallError(core.KindTransport, err)
}

func (s *Scheduler) failure(rec core.ExtractionRecord, state RetryState) *core.EnrichmentFailure {
	err := &core.RetryExhaustedError{Attempts: state.Attempts, Last: state.LastErr}
	return &core.EnrichmentFailure{
		ExtractionRecord: rec,
		Kind:             core.KindOf(state.LastErr),
		Attempts:         state.Attempts,
		Detail:           core.RedactSecrets(err.Error()),
	}
}

func (s *Scheduler) cacheKey(rec core.ExtractionRecord, model string) string {
	if s.cache == nil {
		return ""
	}
	key, err := RecordDigest(rec, model)
	if err != nil {
		s.logger.Warn("Failed to compute cache key", zap.String("id", rec.ID), zap.Error(err))
		return ""
	}
	return key
}

func (s *Scheduler) cached(ctx context.Context, key string) (core.Attributes, bool) {
	if key == "" {
		return core.Attributes{}, false
	}
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrCacheMiss) {
			s.logger.Warn("Cache lookup failed", zap.Error(err))
		}
		return core.Attributes{}, false
	}
	s.logger.Debug("Cache hit for record", zap.String("key", key))
	return entry.Attributes, true
}

func (s *Scheduler) store(ctx context.Context, key, model string, attrs core.Attributes) {
	if key == "" {
		return
	}
	now := s.now()
	ttl := s.opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	entry := &core.CacheEntry{Key: key, Model: model, Attributes: attrs, StoredAt: now, ExpiresAt: now.Add(ttl)}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Warn("Failed to cache enrichment result", zap.String("key", key), zap.Error(err))
	}
}
