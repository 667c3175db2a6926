package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// DetailNoDate is the error detail for an item whose date cannot be read while a date filter is active
const DetailNoDate = "cannot read date (date filtering active)"

// ItemClassifier classifies one raw item
type ItemClassifier interface {
	Classify(item core.RawItem) core.ExtractionRecord
}

// DateRange is an inclusive timestamp window. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Active reports whether any bound is set
func (r DateRange) Active() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// Contains reports whether t lies inside the window
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Result holds the three outcome sets of an extraction run, each in source order
type Result struct {
	Admitted []core.ExtractionRecord
	Excluded []core.ExtractionRecord
	Errored  []core.ExtractionRecord
	Stats    core.ExtractionStats
}

func (r *Result) add(rec core.ExtractionRecord) {
	switch rec.Outcome {
	case core.OutcomeAdmitted:
		r.Admitted = append(r.Admitted, rec)
		r.Stats.Admitted++
	case core.OutcomeExcluded:
		r.Excluded = append(r.Excluded, rec)
		r.Stats.Excluded++
	default:
		rec.Outcome = core.OutcomeErrored
		r.Errored = append(r.Errored, rec)
		r.Stats.Errored++
	}
}

// Pipeline drives a folder through the classifier, one item at a time
type Pipeline struct {
	classifier ItemClassifier
	reporter   ports.ProgressReporter
	interval   int
	logger     *zap.Logger
}

// NewPipeline creates a new extraction pipeline. A nil reporter disables progress notifications.
func NewPipeline(classifier ItemClassifier, reporter ports.ProgressReporter, progressInterval int, logger *zap.Logger) *Pipeline {
	if progressInterval <= 0 {
		progressInterval = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier: classifier,
		reporter:   reporter,
		interval:   progressInterval,
		logger:     logger,
	}
}

// Run reads the folder to the end and partitions every item inside the date
// range into exactly one outcome set. Only a folder-level read failure or
// context cancellation stops the run.
func (p *Pipeline) Run(ctx context.Context, folder ports.Folder, rng DateRange) (*Result, error) {
	res := &Result{}
	p.logger.Info("Starting extraction",
		zap.String("folder", folder.Name()),
		zap.Bool("date_filter", rng.Active()))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := folder.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		index := res.Stats.Total
		res.Stats.Total++

		var readErr *core.ItemReadError
		switch {
		case errors.As(err, &readErr):
			p.logger.Warn("Failed to read item", zap.String("id", readErr.ID), zap.Error(readErr.Err))
			res.add(errored(core.RawItem{ID: readErr.ID, Index: index}, readErr))
		case err != nil:
			return nil, fmt.Errorf("failed to read folder %s: %w", folder.Name(), err)
		default:
			item.Index = index
			p.process(res, item, rng)
		}

		if res.Stats.Total%p.interval == 0 && p.reporter != nil {
			p.reporter.Progress(res.Stats)
		}
	}

	p.logger.Info("Extraction finished",
		zap.Int("total", res.Stats.Total),
		zap.Int("filtered_by_date", res.Stats.FilteredByDate),
		zap.Int("admitted", res.Stats.Admitted),
		zap.Int("excluded", res.Stats.Excluded),
		zap.Int("errored", res.Stats.Errored))

	return res, nil
}

func (p *Pipeline) process(res *Result, item core.RawItem, rng DateRange) {
	if rng.Active() {
		if item.Timestamp.IsZero() {
			res.add(core.ExtractionRecord{RawItem: item, Outcome: core.OutcomeErrored, ErrorDetail: DetailNoDate})
			return
		}
		if !rng.Contains(item.Timestamp) {
			res.Stats.FilteredByDate++
			return
		}
	}
	res.add(p.classifier.Classify(item))
}
