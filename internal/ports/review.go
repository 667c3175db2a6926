package ports

import (
	"context"

	"github.com/mikey/rfq-workflow/internal/core"
)

// ReviewSummary is what the reviewer sees at the checkpoint
type ReviewSummary struct {
	RunID     string
	Stats     core.ExtractionStats
	Locations map[Channel]string
}

// Decider supplies the checkpoint decision
type Decider interface {
	// Decide returns the reviewer's raw response
	Decide(ctx context.Context, summary ReviewSummary) (string, error)
}

// ProgressReporter receives periodic extraction progress
type ProgressReporter interface {
	Progress(stats core.ExtractionStats)
}

// Notifier delivers the final run summary
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}
