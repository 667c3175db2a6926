package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/extraction"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// Enricher enriches the admitted records of a run
type Enricher interface {
	EnrichAll(ctx context.Context, admitted []core.ExtractionRecord) ([]core.EnrichmentRecord, []core.EnrichmentFailure)
}

// Options selects what part of the workflow to run
type Options struct {
	Range          extraction.DateRange
	ExtractOnly    bool
	SkipExtraction bool
}

// Report is the outcome of a run
type Report struct {
	State   *core.WorkflowState
	Outputs Outputs
}

// Folder names the mailbox folder a run reads
type Folder struct {
	Account string
	Path    string
}

// Orchestrator wires extraction, the checkpoint and enrichment together
type Orchestrator struct {
	source     ports.MailSource
	folder     Folder
	pipeline   *extraction.Pipeline
	gate       *Gate
	enricher   Enricher
	aggregator *Aggregator
	state      *StateFile
	notifier   ports.Notifier
	now        func() time.Time
	logger     *zap.Logger
}

// NewOrchestrator creates a new workflow orchestrator. notifier may be nil.
func NewOrchestrator(
	source ports.MailSource,
	folder Folder,
	pipeline *extraction.Pipeline,
	gate *Gate,
	enricher Enricher,
	aggregator *Aggregator,
	state *StateFile,
	notifier ports.Notifier,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:     source,
		folder:     folder,
		pipeline:   pipeline,
		gate:       gate,
		enricher:   enricher,
		aggregator: aggregator,
		state:      state,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger,
	}
}

// Run executes the workflow up to a terminal phase, or up to AwaitingReview
// with ExtractOnly. An abort at the checkpoint is a normal return.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	var (
		st  *core.WorkflowState
		err error
	)
	if opts.SkipExtraction {
		st, err = o.resume()
	} else {
		st, err = o.extract(ctx, opts.Range)
	}
	if err != nil {
		return nil, err
	}

	outputs, err := o.aggregator.Finalize(ctx, st)
	if err != nil {
		return nil, err
	}
	report := &Report{State: st, Outputs: outputs}

	if opts.ExtractOnly {
		o.logger.Info("Extraction only, stopping at checkpoint",
			zap.String("run_id", st.RunID),
			zap.String("state_file", o.state.Path()))
		return report, nil
	}

	phase, err := o.gate.Review(ctx, st, outputs)
	if err != nil {
		return nil, err
	}
	if phase == core.PhaseAborted {
		if err := o.state.Save(st); err != nil {
			return nil, err
		}
		o.logger.Info("Workflow aborted at checkpoint", zap.String("run_id", st.RunID))
		o.notify(ctx, report)
		return report, nil
	}

	st.Enriched, st.EnrichmentErrors = o.enricher.EnrichAll(ctx, st.Admitted)
	if err := st.Transition(core.PhaseCompleted, o.now()); err != nil {
		return nil, err
	}

	report.Outputs, err = o.aggregator.Finalize(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := o.state.Save(st); err != nil {
		return nil, err
	}
	o.notify(ctx, report)
	return report, nil
}

func (o *Orchestrator) resume() (*core.WorkflowState, error) {
	st, err := o.state.Load()
	if err != nil {
		return nil, err
	}
	if st.Phase.Terminal() {
		return nil, fmt.Errorf("run %s already finished in phase %s", st.RunID, st.Phase)
	}
	if st.Phase != core.PhaseAwaitingReview {
		return nil, fmt.Errorf("cannot resume run %s in phase %s", st.RunID, st.Phase)
	}
	o.logger.Info("Resuming run from checkpoint",
		zap.String("run_id", st.RunID),
		zap.Int("admitted", len(st.Admitted)))
	return st, nil
}

func (o *Orchestrator) extract(ctx context.Context, rng extraction.DateRange) (*core.WorkflowState, error) {
	folder, err := o.source.OpenFolder(ctx, o.folder.Account, o.folder.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder %s: %w", o.folder.Path, err)
	}
	defer folder.Close()

	st := core.NewWorkflowState(uuid.NewString(), o.now())
	st.StartDate, st.EndDate = rng.Start, rng.End

	res, err := o.pipeline.Run(ctx, folder, rng)
	if err != nil {
		return nil, err
	}
	st.Stats = res.Stats
	st.Admitted, st.Excluded, st.ExtractionErrors = res.Admitted, res.Excluded, res.Errored
	if !st.Partitioned() {
		return nil, fmt.Errorf("extraction lost items: %d admitted, %d excluded, %d errored of %d",
			len(st.Admitted), len(st.Excluded), len(st.ExtractionErrors), st.Stats.Considered())
	}

	if err := st.Transition(core.PhaseAwaitingReview, o.now()); err != nil {
		return nil, err
	}
	if err := o.state.Save(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (o *Orchestrator) notify(ctx context.Context, report *Report) {
	if o.notifier == nil {
		return
	}
	subject := fmt.Sprintf("RFQ workflow %s: %s", report.State.RunID, report.State.Phase)
	if err := o.notifier.Notify(ctx, subject, Summary(report)); err != nil {
		o.logger.Warn("Failed to send run summary", zap.Error(err))
	}
}
