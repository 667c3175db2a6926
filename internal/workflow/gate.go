// Package workflow runs extraction, the review checkpoint and enrichment as one state machine.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// IsAffirmative reports whether a reviewer response means continue. Only yes and y count.
func IsAffirmative(response string) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	}
	return false
}

// Gate is the checkpoint between extraction and enrichment
type Gate struct {
	autoProcess bool
	decider     ports.Decider
	now         func() time.Time
	logger      *zap.Logger
}

// NewGate creates a new checkpoint gate. With autoProcess set the decider is never consulted.
func NewGate(autoProcess bool, decider ports.Decider, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		autoProcess: autoProcess,
		decider:     decider,
		now:         time.Now,
		logger:      logger,
	}
}

// Review moves a run out of AwaitingReview into Processing or Aborted and returns the new phase.
// A decider failure counts as a non-affirmative answer.
func (g *Gate) Review(ctx context.Context, st *core.WorkflowState, locations map[ports.Channel]string) (core.Phase, error) {
	if st.Phase != core.PhaseAwaitingReview {
		return st.Phase, fmt.Errorf("cannot review a run in phase %s", st.Phase)
	}

	decision := core.DecisionAbort
	switch {
	case g.autoProcess:
		g.logger.Info("Auto-processing enabled, skipping review")
		decision = core.DecisionContinue
	case len(st.Admitted) == 0:
		g.logger.Info("No admitted records, nothing to review")
		decision = core.DecisionContinue
	case g.decider == nil:
		g.logger.Warn("No reviewer configured, aborting at checkpoint")
	default:
		response, err := g.decider.Decide(ctx, ports.ReviewSummary{
			RunID:     st.RunID,
			Stats:     st.Stats,
			Locations: locations,
		})
		if err != nil {
			g.logger.Warn("Failed to read review decision", zap.Error(err))
		} else if IsAffirmative(response) {
			decision = core.DecisionContinue
		}
	}

	st.Decision = decision
	next := core.PhaseAborted
	if decision == core.DecisionContinue {
		next = core.PhaseProcessing
	}
	if err := st.Transition(next, g.now()); err != nil {
		return st.Phase, err
	}
	g.logger.Info("Checkpoint decided",
		zap.String("run_id", st.RunID),
		zap.String("decision", string(decision)))
	return st.Phase, nil
}
