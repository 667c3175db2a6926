package core

import (
	"fmt"
	"time"
)

// Phase is the position of a workflow run in its state machine
type Phase string

const (
	PhaseExtracting     Phase = "extracting"
	PhaseAwaitingReview Phase = "awaiting_review"
	PhaseProcessing     Phase = "processing"
	PhaseAborted        Phase = "aborted"
	PhaseCompleted      Phase = "completed"
)

// Terminal reports whether no further transition is possible
func (p Phase) Terminal() bool {
	return p == PhaseAborted || p == PhaseCompleted
}

// Decision is the outcome of the review checkpoint
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionContinue Decision = "continue"
	DecisionAbort    Decision = "abort"
)

var transitions = map[Phase][]Phase{
	PhaseExtracting:     {PhaseAwaitingReview},
	PhaseAwaitingReview: {PhaseProcessing, PhaseAborted},
	PhaseProcessing:     {PhaseCompleted},
}

// WorkflowState is the state of one workflow run together with its record sets
type WorkflowState struct {
	RunID     string    `yaml:"run_id"`
	Phase     Phase     `yaml:"phase"`
	Decision  Decision  `yaml:"decision"`
	StartedAt time.Time `yaml:"started_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
	StartDate time.Time `yaml:"start_date,omitempty"`
	EndDate   time.Time `yaml:"end_date,omitempty"`

	Stats            ExtractionStats     `yaml:"stats"`
	Admitted         []ExtractionRecord  `yaml:"admitted"`
	Excluded         []ExtractionRecord  `yaml:"excluded"`
	ExtractionErrors []ExtractionRecord  `yaml:"extraction_errors"`
	Enriched         []EnrichmentRecord  `yaml:"enriched,omitempty"`
	EnrichmentErrors []EnrichmentFailure `yaml:"enrichment_errors,omitempty"`
}

// NewWorkflowState creates a run in the Extracting phase
func NewWorkflowState(runID string, now time.Time) *WorkflowState {
	return &WorkflowState{
		RunID:     runID,
		Phase:     PhaseExtracting,
		Decision:  DecisionPending,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the run to the next phase, rejecting moves the state machine does not allow
func (s *WorkflowState) Transition(to Phase, now time.Time) error {
	for _, allowed := range transitions[s.Phase] {
		if allowed == to {
			s.Phase = to
			s.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("invalid workflow transition from %s to %s", s.Phase, to)
}

// Partitioned reports whether the extraction sets account for every considered item
func (s *WorkflowState) Partitioned() bool {
	return len(s.Admitted)+len(s.Excluded)+len(s.ExtractionErrors) == s.Stats.Considered()
}
