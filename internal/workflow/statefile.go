package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/rfq-workflow/internal/core"
	"gopkg.in/yaml.v3"
)

// ErrNoState is returned when there is no persisted run to resume
var ErrNoState = errors.New("no persisted workflow state")

// StateFile persists a WorkflowState as YAML
type StateFile struct {
	path string
}

// NewStateFile creates a state file at path
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the file location
func (f *StateFile) Path() string {
	return f.path
}

// Save writes the state atomically
func (f *StateFile) Save(st *core.WorkflowState) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".workflow-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write workflow state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close workflow state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace workflow state: %w", err)
	}
	return nil
}

// Load reads the persisted state
func (f *StateFile) Load() (*core.WorkflowState, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoState, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow state: %w", err)
	}
	var st core.WorkflowState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode workflow state: %w", err)
	}
	return &st, nil
}
