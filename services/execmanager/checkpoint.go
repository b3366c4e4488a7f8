package execmanager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveCheckpoint writes state's snapshot to the configured checkpoint
// directory (§4.5.5). name defaults to "<execution_id>-<timestamp>.json"
// when empty.
func (m *Manager) SaveCheckpoint(state *State, name string) error {
	if m.opts.CheckpointDir == "" {
		return fmt.Errorf("execmanager: no checkpoint directory configured")
	}
	if err := os.MkdirAll(m.opts.CheckpointDir, 0o755); err != nil {
		return fmt.Errorf("execmanager: cannot create checkpoint directory: %w", err)
	}
	if name == "" {
		name = fmt.Sprintf("%s-%d.json", state.ExecutionID, time.Now().Unix())
	}
	path := filepath.Join(m.opts.CheckpointDir, name)

	cp := state.ToCheckpoint()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("execmanager: failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("execmanager: failed to write checkpoint: %w", err)
	}
	state.Metrics.RecordCheckpointSave()
	return nil
}

// LoadCheckpoint reads a checkpoint file from disk. Reading a checkpoint
// written in an incompatible shape fails loudly rather than silently
// migrating (§6.3).
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("execmanager: cannot read checkpoint %q: %w", path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("execmanager: checkpoint %q is not a valid checkpoint document: %w", path, err)
	}
	if cp.ExecutionID == "" {
		return nil, fmt.Errorf("execmanager: checkpoint %q is missing execution_id", path)
	}
	return &cp, nil
}
