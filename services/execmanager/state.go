// Package execmanager drives one workflow run: the FIFO DAG walk, type
// coercion, retry/circuit-breaker wrapping, successor selection, side
// effects, and checkpointing (§4.5).
package execmanager

import (
	"time"

	"actengine/services/registry"
	"actengine/services/resolver"
	"actengine/services/value"
)

// NodeStatus is one of the §3.5 node_status values.
type NodeStatus string

const (
	StatusPending  NodeStatus = "pending"
	StatusRunning  NodeStatus = "running"
	StatusSuccess  NodeStatus = "success"
	StatusError    NodeStatus = "error"
	StatusWarning  NodeStatus = "warning"
	StatusSkipped  NodeStatus = "skipped"
	StatusRetrying NodeStatus = "retrying"
)

// NodeStatusEntry records one node's current status with its message and
// the time it was last updated.
type NodeStatusEntry struct {
	Status    NodeStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// State is the ExecutionState of §3.5, owned by one run.
type State struct {
	ExecutionID string    `json:"execution_id"`
	StartTime   time.Time `json:"start_time"`

	NodeResults map[string]registry.NodeResult `json:"node_results"`
	NodeStatus  map[string]NodeStatusEntry     `json:"node_status"`
	Executed    map[string]bool                `json:"executed"`
	ResolvedKeys map[string]value.Value        `json:"resolved_keys"`
	Breakpoints map[string]bool                `json:"-"`

	Metrics *Metrics `json:"metrics"`

	// resolverCtx is the per-run resolver.Context backing placeholder
	// resolution; deliberately excluded from checkpoints (§4.5.5 —
	// resolution_cache is "intentionally dropped").
	resolverCtx *resolver.Context
}

// NewState initializes a fresh ExecutionState for executionID against
// initialInput, ready for resolver use.
func NewState(executionID string, initialInput value.Value, failOnUnresolved bool) *State {
	rctx := resolver.NewContext(initialInput, failOnUnresolved)
	return &State{
		ExecutionID:  executionID,
		StartTime:    time.Now(),
		NodeResults:  make(map[string]registry.NodeResult),
		NodeStatus:   make(map[string]NodeStatusEntry),
		Executed:     make(map[string]bool),
		ResolvedKeys: rctx.ResolvedKeys,
		Breakpoints:  make(map[string]bool),
		Metrics:      NewMetrics(),
		resolverCtx:  rctx,
	}
}

func (s *State) setStatus(node string, st NodeStatus, msg string) {
	s.NodeStatus[node] = NodeStatusEntry{Status: st, Message: msg, UpdatedAt: time.Now()}
}

// ResolverContext exposes the resolver.Context backing this run, keeping
// resolved_keys and node results in sync as execution progresses.
func (s *State) ResolverContext() *resolver.Context {
	s.resolverCtx.Results = s.NodeResults
	s.resolverCtx.ResolvedKeys = s.ResolvedKeys
	return s.resolverCtx
}

// Checkpoint is the §6.3 on-disk shape: every ExecutionState field except
// resolution_cache.
type Checkpoint struct {
	ExecutionID          string                          `json:"execution_id"`
	NodeResults          map[string]registry.NodeResult  `json:"node_results"`
	ExecutedNodes        []string                        `json:"executed_nodes"`
	NodeExecutionStatus  map[string]NodeStatusEntry       `json:"node_execution_status"`
	ResolvedValuesByKey  map[string]value.Value          `json:"resolved_values_by_key"`
	Metrics              MetricsSnapshot                `json:"metrics"`
	Timestamp            time.Time                       `json:"timestamp"`
}

// ToCheckpoint snapshots State into its on-disk shape.
func (s *State) ToCheckpoint() Checkpoint {
	executed := make([]string, 0, len(s.Executed))
	for id := range s.Executed {
		executed = append(executed, id)
	}
	return Checkpoint{
		ExecutionID:         s.ExecutionID,
		NodeResults:         s.NodeResults,
		ExecutedNodes:       executed,
		NodeExecutionStatus: s.NodeStatus,
		ResolvedValuesByKey: s.ResolvedKeys,
		Metrics:             s.Metrics.Snapshot(),
		Timestamp:           time.Now(),
	}
}

// RestoreFromCheckpoint rehydrates already-executed nodes so a subsequent
// run resumes rather than re-executing them (§4.5.5).
func RestoreFromCheckpoint(cp Checkpoint, failOnUnresolved bool) *State {
	s := NewState(cp.ExecutionID, value.Null, failOnUnresolved)
	s.NodeResults = cp.NodeResults
	s.NodeStatus = cp.NodeExecutionStatus
	s.ResolvedKeys = cp.ResolvedValuesByKey
	for _, id := range cp.ExecutedNodes {
		s.Executed[id] = true
	}
	s.resolverCtx.Results = s.NodeResults
	s.resolverCtx.ResolvedKeys = s.ResolvedKeys
	return s
}
