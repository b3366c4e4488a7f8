package execmanager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"actengine/services/actfile"
	"actengine/services/registry"
	"actengine/services/resolver"
	"actengine/services/value"
)

// AciRegistrar receives the §4.5.4 `aci` side effect: a node whose
// result requests a dynamic HTTP route be added or removed. The agent
// package implements this; execmanager has no HTTP dependency of its
// own.
type AciRegistrar interface {
	AddRoute(nodeID string, params value.Value)
	RemoveRoute(nodeID string, params value.Value)
}

// Options configures one Manager instance, process-wide (shared across
// runs of the same loaded Workflow).
type Options struct {
	MaxRetries       int
	SandboxTimeout   time.Duration // 0 disables the run-wide deadline
	MaxConcurrent    int           // bounded worker pool size (§5), default 10
	BreakerConfig    BreakerConfig
	CheckpointDir    string
	AutoSaveOnDone   bool
	FailOnUnresolved bool
	AciRegistrar     AciRegistrar
}

// DefaultOptions mirrors the §4.5 defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:     3,
		MaxConcurrent:  10,
		BreakerConfig:  DefaultBreakerConfig,
		CheckpointDir:  "checkpoints",
		AutoSaveOnDone: false,
	}
}

// Manager drives execution of one Workflow. It is safe to call Execute
// concurrently from multiple goroutines (e.g. concurrent
// POST /api/v1/execute requests) — each call owns its own State (§5
// "Shared resources").
type Manager struct {
	wf       *actfile.Workflow
	reg      *registry.Registry
	deps     registry.Deps
	breakers *BreakerRegistry
	opts     Options
	pool     chan struct{} // bounded worker slots (§5 max_concurrent_nodes)
}

func New(wf *actfile.Workflow, reg *registry.Registry, deps registry.Deps, opts Options) *Manager {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxConcurrent == 0 {
		opts.MaxConcurrent = 10
	}
	if opts.BreakerConfig == (BreakerConfig{}) {
		opts.BreakerConfig = DefaultBreakerConfig
	}
	return &Manager{
		wf:       wf,
		reg:      reg,
		deps:     deps,
		breakers: NewBreakerRegistry(opts.BreakerConfig),
		opts:     opts,
		pool:     make(chan struct{}, opts.MaxConcurrent),
	}
}

// SetAciRegistrar wires the `aci`/add_route side effect (§4.5.4) to a
// registrar after construction, breaking the Manager/agent.Agent
// construction cycle: the agent needs a *Manager to back
// POST /api/v1/execute, and the Manager needs the agent to register
// routes a workflow adds at runtime.
func (m *Manager) SetAciRegistrar(r AciRegistrar) {
	m.opts.AciRegistrar = r
}

// RunOptions configures a single Execute call (§4.5 "Contract").
type RunOptions struct {
	ExecutionID  string
	InitialInput value.Value
	DryRun       bool
	Breakpoints  []string
	Resume       *Checkpoint
}

// Status is the terminal or paused status of one Execute call.
type Status string

const (
	RunSuccess Status = "success"
	RunError   Status = "error"
	RunPaused  Status = "paused"
)

// Result is the §7 "every terminal engine result" shape.
type Result struct {
	Status       Status                          `json:"status"`
	Message      string                          `json:"message"`
	Results      map[string]registry.NodeResult  `json:"results"`
	NodeStatus   map[string]NodeStatusEntry      `json:"node_status"`
	ExecutionID  string                          `json:"execution_id"`
	Metrics      MetricsSnapshot                 `json:"metrics"`
	PausedNode   string                          `json:"paused_node,omitempty"`
	PlannedOrder []string                        `json:"planned_order,omitempty"`
}

// Execute runs (or resumes, or dry-runs) the workflow per §4.5.
func (m *Manager) Execute(ctx context.Context, opts RunOptions) (*Result, error) {
	execID := opts.ExecutionID
	if execID == "" {
		execID = fmt.Sprintf("exec-%d", time.Now().UnixNano())
	}

	var state *State
	if opts.Resume != nil {
		state = RestoreFromCheckpoint(*opts.Resume, m.opts.FailOnUnresolved)
		state.ExecutionID = execID
	} else {
		state = NewState(execID, opts.InitialInput, m.opts.FailOnUnresolved)
	}
	for _, bp := range opts.Breakpoints {
		state.Breakpoints[bp] = true
	}

	if opts.DryRun {
		order, err := m.plannedOrder(state)
		if err != nil {
			return nil, err
		}
		return &Result{
			Status:       RunSuccess,
			Message:      "dry run: no executors were invoked",
			Results:      state.NodeResults,
			NodeStatus:   state.NodeStatus,
			ExecutionID:  execID,
			Metrics:      state.Metrics.Snapshot(),
			PlannedOrder: order,
		}, nil
	}

	queue := []string{m.wf.StartNode}
	queued := map[string]bool{m.wf.StartNode: true}
	if state.Executed[m.wf.StartNode] {
		// Resuming past the start node: seed the queue from whatever
		// was pending when the checkpoint was taken. Successors of
		// already-executed nodes get re-derived as we walk.
		queue, queued = m.resumeQueue(state)
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		delete(queued, node)

		if state.Executed[node] {
			continue
		}
		if _, ok := m.wf.Nodes[node]; !ok {
			continue
		}

		if state.Breakpoints[node] {
			return &Result{
				Status:      RunPaused,
				Message:     fmt.Sprintf("paused at breakpoint %q", node),
				Results:     state.NodeResults,
				NodeStatus:  state.NodeStatus,
				ExecutionID: execID,
				Metrics:     state.Metrics.Snapshot(),
				PausedNode:  node,
			}, nil
		}

		if m.opts.SandboxTimeout > 0 && time.Since(state.StartTime) > m.opts.SandboxTimeout {
			state.setStatus(node, StatusError, "sandbox_timeout exceeded")
			return &Result{
				Status:      RunError,
				Message:     "sandbox_timeout exceeded",
				Results:     state.NodeResults,
				NodeStatus:  state.NodeStatus,
				ExecutionID: execID,
				Metrics:     state.Metrics.Snapshot(),
			}, nil
		}

		result, err := m.runNode(ctx, node, state)
		if err != nil {
			state.setStatus(node, StatusError, err.Error())
			return &Result{
				Status:      RunError,
				Message:     err.Error(),
				Results:     state.NodeResults,
				NodeStatus:  state.NodeStatus,
				ExecutionID: execID,
				Metrics:     state.Metrics.Snapshot(),
			}, nil
		}

		state.NodeResults[node] = result
		state.Executed[node] = true
		m.applySideEffects(node, result, state)

		if result.IsError() {
			state.setStatus(node, StatusError, result.Message)
			return &Result{
				Status:      RunError,
				Message:     fmt.Sprintf("node %q failed: %s", node, result.Message),
				Results:     state.NodeResults,
				NodeStatus:  state.NodeStatus,
				ExecutionID: execID,
				Metrics:     state.Metrics.Snapshot(),
			}, nil
		}
		if result.Status == registry.StatusWarning {
			state.setStatus(node, StatusWarning, result.Message)
		} else {
			state.setStatus(node, StatusSuccess, result.Message)
		}

		successors, abort, abortMsg := m.selectSuccessors(node, result)
		if abort {
			state.setStatus(node, StatusError, abortMsg)
			return &Result{
				Status:      RunError,
				Message:     abortMsg,
				Results:     state.NodeResults,
				NodeStatus:  state.NodeStatus,
				ExecutionID: execID,
				Metrics:     state.Metrics.Snapshot(),
			}, nil
		}
		for _, s := range successors {
			if state.Executed[s] || queued[s] {
				continue
			}
			queue = append(queue, s)
			queued[s] = true
			state.setStatus(s, StatusPending, "")
		}
	}

	if m.opts.AutoSaveOnDone {
		if err := m.SaveCheckpoint(state, ""); err != nil {
			slog.Warn("execmanager: auto-checkpoint on completion failed", "error", err)
		}
	}

	return &Result{
		Status:      RunSuccess,
		Message:     "execution completed",
		Results:     state.NodeResults,
		NodeStatus:  state.NodeStatus,
		ExecutionID: execID,
		Metrics:     state.Metrics.Snapshot(),
	}, nil
}

// resumeQueue reconstructs the pending frontier after restoring a
// checkpoint: any node all of whose... in the absence of stored queue
// state, the frontier is every node reachable in one edge-hop from an
// already-executed node that is itself not yet executed.
func (m *Manager) resumeQueue(state *State) ([]string, map[string]bool) {
	var queue []string
	queued := map[string]bool{}
	for node := range state.Executed {
		for _, succ := range m.wf.Edges[node] {
			if !state.Executed[succ] && !queued[succ] {
				queue = append(queue, succ)
				queued[succ] = true
			}
		}
	}
	if len(queue) == 0 && !state.Executed[m.wf.StartNode] {
		queue = []string{m.wf.StartNode}
		queued[m.wf.StartNode] = true
	}
	return queue, queued
}

// plannedOrder computes the order nodes would execute in (§4.5
// "dry_run"), without invoking any executor.
func (m *Manager) plannedOrder(state *State) ([]string, error) {
	var order []string
	queue := []string{m.wf.StartNode}
	seen := map[string]bool{m.wf.StartNode: true}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if _, ok := m.wf.Nodes[node]; !ok {
			continue
		}
		order = append(order, node)
		for _, succ := range m.wf.Edges[node] {
			if !seen[succ] {
				seen[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order, nil
}

// runNode resolves placeholders, coerces types, and executes one node
// through the retry/circuit-breaker wrapper (§4.5 steps 4-5).
func (m *Manager) runNode(ctx context.Context, node string, state *State) (registry.NodeResult, error) {
	def := m.wf.Nodes[node]
	state.setStatus(node, StatusRunning, "")

	resolved, err := m.resolveNodeParams(def, state)
	if err != nil {
		return registry.NodeResult{}, err
	}
	coerced := coerceParams(resolved)

	execInput := registry.ExecutorInput{
		Type:        def.Type,
		Label:       stringParam(def, "label"),
		Description: stringParam(def, "description"),
		Params:      coerced,
		NodeName:    node,
		ExecutionID: state.ExecutionID,
	}

	executor, ok := m.reg.Build(def.Type, m.deps)
	if !ok {
		return registry.NodeResult{}, fmt.Errorf("no executor registered for type %q (node %q)", def.Type, node)
	}

	return m.executeWithRetry(ctx, def.Type, node, executor, execInput, state)
}

func stringParam(def *actfile.NodeDef, key string) string {
	v, ok := def.Params[key]
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// resolveNodeParams resolves every placeholder in a node's params
// against the run's accumulated context (§4.5 step 4), one level of Map
// at a time (nested Lists/Maps are resolved recursively).
func (m *Manager) resolveNodeParams(def *actfile.NodeDef, state *State) (value.Value, error) {
	rctx := state.ResolverContext()
	out := value.NewMap()
	for _, k := range def.ParamOrder {
		v := def.Params[k]
		if k == "type" || k == "label" || k == "description" {
			continue
		}
		rv, err := resolveValue(v, rctx)
		if err != nil {
			return value.Null, err
		}
		out.Set(k, rv)
	}
	stats := rctx.CacheStats()
	state.Metrics.SyncResolverCache(stats.Hits, stats.Misses)
	return out, nil
}

func resolveValue(v value.Value, rctx *resolver.Context) (value.Value, error) {
	switch v.Kind() {
	case value.KindPlaceholder:
		raw, _ := v.Raw()
		return resolver.Resolve(raw, rctx)
	case value.KindString:
		s, _ := v.AsString()
		return resolver.Resolve(s, rctx)
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, e := range items {
			rv, err := resolveValue(e, rctx)
			if err != nil {
				return value.Null, err
			}
			out[i] = rv
		}
		return value.List(out...), nil
	case value.KindMap:
		out := value.NewMap()
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			rv, err := resolveValue(e, rctx)
			if err != nil {
				return value.Null, err
			}
			out.Set(k, rv)
		}
		return out, nil
	default:
		return v, nil
	}
}
