package execmanager

import (
	"context"
	"testing"
	"time"

	"actengine/services/actfile"
	"actengine/services/registry"
	"actengine/services/value"
)

func parseTestWorkflow(t *testing.T, src string) *actfile.Workflow {
	t.Helper()
	wf, err := actfile.ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return wf
}

func alwaysSucceed(result value.Value) registry.Factory {
	return func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
		})
	}
}

func TestExecute_LinearSuccess(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = A

[node:A]
type = noop
[node:B]
type = noop

[edges]
A = B
`)
	reg := registry.New()
	reg.Register("noop", alwaysSucceed(value.String("ok")))

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != RunSuccess {
		t.Fatalf("Status = %v, want success; message=%s", res.Status, res.Message)
	}
	if len(res.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(res.Results))
	}
}

func TestExecute_IfNodeBranches(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Cond

[node:Cond]
type = if
[node:TrueBranch]
type = noop
[node:FalseBranch]
type = noop

[edges]
Cond = TrueBranch, FalseBranch
`)
	reg := registry.New()
	reg.Register("if", alwaysSucceed(value.Bool(true)))
	reg.Register("noop", alwaysSucceed(value.String("reached")))

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t2"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := res.Results["TrueBranch"]; !ok {
		t.Errorf("expected TrueBranch to have executed")
	}
	if _, ok := res.Results["FalseBranch"]; ok {
		t.Errorf("did not expect FalseBranch to have executed")
	}
}

func TestExecute_SwitchNodeSelectsNamedEdge(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Sw

[node:Sw]
type = switch
[node:PathA]
type = noop
[node:PathB]
type = noop

[edges]
Sw = PathA, PathB
`)
	selected := value.NewMap()
	selected.Set("selected_node", value.String("PathB"))

	reg := registry.New()
	reg.Register("switch", alwaysSucceed(selected))
	reg.Register("noop", alwaysSucceed(value.Null))

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t3"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := res.Results["PathB"]; !ok {
		t.Errorf("expected PathB to have executed")
	}
	if _, ok := res.Results["PathA"]; ok {
		t.Errorf("did not expect PathA to have executed")
	}
}

func TestExecute_SetNodeBindsResolvedKey(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Setter

[node:Setter]
type = set
[node:Reader]
type = capture

[edges]
Setter = Reader
`)
	setResult := value.NewMap()
	setResult.Set("key", value.String("greeting"))
	setResult.Set("value", value.String("hi"))

	var captured value.Value
	reg := registry.New()
	reg.Register("set", alwaysSucceed(setResult))
	reg.Register("capture", func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			captured, _ = in.Params.Get("message")
			return registry.NodeResult{Status: registry.StatusSuccess}
		})
	})

	wf.Nodes["Reader"].Set("message", value.Placeholder("{{key:greeting}}"))

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	if _, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t4"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if s, ok := captured.AsString(); !ok || s != "hi" {
		t.Errorf("captured message = %v, want hi", captured)
	}
}

func TestExecute_NodeErrorAbortsRun(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Bad

[node:Bad]
type = failer
[node:Unreached]
type = noop

[edges]
Bad = Unreached
`)
	reg := registry.New()
	reg.Register("failer", func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			return registry.NodeResult{Status: registry.StatusError, Message: "boom"}
		})
	})
	reg.Register("noop", alwaysSucceed(value.Null))

	opts := DefaultOptions()
	opts.MaxRetries = 1
	m := New(wf, reg, registry.Deps{}, opts)
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t5"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != RunError {
		t.Fatalf("Status = %v, want error", res.Status)
	}
	if _, ok := res.Results["Unreached"]; ok {
		t.Errorf("did not expect Unreached to have executed")
	}
}

func TestExecute_DryRunDoesNotInvokeExecutors(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = A

[node:A]
type = noop
[node:B]
type = noop

[edges]
A = B
`)
	reg := registry.New()
	invoked := false
	reg.Register("noop", func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			invoked = true
			return registry.NodeResult{Status: registry.StatusSuccess}
		})
	})

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t6", DryRun: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if invoked {
		t.Error("dry run invoked an executor")
	}
	if len(res.PlannedOrder) != 2 || res.PlannedOrder[0] != "A" || res.PlannedOrder[1] != "B" {
		t.Errorf("PlannedOrder = %v, want [A B]", res.PlannedOrder)
	}
}

func TestExecute_BreakpointPausesRun(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = A

[node:A]
type = noop
[node:B]
type = noop

[edges]
A = B
`)
	reg := registry.New()
	reg.Register("noop", alwaysSucceed(value.Null))

	m := New(wf, reg, registry.Deps{}, DefaultOptions())
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t7", Breakpoints: []string{"B"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != RunPaused || res.PausedNode != "B" {
		t.Fatalf("Status=%v PausedNode=%q, want paused at B", res.Status, res.PausedNode)
	}
}

func TestExecute_RetrySucceedsOnSecondAttempt(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Flaky

[node:Flaky]
type = flaky
`)
	var calls int
	reg := registry.New()
	reg.Register("flaky", func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			calls++
			if calls < 2 {
				return registry.NodeResult{Status: registry.StatusError, Message: "transient"}
			}
			return registry.NodeResult{Status: registry.StatusSuccess}
		})
	})

	opts := DefaultOptions()
	opts.MaxRetries = 2
	m := New(wf, reg, registry.Deps{}, opts)

	start := time.Now()
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t8"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != RunSuccess {
		t.Fatalf("Status = %v, want success after retry", res.Status)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if time.Since(start) < 2*time.Second {
		t.Errorf("expected retry backoff of at least 2s before success")
	}
}

func TestExecute_ValidationFailureIsNotRetried(t *testing.T) {
	wf := parseTestWorkflow(t, `
[workflow]
start_node = Bad

[node:Bad]
type = invalid
`)
	var calls int
	reg := registry.New()
	reg.Register("invalid", func(registry.Deps) registry.Executor {
		return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
			calls++
			return registry.NodeResult{Status: registry.StatusError, Message: "validation failed: bad params"}
		})
	})

	opts := DefaultOptions()
	opts.MaxRetries = 3
	m := New(wf, reg, registry.Deps{}, opts)
	res, err := m.Execute(context.Background(), RunOptions{ExecutionID: "t9"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Status != RunError {
		t.Fatalf("Status = %v, want error", res.Status)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (validation errors are not retried)", calls)
	}
}

func TestCheckpoint_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wf := parseTestWorkflow(t, `
[workflow]
start_node = A

[node:A]
type = noop
`)
	reg := registry.New()
	reg.Register("noop", alwaysSucceed(value.String("done")))

	opts := DefaultOptions()
	opts.CheckpointDir = dir
	m := New(wf, reg, registry.Deps{}, opts)
	state := NewState("cp1", value.Null, false)
	result, err := m.runNode(context.Background(), "A", state)
	if err != nil {
		t.Fatalf("runNode() error = %v", err)
	}
	state.NodeResults["A"] = result
	state.Executed["A"] = true

	if err := m.SaveCheckpoint(state, "cp1.json"); err != nil {
		t.Fatalf("SaveCheckpoint() error = %v", err)
	}

	cp, err := LoadCheckpoint(dir + "/cp1.json")
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if cp.ExecutionID != "cp1" {
		t.Errorf("ExecutionID = %q, want cp1", cp.ExecutionID)
	}
	if len(cp.ExecutedNodes) != 1 || cp.ExecutedNodes[0] != "A" {
		t.Errorf("ExecutedNodes = %v, want [A]", cp.ExecutedNodes)
	}

	restored := RestoreFromCheckpoint(*cp, false)
	if !restored.Executed["A"] {
		t.Errorf("restored state does not mark A as executed")
	}
}
