// Package dag validates a parsed Workflow's edge graph before any
// execution begins (§4.4).
package dag

import (
	"fmt"
	"log/slog"

	"actengine/services/actfile"
)

// ValidationError is WorkflowValidationError from §4.4: any cycle
// reachable from any node, or a structural defect the parser itself
// could not have already caught.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Result reports the outcome of validating a Workflow's graph.
type Result struct {
	// Reachable holds every NodeId reachable from start_node (including
	// start_node itself).
	Reachable map[string]bool
	// Orphans holds nodes not reachable from start_node — logged as
	// warnings, not fatal (§4.4).
	Orphans []string
}

// Validate builds adjacency from wf.Edges, runs DFS cycle detection from
// every node (not only start_node), confirms start_node exists, and
// computes the reachable-from-start set.
func Validate(wf *actfile.Workflow) (*Result, error) {
	if wf.StartNode == "" {
		return nil, &ValidationError{Msg: "workflow has no start_node"}
	}
	if _, ok := wf.Nodes[wf.StartNode]; !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("start_node %q is not a defined node", wf.StartNode)}
	}

	for id := range wf.Nodes {
		if cyclePath, found := detectCycleFrom(wf, id); found {
			return nil, &ValidationError{Msg: fmt.Sprintf("cycle detected: %v", cyclePath)}
		}
	}

	reachable := reachableFrom(wf, wf.StartNode)

	var orphans []string
	for _, id := range wf.NodeOrder {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	for _, o := range orphans {
		slog.Warn("dag: node unreachable from start_node", "node", o, "start_node", wf.StartNode)
	}

	return &Result{Reachable: reachable, Orphans: orphans}, nil
}

// detectCycleFrom runs DFS from start, returning the cycle's node
// sequence if one is found.
func detectCycleFrom(wf *actfile.Workflow, start string) ([]string, bool) {
	visiting := map[string]bool{}
	visited := map[string]bool{}
	var path []string

	var dfs func(node string) ([]string, bool)
	dfs = func(node string) ([]string, bool) {
		visiting[node] = true
		path = append(path, node)
		for _, next := range wf.Edges[node] {
			if visiting[next] {
				return append(append([]string(nil), path...), next), true
			}
			if !visited[next] {
				if cyc, found := dfs(next); found {
					return cyc, true
				}
			}
		}
		visiting[node] = false
		visited[node] = true
		path = path[:len(path)-1]
		return nil, false
	}

	return dfs(start)
}

// reachableFrom computes every NodeId reachable from start via BFS over
// wf.Edges.
func reachableFrom(wf *actfile.Workflow, start string) map[string]bool {
	reachable := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range wf.Edges[cur] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reachable
}
