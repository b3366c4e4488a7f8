package agent

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"actengine/services/actfile"
	"actengine/services/execmanager"
	"actengine/services/registry"
	"actengine/services/resolver"
	"actengine/services/value"
)

// maxRequestBody limits dynamic-route request bodies, mirroring the
// teacher's workflow execute handler.
const maxRequestBody = 1 << 20 // 1MB

// outcome is the §4.7 "execution_outcome" enum.
type outcome string

const (
	outcomeSuccess        outcome = "success"
	outcomePartialSuccess outcome = "partial_success"
	outcomeError          outcome = "error"
	outcomeSuccessNoOp    outcome = "success_no_op"
)

func (o outcome) httpStatus() int {
	switch o {
	case outcomePartialSuccess:
		return http.StatusMultiStatus
	case outcomeError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// traceEntry is one per-node diagnostic in the response's
// workflow_execution_trace.
type traceEntry struct {
	NodeID  string `json:"node_id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// dynamicResponse is the §4.7 step 5 response JSON shape.
type dynamicResponse struct {
	AgentName            string       `json:"agent_name"`
	RouteHandlerName     string       `json:"route_handler_name"`
	ACINodeIDDefiningRoute string     `json:"aci_node_id_defining_route"`
	RequestTimestamp     string       `json:"request_timestamp"`
	ExecutionOutcome     outcome      `json:"execution_outcome"`
	Message              string       `json:"message"`
	Payload              value.Value  `json:"payload"`
	WorkflowExecutionTrace []traceEntry `json:"workflow_execution_trace"`
}

// handleDynamicRoute builds the http.HandlerFunc that executes rd's
// sub-DAG on each incoming request (§4.7).
func (a *Agent) handleDynamicRoute(rd *RouteDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.RLock()
		_, live := a.routes[rd.NodeID]
		a.mu.RUnlock()
		if !live {
			writeErrorJSON(w, "ROUTE_REMOVED", "route has been removed", http.StatusNotFound)
			return
		}

		requestData, err := mergeRequestData(w, r)
		if err != nil {
			writeErrorJSON(w, "INVALID_BODY", err.Error(), http.StatusBadRequest)
			return
		}

		resp := a.executeSubDAG(rd, requestData, r.Method)
		writeJSON(w, resp.ExecutionOutcome.httpStatus(), resp)
	}
}

// handleExecute backs POST /api/v1/execute: a full §4.5 engine run over
// the whole workflow (start_node through every reachable successor),
// as opposed to a dynamic route's BFS sub-DAG walk.
func (a *Agent) handleExecute(w http.ResponseWriter, r *http.Request) {
	requestData, err := mergeRequestData(w, r)
	if err != nil {
		writeErrorJSON(w, "INVALID_BODY", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := a.opts.Manager.Execute(r.Context(), execmanager.RunOptions{
		ExecutionID:  "run-" + uuid.NewString(),
		InitialInput: requestData,
	})
	if err != nil {
		writeErrorJSON(w, "EXECUTION_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if a.opts.Collectors != nil {
		a.opts.Collectors.RecordExecution(string(result.Status))
	}
	if a.opts.History != nil {
		a.opts.History.RecordRun(a.wf.Name, result)
	}

	status := http.StatusOK
	if result.Status == execmanager.RunError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// mergeRequestData implements §4.7 step 1: URL path params, query string
// params, and (for POST/PUT/PATCH) the request body, parsed by
// content-type.
func mergeRequestData(w http.ResponseWriter, r *http.Request) (value.Value, error) {
	merged := value.NewMap()

	for k, v := range mux.Vars(r) {
		merged.Set(k, value.String(v))
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			merged.Set(k, value.String(v[0]))
		}
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		contentType := r.Header.Get("Content-Type")
		mediaType, _, _ := mime.ParseMediaType(contentType)
		switch mediaType {
		case "application/json":
			body, err := io.ReadAll(r.Body)
			if err != nil {
				return value.Null, err
			}
			if len(body) > 0 {
				var decoded value.Value
				if err := json.Unmarshal(body, &decoded); err != nil {
					return value.Null, err
				}
				if decoded.Kind() == value.KindMap {
					for _, k := range decoded.Keys() {
						v, _ := decoded.Get(k)
						merged.Set(k, v)
					}
				}
			}
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return value.Null, err
			}
			for k, v := range r.PostForm {
				if len(v) > 0 {
					merged.Set(k, value.String(v[0]))
				}
			}
		}
	}
	return merged, nil
}

// executeSubDAG implements §4.7 steps 2-4: breadth-first execution of
// the sub-DAG reachable from rd's node, with a per-request resolution
// context and a tracked "final payload".
func (a *Agent) executeSubDAG(rd *RouteDef, requestData value.Value, method string) dynamicResponse {
	rctx := resolver.NewContext(value.Null, false)
	rctx.RequestData = requestData

	type queued struct {
		node  string
		depth int
	}
	var queue []queued
	executed := map[string]bool{}
	for _, succ := range a.wf.Edges[rd.NodeID] {
		queue = append(queue, queued{node: succ, depth: 1})
	}

	var trace []traceEntry
	var payload value.Value = value.Null
	successCount, failureCount := 0, 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if executed[item.node] {
			continue
		}
		def, ok := a.wf.Nodes[item.node]
		if !ok {
			continue
		}
		if item.depth > a.opts.MaxExecutionDepth {
			slog.Warn("agent: sub-DAG exceeded max_execution_depth", "route", rd.NodeID, "node", item.node, "depth", item.depth)
			continue
		}
		executed[item.node] = true

		resolved, err := a.resolveNodeParams(def, rctx)
		if err != nil {
			trace = append(trace, traceEntry{NodeID: item.node, Type: def.Type, Status: "error", Message: err.Error()})
			failureCount++
			continue
		}
		resolved = applyNeonParametersOrder(def, resolved, requestData, method)
		coerced := execmanager.CoerceParams(resolved)

		executor, ok := a.reg.Build(def.Type, a.deps)
		if !ok {
			trace = append(trace, traceEntry{NodeID: item.node, Type: def.Type, Status: "error", Message: "no executor registered for type " + def.Type})
			failureCount++
			continue
		}

		nodeStart := time.Now()
		result := executor.Execute(registry.ExecutorInput{
			Type:     def.Type,
			NodeName: item.node,
			Params:   coerced,
		})
		if a.opts.Collectors != nil {
			a.opts.Collectors.RecordNodeDuration(def.Type, time.Since(nodeStart).Seconds())
		}
		rctx.Results[item.node] = result

		trace = append(trace, traceEntry{NodeID: item.node, Type: def.Type, Status: string(result.Status), Message: result.Message})

		if result.IsError() {
			failureCount++
			continue
		}
		successCount++
		payload = preferPayload(payload, result)

		for _, succ := range a.wf.Edges[item.node] {
			if !executed[succ] {
				queue = append(queue, queued{node: succ, depth: item.depth + 1})
			}
		}
	}

	var out outcome
	var message string
	switch {
	case successCount == 0 && failureCount == 0:
		out = outcomeSuccessNoOp
		message = "route has no downstream nodes to execute"
	case failureCount == 0:
		out = outcomeSuccess
		message = "sub-DAG completed successfully"
	case successCount == 0:
		out = outcomeError
		message = "sub-DAG execution failed"
	default:
		out = outcomePartialSuccess
		message = "sub-DAG completed with some node failures"
	}

	if a.opts.Collectors != nil {
		a.opts.Collectors.RecordExecution(string(out))
	}
	a.recordSubDAGHistory(rd, out, trace)

	return dynamicResponse{
		AgentName:              a.opts.Name,
		RouteHandlerName:       rd.Handler,
		ACINodeIDDefiningRoute: rd.NodeID,
		RequestTimestamp:       time.Now().UTC().Format(time.RFC3339),
		ExecutionOutcome:       out,
		Message:                message,
		Payload:                payload,
		WorkflowExecutionTrace: trace,
	}
}

// recordSubDAGHistory persists a per-request sub-DAG dispatch as a
// synthetic execmanager.Result, reusing the same history surface a full
// Manager.Execute run would write to (§4.7 dispatch has no Manager of
// its own, so there's no real execmanager.Result to forward).
func (a *Agent) recordSubDAGHistory(rd *RouteDef, out outcome, trace []traceEntry) {
	if a.opts.History == nil {
		return
	}
	status := execmanager.RunSuccess
	if out == outcomeError {
		status = execmanager.RunError
	}
	nodeStatus := make(map[string]execmanager.NodeStatusEntry, len(trace))
	for _, te := range trace {
		st := execmanager.StatusSuccess
		if te.Status == "error" {
			st = execmanager.StatusError
		}
		nodeStatus[te.NodeID] = execmanager.NodeStatusEntry{Status: st, Message: te.Message, UpdatedAt: time.Now()}
	}
	a.opts.History.RecordRun(a.wf.Name, &execmanager.Result{
		Status:      status,
		Message:     "agent route " + rd.NodeID,
		NodeStatus:  nodeStatus,
		ExecutionID: "agent-" + uuid.NewString(),
	})
}

// resolveNodeParams resolves every declared param of def against rctx,
// one level of List/Map at a time (mirrors execmanager's own recursive
// resolution, kept independent since the agent's resolver context is
// request-scoped rather than run-scoped).
func (a *Agent) resolveNodeParams(def *actfile.NodeDef, rctx *resolver.Context) (value.Value, error) {
	out := value.NewMap()
	for _, k := range def.ParamOrder {
		if k == "type" || k == "label" || k == "description" {
			continue
		}
		v := def.Params[k]
		rv, err := resolveAgentValue(v, rctx)
		if err != nil {
			return value.Null, err
		}
		out.Set(k, rv)
	}
	return out, nil
}

func resolveAgentValue(v value.Value, rctx *resolver.Context) (value.Value, error) {
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
			rv, err := resolveAgentValue(e, rctx)
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
			rv, err := resolveAgentValue(e, rctx)
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

// preferPayload implements §4.7 step 4's priority: the latest successful
// node's result field, falling back to data, then merging a result_text
// string (found on data) under "ai_explanation" into the existing
// payload if it is a dict.
func preferPayload(prev value.Value, result registry.NodeResult) value.Value {
	if !result.Result.IsNull() {
		return result.Result
	}
	if result.Data.Kind() == value.KindMap {
		if rt, ok := result.Data.Get("result_text"); ok {
			if s, isStr := rt.AsString(); isStr {
				if prev.Kind() != value.KindMap {
					prev = value.NewMap()
				}
				prev.Set("ai_explanation", value.String(s))
				return prev
			}
		}
	}
	if !result.Data.IsNull() {
		return result.Data
	}
	return prev
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("agent: failed to write response", "error", err)
	}
}

func writeErrorJSON(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, map[string]any{"code": code, "message": message})
}
