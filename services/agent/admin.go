package agent

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerFixedRoutes binds the §6.4 fixed endpoints that exist
// regardless of any declared `aci` route.
func (a *Agent) registerFixedRoutes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	a.router.HandleFunc("/", a.handleHealth).Methods(http.MethodGet)
	a.router.HandleFunc("/api/status", a.handleStatus).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/dashboard", a.handleDashboard).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/nodes", a.handleAdminNodes).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/edges", a.handleAdminEdges).Methods(http.MethodGet)
	a.router.HandleFunc("/aci/info", a.handleACIInfo).Methods(http.MethodGet)
	if a.opts.Manager != nil {
		a.router.HandleFunc("/api/v1/execute", a.handleExecute).Methods(http.MethodPost)
	}
}

// RegisterPrometheus wires a Prometheus registry onto GET /metrics,
// alongside the fixed §6.4 endpoints (ambient observability, not a
// Non-goal per SPEC_FULL.md).
func (a *Agent) RegisterPrometheus(registry *prometheus.Registry) {
	a.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

func (a *Agent) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_name":    a.opts.Name,
		"version":       a.opts.Version,
		"status":        "ok",
		"node_count":    len(a.wf.Nodes),
		"route_count":   len(a.Routes()),
		"uptime_seconds": time.Since(a.startedAt).Seconds(),
	})
}

func (a *Agent) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"workflow_name": a.wf.Name,
		"start_node":    a.wf.StartNode,
		"node_count":    len(a.wf.Nodes),
		"edge_count":    len(a.wf.Edges),
		"route_count":   len(a.Routes()),
		"started_at":    a.startedAt.UTC().Format(time.RFC3339),
	}
	a.addHistorySummary(r.Context(), body)
	writeJSON(w, http.StatusOK, body)
}

// addHistorySummary merges the execution-history summary into body when
// the agent was constructed with a HistoryReader; a nil reader leaves
// body untouched (history is observability, not a hard dependency).
func (a *Agent) addHistorySummary(ctx context.Context, body map[string]any) {
	if a.opts.HistoryReader == nil {
		return
	}
	summary, err := a.opts.HistoryReader.Summarize(ctx)
	if err != nil {
		slog.Warn("agent: history summarize failed", "error", err)
		return
	}
	body["execution_history"] = summary
}

func (a *Agent) handleDashboard(w http.ResponseWriter, r *http.Request) {
	type routeView struct {
		NodeID  string   `json:"node_id"`
		Path    string   `json:"path"`
		Methods []string `json:"methods"`
		Handler string   `json:"handler"`
	}
	var routes []routeView
	for _, rd := range a.Routes() {
		routes = append(routes, routeView{NodeID: rd.NodeID, Path: rd.Path, Methods: rd.Methods, Handler: rd.Handler})
	}

	type edgeView struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	var edges []edgeView
	for _, src := range a.wf.EdgeOrder {
		for _, tgt := range a.wf.Edges[src] {
			edges = append(edges, edgeView{Source: src, Target: tgt})
		}
	}

	body := map[string]any{
		"workflow_name":      a.wf.Name,
		"registered_routes":  routes,
		"edges":              edges,
		"node_types":         a.reg.Types(),
	}
	a.addHistorySummary(r.Context(), body)
	writeJSON(w, http.StatusOK, body)
}

func (a *Agent) handleAdminNodes(w http.ResponseWriter, r *http.Request) {
	type nodeView struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	nodes := make([]nodeView, 0, len(a.wf.NodeOrder))
	for _, id := range a.wf.NodeOrder {
		nodes = append(nodes, nodeView{ID: id, Type: a.wf.Nodes[id].Type})
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (a *Agent) handleAdminEdges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"edges": a.wf.Edges})
}

func (a *Agent) handleACIInfo(w http.ResponseWriter, r *http.Request) {
	type routeView struct {
		NodeID       string `json:"node_id"`
		Path         string `json:"path"`
		Methods      []string `json:"methods"`
		Handler      string `json:"handler"`
		AuthRequired bool   `json:"auth_required"`
		Description  string `json:"description,omitempty"`
	}
	var routes []routeView
	for _, rd := range a.Routes() {
		routes = append(routes, routeView{
			NodeID:       rd.NodeID,
			Path:         rd.Path,
			Methods:      rd.Methods,
			Handler:      rd.Handler,
			AuthRequired: rd.AuthRequired,
			Description:  rd.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"aci_routes": routes})
}
