// Package agent implements the §4.7/§6.4 HTTP agent: it scans a parsed
// workflow for `aci` route-defining nodes, binds each one to a dynamic
// HTTP endpoint, and on request executes the sub-DAG reachable from
// that node, shaping a response from the last meaningful node output.
package agent

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"actengine/services/actfile"
	"actengine/services/execmanager"
	"actengine/services/history"
	"actengine/services/metrics"
	"actengine/services/registry"
)

// HistoryRecorder is the narrow interface the agent uses to persist a
// completed run's summary. Implemented by services/history; nil-able so
// the agent runs with no Postgres dependency at all.
type HistoryRecorder interface {
	RecordRun(workflowName string, result *execmanager.Result)
}

// HistoryReader is the narrow read side the admin surface uses to back
// GET /api/status and GET /admin/dashboard with durable run history.
// Also implemented by services/history; also nil-able.
type HistoryReader interface {
	Summarize(ctx context.Context) (history.Summary, error)
}

// Options configures one Agent.
type Options struct {
	Name              string
	Version           string
	MaxExecutionDepth int // §4.7 step 3, default 50
	History           HistoryRecorder
	HistoryReader      HistoryReader
	Collectors        *metrics.Collectors

	// Manager, when set, backs POST /api/v1/execute: a full §4.5 engine
	// run over the whole workflow, as opposed to the BFS sub-DAG walk
	// the dynamic `aci` routes perform. Nil-able; the agent serves its
	// aci-backed routes with no full-engine mode at all if omitted.
	Manager *execmanager.Manager
}

func (o *Options) withDefaults() {
	if o.Name == "" {
		o.Name = "actfile-agent"
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.MaxExecutionDepth == 0 {
		o.MaxExecutionDepth = 50
	}
}

// Agent is the §4.7 HTTP layer: fixed endpoints plus dynamically
// registered `aci` routes.
type Agent struct {
	wf   *actfile.Workflow
	reg  *registry.Registry
	deps registry.Deps
	opts Options

	router    *mux.Router
	startedAt time.Time

	mu     sync.RWMutex
	routes map[string]*RouteDef // nodeID -> route
}

// New builds an Agent over wf, scanning it immediately for statically
// declared `aci` add_route nodes (§4.7).
func New(wf *actfile.Workflow, reg *registry.Registry, deps registry.Deps, opts Options) *Agent {
	opts.withDefaults()
	a := &Agent{
		wf:        wf,
		reg:       reg,
		deps:      deps,
		opts:      opts,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
		routes:    make(map[string]*RouteDef),
	}
	a.registerFixedRoutes()
	a.scanStaticRoutes()
	return a
}

// Router returns the agent's http.Handler, ready to be wrapped with CORS
// middleware and served.
func (a *Agent) Router() http.Handler { return a.router }

// scanStaticRoutes registers every `aci`/`add_route` node declared
// directly in the Actfile (§4.7 "Scans the workflow for nodes of type
// aci with parameter operation = add_route").
func (a *Agent) scanStaticRoutes() {
	for _, id := range a.wf.NodeOrder {
		def := a.wf.Nodes[id]
		if def.Type != "aci" {
			continue
		}
		opV, ok := def.Params["operation"]
		if !ok {
			continue
		}
		op, _ := opV.AsString()
		if op != "add_route" {
			continue
		}
		rd, err := routeDefFromParams(id, def.Params)
		if err != nil {
			slog.Warn("agent: skipping malformed aci route node", "node", id, "error", err)
			continue
		}
		a.registerRoute(rd)
	}
}
