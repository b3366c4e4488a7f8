package agent

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"actengine/services/value"
)

// RouteDef is one `aci`/`add_route` node's declared HTTP endpoint
// (§4.7).
type RouteDef struct {
	NodeID       string
	Path         string // gorilla/mux path pattern, after conversion
	Methods      []string
	Handler      string
	AuthRequired bool
	RateLimit    value.Value
	Description  string
}

// flaskConverterRe matches Flask-style path converters (`<string:id>`,
// `<int:id>`, or a bare `<id>`) so declared routes can be translated to
// gorilla/mux's `{id}` syntax.
var flaskConverterRe = regexp.MustCompile(`<(?:[a-zA-Z]+:)?([a-zA-Z_][a-zA-Z0-9_]*)>`)

func toMuxPath(path string) string {
	return flaskConverterRe.ReplaceAllString(path, "{$1}")
}

// routeDefFromParams builds a RouteDef from an `aci` node's resolved
// params (§4.7 "Required node parameters").
func routeDefFromParams(nodeID string, params map[string]value.Value) (*RouteDef, error) {
	pathV, ok := params["route_path"]
	if !ok {
		return nil, fmt.Errorf("missing route_path")
	}
	path, ok := pathV.AsString()
	if !ok || path == "" {
		return nil, fmt.Errorf("route_path is not a non-empty string")
	}

	methodsV, ok := params["methods"]
	if !ok {
		return nil, fmt.Errorf("missing methods")
	}
	var methods []string
	switch methodsV.Kind() {
	case value.KindList:
		items, _ := methodsV.AsList()
		for _, it := range items {
			if s, ok := it.AsString(); ok {
				methods = append(methods, strings.ToUpper(s))
			}
		}
	case value.KindString:
		s, _ := methodsV.AsString()
		methods = append(methods, strings.ToUpper(s))
	default:
		return nil, fmt.Errorf("methods must be a List or String")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("methods resolved to an empty list")
	}

	handler := nodeID
	if hv, ok := params["handler"]; ok {
		if s, ok := hv.AsString(); ok && s != "" {
			handler = s
		}
	}

	rd := &RouteDef{
		NodeID:  nodeID,
		Path:    toMuxPath(path),
		Methods: methods,
		Handler: handler,
	}
	if av, ok := params["auth_required"]; ok {
		rd.AuthRequired, _ = av.AsBool()
	}
	if rl, ok := params["rate_limit"]; ok {
		rd.RateLimit = rl
	}
	if d, ok := params["description"]; ok {
		rd.Description, _ = d.AsString()
	}
	return rd, nil
}

// registerRoute binds rd onto the agent's dynamic subrouter and records
// it for the admin surface.
func (a *Agent) registerRoute(rd *RouteDef) {
	a.mu.Lock()
	a.routes[rd.NodeID] = rd
	a.mu.Unlock()

	a.router.HandleFunc(rd.Path, a.handleDynamicRoute(rd)).Methods(rd.Methods...)
	slog.Info("agent: registered dynamic route", "node", rd.NodeID, "path", rd.Path, "methods", rd.Methods)
}

// AddRoute implements execmanager.AciRegistrar: a workflow run's `aci`
// side effect (§4.5.4) asking to register a new route at runtime.
func (a *Agent) AddRoute(nodeID string, params value.Value) {
	if params.Kind() != value.KindMap {
		slog.Warn("agent: add_route side effect params is not a Map", "node", nodeID)
		return
	}
	m := make(map[string]value.Value, len(params.Keys()))
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		m[k] = v
	}
	rd, err := routeDefFromParams(nodeID, m)
	if err != nil {
		slog.Warn("agent: add_route side effect malformed", "node", nodeID, "error", err)
		return
	}
	a.registerRoute(rd)
}

// RemoveRoute implements execmanager.AciRegistrar. gorilla/mux has no
// route-removal API, so this un-registers the route from the admin
// surface and the dispatch check: the mux route stays in the router, but
// its handler answers 404 once the route is gone.
func (a *Agent) RemoveRoute(nodeID string, params value.Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.routes, nodeID)
	slog.Info("agent: route removed from admin surface", "node", nodeID)
}

// Routes returns a snapshot of every currently registered dynamic route.
func (a *Agent) Routes() []*RouteDef {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*RouteDef, 0, len(a.routes))
	for _, id := range a.wf.NodeOrder {
		if rd, ok := a.routes[id]; ok {
			out = append(out, rd)
		}
	}
	for id, rd := range a.routes {
		if _, ok := a.wf.Nodes[id]; !ok {
			out = append(out, rd)
		}
	}
	return out
}
