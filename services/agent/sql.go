package agent

import (
	"log/slog"
	"net/http"
	"strings"

	"actengine/services/actfile"
	"actengine/services/value"
)

// applyNeonParametersOrder implements the §4.7 "SQL parameter
// convention": a narrow special case scoped to exactly
// type=neon, operation=execute_query, method=POST (not generalized to
// other node types — see DESIGN.md).
func applyNeonParametersOrder(def *actfile.NodeDef, resolved value.Value, requestData value.Value, method string) value.Value {
	if def.Type != "neon" || method != http.MethodPost {
		return resolved
	}
	opV, ok := resolved.Get("operation")
	if !ok {
		return resolved
	}
	if op, _ := opV.AsString(); op != "execute_query" {
		return resolved
	}

	if existing, ok := resolved.Get("parameters"); ok && existing.Kind() == value.KindList {
		return resolved
	}

	orderV, ok := def.Params["parameters_order"]
	if !ok {
		return resolved
	}
	orderStr, ok := orderV.AsString()
	if !ok || orderStr == "" {
		return resolved
	}

	var params []value.Value
	for _, rawKey := range strings.Split(orderStr, ",") {
		key := strings.TrimSpace(rawKey)
		v, ok := requestData.Get(key)
		if !ok {
			slog.Error("agent: neon parameters_order references missing request key", "node", def.ID, "key", key)
			params = nil
			break
		}
		params = append(params, v)
	}

	resolved.Set("parameters", value.List(params...))
	return resolved
}
