package execnodes

import "actengine/services/registry"

// newSetNode implements the §4.5.4 `set` side effect: the engine reads
// result.result.key/value to bind a name into the run's resolved-keys
// map, so its only job is to echo `key`/`value` through unchanged.
func newSetNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		keyV, hasKey := in.Params.Get("key")
		_, hasVal := in.Params.Get("value")
		if !hasKey {
			return registry.NodeResult{Status: registry.StatusError, Message: "set node missing required param: key", ErrorType: "ValidationError"}
		}
		if key, ok := keyV.AsString(); !ok || key == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "set node's key param must be a non-empty String", ErrorType: "ValidationError"}
		}
		if !hasVal {
			return registry.NodeResult{Status: registry.StatusError, Message: "set node missing required param: value", ErrorType: "ValidationError"}
		}

		out := in.Params
		return registry.NodeResult{Status: registry.StatusSuccess, Result: out}
	})
}
