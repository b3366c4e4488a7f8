package execnodes

import "actengine/services/registry"

// newAciNode echoes its params through as result.result: the engine's
// applySideEffects (§4.5.4) reads operation/route_path/methods/... from
// there to drive the agent's AciRegistrar. This executor does no work
// of its own beyond validating that `operation` is one it recognizes.
func newAciNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		opV, ok := in.Params.Get("operation")
		if !ok {
			return registry.NodeResult{Status: registry.StatusError, Message: "aci node missing required param: operation", ErrorType: "ValidationError"}
		}
		op, _ := opV.AsString()
		switch op {
		case "add_route", "remove_route":
		default:
			return registry.NodeResult{Status: registry.StatusError, Message: "aci node: unsupported operation " + op, ErrorType: "ValidationError"}
		}
		return registry.NodeResult{Status: registry.StatusSuccess, Result: in.Params}
	})
}
