// Package execnodes registers the built-in and reference executor types
// the execution manager and agent dispatch against a registry.Registry.
// The engine itself only depends on the behavior of six built-in types
// (set, if, switch, noop, aci, log_message); everything else here is a
// demonstration/reference executor exercising the plugin surface.
package execnodes

import (
	"log/slog"

	"actengine/services/registry"
	"actengine/services/value"
)

// Register wires every executor type this package ships into reg.
// Call once at startup before any workflow is executed.
func Register(reg *registry.Registry) {
	reg.Register("noop", newNoopNode)
	reg.Register("log_message", newLogMessageNode)
	reg.Register("set", newSetNode)
	reg.Register("if", newIfNode)
	reg.Register("switch", newSwitchNode)
	reg.Register("aci", newAciNode)

	reg.Register("weather", newWeatherNode)
	reg.Register("email", newEmailNode)
	reg.Register("sms", newSmsNode)
	reg.Register("flood", newFloodNode)
	reg.Register("http_request", newHTTPRequestNode)
	reg.Register("llm", newLLMNode)
	reg.Register("neon", newNeonNode)
}

// newNoopNode is a pass-through: it echoes its params as result.result
// so downstream nodes can reference whatever it was configured with (a
// `noop` node is a wiring placeholder, not a dead end).
func newNoopNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		return registry.NodeResult{
			Status: registry.StatusSuccess,
			Result: in.Params,
		}
	})
}

// newLogMessageNode logs its `message` param via slog and passes it
// through as the result, so a workflow can observe a checkpoint in its
// own trace without side effects beyond the log line.
func newLogMessageNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		msgV, _ := in.Params.Get("message")
		msg, _ := msgV.AsString()
		if msg == "" {
			msg = msgV.String()
		}

		level, _ := in.Params.Get("level")
		levelStr, _ := level.AsString()
		switch levelStr {
		case "warn", "warning":
			slog.Warn(msg, "node", in.NodeName)
		case "error":
			slog.Error(msg, "node", in.NodeName)
		default:
			slog.Info(msg, "node", in.NodeName)
		}

		result := value.NewMap()
		result.Set("message", value.String(msg))
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}
