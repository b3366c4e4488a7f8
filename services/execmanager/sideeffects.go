package execmanager

import "actengine/services/registry"

// applySideEffects implements §4.5.4: the only two node types the engine
// observes specially beyond if/switch.
func (m *Manager) applySideEffects(node string, result registry.NodeResult, state *State) {
	def := m.wf.Nodes[node]

	switch def.Type {
	case "set":
		keyV, hasKey := result.Result.Get("key")
		valV, hasVal := result.Result.Get("value")
		if !hasKey || !hasVal {
			return
		}
		key, ok := keyV.AsString()
		if !ok {
			return
		}
		state.ResolvedKeys[key] = valV

	case "aci":
		if m.opts.AciRegistrar == nil {
			return
		}
		opV, _ := result.Result.Get("operation")
		op, _ := opV.AsString()
		switch op {
		case "add_route":
			m.opts.AciRegistrar.AddRoute(node, result.Result)
		case "remove_route":
			m.opts.AciRegistrar.RemoveRoute(node, result.Result)
		}
	}
}
