package execmanager

import "actengine/services/registry"

// selectSuccessors implements §4.5.3: type-specific branch selection for
// `if`/`switch`, and "enqueue all edges in order" for everything else.
func (m *Manager) selectSuccessors(node string, result registry.NodeResult) (successors []string, abort bool, abortMsg string) {
	def := m.wf.Nodes[node]
	edges := m.wf.Edges[node]

	switch def.Type {
	case "if":
		b, ok := result.Result.AsBool()
		if !ok {
			return nil, true, "node \"" + node + "\": if node's result.result is not a Bool"
		}
		if len(edges) == 0 {
			return nil, false, ""
		}
		if b {
			return edges[:1], false, ""
		}
		if len(edges) > 1 {
			return edges[1:2], false, ""
		}
		return nil, false, ""

	case "switch":
		selected, ok := result.Result.Get("selected_node")
		if !ok || selected.IsNull() {
			return nil, false, ""
		}
		s, isStr := selected.AsString()
		if !isStr {
			return nil, true, "node \"" + node + "\": switch node's result.selected_node is not a NodeId"
		}
		for _, e := range edges {
			if e == s {
				return []string{s}, false, ""
			}
		}
		return nil, true, "node \"" + node + "\": switch node selected undeclared edge target " + s

	default:
		return edges, false, ""
	}
}
