package actfile

// validateStructure enforces the §3.5 load-time invariants: every
// NodeId in edges exists in nodes, start_node is set and exists, and a
// required "type" was given on every node — the last is already
// enforced while parsing each node: section.
func validateStructure(wf *Workflow, path string) error {
	if wf.StartNode == "" {
		return newParseError(path, 0, "missing required field: start_node")
	}
	if _, ok := wf.Nodes[wf.StartNode]; !ok {
		return newParseError(path, 0, "start_node %q is not a defined node", wf.StartNode)
	}
	for source, targets := range wf.Edges {
		if _, ok := wf.Nodes[source]; !ok {
			return newParseError(path, 0, "edge references undefined source node %q", source)
		}
		for _, t := range targets {
			if _, ok := wf.Nodes[t]; !ok {
				return newParseError(path, 0, "edge references undefined target node %q", t)
			}
		}
	}
	return nil
}
