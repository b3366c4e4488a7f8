package metrics

import (
	"fmt"
	"strings"

	"actengine/services/actfile"
	"actengine/services/execmanager"
)

// GraphNode is one node of the §4.6 "graph representation (nodes with
// status, edges)" export hook.
type GraphNode struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

// GraphEdge is one source->target edge.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the in-memory structure §4.6 says is "suitable for DOT or
// Mermaid rendering".
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// BuildGraph assembles a Graph from a parsed workflow and, optionally,
// a run's node statuses (pass nil for a static, status-free graph).
func BuildGraph(wf *actfile.Workflow, statuses map[string]execmanager.NodeStatusEntry) Graph {
	g := Graph{}
	for _, id := range wf.NodeOrder {
		def := wf.Nodes[id]
		var status string
		if statuses != nil {
			status = string(statuses[id].Status)
		}
		g.Nodes = append(g.Nodes, GraphNode{ID: id, Type: def.Type, Status: status})
	}
	for _, src := range wf.EdgeOrder {
		for _, tgt := range wf.Edges[src] {
			g.Edges = append(g.Edges, GraphEdge{Source: src, Target: tgt})
		}
	}
	return g
}

// ToDOT renders a Graph as a Graphviz DOT digraph. No graphviz-rendering
// library appears anywhere in the example pack, so this writes the text
// format directly with strings.Builder rather than pulling in an
// unrelated dependency for a few lines of string formatting.
func (g Graph) ToDOT() string {
	var b strings.Builder
	b.WriteString("digraph workflow {\n")
	for _, n := range g.Nodes {
		label := n.ID
		if n.Status != "" {
			label = fmt.Sprintf("%s\\n(%s)", n.ID, n.Status)
		}
		fmt.Fprintf(&b, "  %q [label=%q, shape=box];\n", n.ID, label)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q;\n", e.Source, e.Target)
	}
	b.WriteString("}\n")
	return b.String()
}

// ToMermaid renders a Graph as a Mermaid flowchart definition.
func (g Graph) ToMermaid() string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range g.Nodes {
		label := n.ID
		if n.Status != "" {
			label = fmt.Sprintf("%s (%s)", n.ID, n.Status)
		}
		fmt.Fprintf(&b, "  %s[%q]\n", sanitizeMermaidID(n.ID), label)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s --> %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}
	return b.String()
}

// sanitizeMermaidID strips characters Mermaid node IDs can't contain.
func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return r.Replace(id)
}
