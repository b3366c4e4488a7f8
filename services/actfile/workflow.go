// Package actfile parses the sectioned Actfile text format into a
// Workflow model, and serializes a Workflow back to that format.
package actfile

import "actengine/services/value"

// Workflow is the parsed representation of an Actfile (§3.2).
type Workflow struct {
	Name        string
	Description string
	StartNode   string

	Parameters    map[string]value.Value
	Env           map[string]string
	Settings      map[string]value.Value
	Configuration map[string]value.Value
	Deployment    map[string]value.Value

	Nodes map[string]*NodeDef
	// NodeOrder preserves the order nodes were declared, for display.
	NodeOrder []string

	// Edges maps a source NodeId to its ordered successor NodeIds.
	Edges map[string][]string
	// EdgeOrder preserves first-seen source order, for display/serialization.
	EdgeOrder []string

	// Dependencies is advisory only: node-type -> ordered dependency names.
	Dependencies map[string][]string
}

// NewWorkflow returns a Workflow with all maps initialized.
func NewWorkflow() *Workflow {
	return &Workflow{
		Parameters:    map[string]value.Value{},
		Env:           map[string]string{},
		Settings:      map[string]value.Value{},
		Configuration: map[string]value.Value{},
		Deployment:    map[string]value.Value{},
		Nodes:         map[string]*NodeDef{},
		Edges:         map[string][]string{},
		Dependencies:  map[string][]string{},
	}
}

// NodeDef is a single node's declaration (§3.3): an ID, a required type
// string selecting an executor, and a free-form parameter bag.
type NodeDef struct {
	ID   string
	Type string
	// Params holds every key declared in the node's section except
	// "type", in declaration order.
	Params     map[string]value.Value
	ParamOrder []string
}

// NewNodeDef returns a NodeDef with its param map initialized.
func NewNodeDef(id, typ string) *NodeDef {
	return &NodeDef{ID: id, Type: typ, Params: map[string]value.Value{}}
}

// Set stores a param value, recording first-insertion order.
func (n *NodeDef) Set(key string, v value.Value) {
	if _, exists := n.Params[key]; !exists {
		n.ParamOrder = append(n.ParamOrder, key)
	}
	n.Params[key] = v
}

// AddNode registers a node, preserving declaration order.
func (w *Workflow) AddNode(n *NodeDef) {
	if _, exists := w.Nodes[n.ID]; !exists {
		w.NodeOrder = append(w.NodeOrder, n.ID)
	}
	w.Nodes[n.ID] = n
}

// AddEdges appends targets to a source's edge list, creating it if new.
// Repeated "SRC = ..." lines for the same source append rather than
// overwrite (§4.1 Edges section).
func (w *Workflow) AddEdges(source string, targets ...string) {
	if _, exists := w.Edges[source]; !exists {
		w.EdgeOrder = append(w.EdgeOrder, source)
	}
	w.Edges[source] = append(w.Edges[source], targets...)
}
