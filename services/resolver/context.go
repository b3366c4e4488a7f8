package resolver

import (
	"actengine/services/registry"
	"actengine/services/value"
)

// Context is the runtime context every expression resolves against
// (§4.2 "Runtime phase"): the execution's initial input, every completed
// node's result under its NodeId, `{{key:NAME}}` bindings from `set`
// nodes, and — in the agent case — an extra `request_data` mapping.
type Context struct {
	Input       value.Value
	Results     map[string]registry.NodeResult
	ResolvedKeys map[string]value.Value
	RequestData value.Value

	// FailOnUnresolved escalates an unresolved token to a fatal
	// ResolutionError instead of leaving it as the original text.
	FailOnUnresolved bool

	cache     *cache
	stack     []string    // expression texts currently being resolved, for cycle detection
	loopStack []loopFrame // active {{#each}} bindings, innermost last
}

// NewContext builds a fresh per-run Context. RequestData defaults to
// Null; callers building an agent request context set it explicitly.
func NewContext(input value.Value, failOnUnresolved bool) *Context {
	return &Context{
		Input:            input,
		Results:          make(map[string]registry.NodeResult),
		ResolvedKeys:     make(map[string]value.Value),
		RequestData:      value.Null,
		FailOnUnresolved: failOnUnresolved,
		cache:            newCache(),
	}
}

// CacheStats reports the resolution cache's cumulative hit/miss counts.
func (c *Context) CacheStats() Stats { return c.cache.stats() }

func (c *Context) pushStack(expr string) error {
	for _, e := range c.stack {
		if e == expr {
			return &PlaceholderCycleError{Expression: expr, Chain: append(append([]string(nil), c.stack...), expr)}
		}
	}
	c.stack = append(c.stack, expr)
	return nil
}

func (c *Context) popStack() {
	c.stack = c.stack[:len(c.stack)-1]
}
