package resolver

import "fmt"

// PlaceholderCycleError is fatal to the run (§4.2 "Caching"): it reports
// a placeholder expression that (directly or transitively) refers back
// to itself during a single resolution.
type PlaceholderCycleError struct {
	Expression string
	Chain      []string
}

func (e *PlaceholderCycleError) Error() string {
	return fmt.Sprintf("placeholder cycle detected resolving %q: %v", e.Expression, e.Chain)
}

// ResolutionError is returned when fail_on_unresolved is set and a token
// could not be resolved (§4.2 "Unresolved placeholders").
type ResolutionError struct {
	Expression string
	Reason     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unresolved placeholder %q: %s", e.Expression, e.Reason)
}
