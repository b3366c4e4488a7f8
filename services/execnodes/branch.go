package execnodes

import (
	"fmt"

	"actengine/services/registry"
	"actengine/services/value"
)

// newIfNode evaluates `value1 operator value2` and returns the outcome
// as result.result (a Bool), which selectSuccessors reads directly to
// choose the true/false edge (§4.5.3).
func newIfNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		operatorV, _ := in.Params.Get("operator")
		operator, _ := operatorV.AsString()
		if operator == "" {
			operator = "gt"
		}

		v1, hasV1 := in.Params.Get("value1")
		v2, hasV2 := in.Params.Get("value2")
		if !hasV1 || !hasV2 {
			return registry.NodeResult{Status: registry.StatusError, Message: "if node requires value1 and value2", ErrorType: "ValidationError"}
		}

		met, err := compare(v1, operator, v2)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: err.Error(), ErrorType: "ValidationError"}
		}

		return registry.NodeResult{Status: registry.StatusSuccess, Result: value.Bool(met)}
	})
}

// compare implements the `if`/`switch`-adjacent comparison operators.
// Both the short forms used by the Actfile examples (gt, lt, eq, ...)
// and their long-form synonyms are accepted, matching the source
// condition node's more verbose vocabulary.
func compare(a value.Value, operator string, b value.Value) (bool, error) {
	switch operator {
	case "eq", "equal_to":
		return value.Equal(a, b), nil
	case "ne", "not_equal_to":
		return !value.Equal(a, b), nil
	case "gt", "greater_than":
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if !aok || !bok {
			return false, fmt.Errorf("if node: gt requires numeric operands")
		}
		return af > bf, nil
	case "gte", "greater_than_or_equal":
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if !aok || !bok {
			return false, fmt.Errorf("if node: gte requires numeric operands")
		}
		return af >= bf, nil
	case "lt", "less_than":
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if !aok || !bok {
			return false, fmt.Errorf("if node: lt requires numeric operands")
		}
		return af < bf, nil
	case "lte", "less_than_or_equal":
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if !aok || !bok {
			return false, fmt.Errorf("if node: lte requires numeric operands")
		}
		return af <= bf, nil
	case "contains":
		s, aok := a.AsString()
		sub, bok := b.AsString()
		if !aok || !bok {
			return false, fmt.Errorf("if node: contains requires String operands")
		}
		return containsSubstring(s, sub), nil
	default:
		return false, fmt.Errorf("if node: unsupported operator %q", operator)
	}
}

func containsSubstring(s, sub string) bool {
	if sub == "" {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// newSwitchNode selects a downstream node by name from its `cases` map
// (an input value -> target NodeId table) plus an optional `default`,
// returning result.result.selected_node per §4.5.3's switch contract.
func newSwitchNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		inputV, hasInput := in.Params.Get("value")
		casesV, hasCases := in.Params.Get("cases")
		if !hasInput || !hasCases || casesV.Kind() != value.KindMap {
			return registry.NodeResult{Status: registry.StatusError, Message: "switch node requires value and a cases Map", ErrorType: "ValidationError"}
		}

		key := inputV.String()
		selected, matched := casesV.Get(key)
		if !matched {
			if def, ok := in.Params.Get("default"); ok {
				selected = def
				matched = true
			}
		}

		result := value.NewMap()
		if matched {
			if s, ok := selected.AsString(); ok {
				result.Set("selected_node", value.String(s))
			}
		} else {
			result.Set("selected_node", value.Null)
		}
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}
