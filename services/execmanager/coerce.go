package execmanager

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"actengine/services/value"
)

var (
	coerceIntRe   = regexp.MustCompile(`^-?\d+$`)
	coerceFloatRe = regexp.MustCompile(`^-?(\d+\.\d+|\.\d+|\d+\.)([eE]-?\d+)?$`)
)

// jsonProneKeys additionally attempt JSON decode even without surrounding
// brackets (§4.5.1).
var jsonProneKeys = map[string]bool{
	"messages": true, "json_body": true, "data": true, "payload": true,
	"headers": true, "items": true, "list": true, "options": true,
	"config": true, "arguments": true, "parameters": true,
}

// CoerceParams is the exported entry point to the §4.5.1 coercion pass,
// used directly by the execution manager and, for its own independent
// per-request sub-DAG walk, by the agent package.
func CoerceParams(params value.Value) value.Value {
	return coerceParams(params)
}

// coerceParams walks a resolved params Map one level deep, applying the
// §4.5.1 type-coercion pass. Only String values that are not an
// unresolved placeholder token are considered; failures leave the value
// unchanged.
func coerceParams(params value.Value) value.Value {
	if params.Kind() != value.KindMap {
		return params
	}
	out := value.NewMap()
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		out.Set(k, coerceOne(k, v))
	}
	return out
}

func coerceOne(key string, v value.Value) value.Value {
	if v.Kind() != value.KindString {
		return v
	}
	s, _ := v.AsString()
	if isUnresolvedToken(s) {
		return v
	}

	lower := strings.ToLower(s)
	if lower == "true" {
		return value.Bool(true)
	}
	if lower == "false" {
		return value.Bool(false)
	}
	if coerceIntRe.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Int(i)
		}
	}
	if coerceFloatRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Float(f)
		}
	}

	trimmed := strings.TrimSpace(s)
	looksJSON := (strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) ||
		(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"))
	if looksJSON || jsonProneKeys[key] {
		if dv, ok := tryJSONDecode(s); ok {
			return dv
		}
	}
	return v
}

func isUnresolvedToken(s string) bool {
	trimmed := strings.TrimSpace(s)
	return (strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}")) ||
		(strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}"))
}

func tryJSONDecode(s string) (value.Value, bool) {
	var v value.Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return value.Null, false
	}
	return v, true
}
