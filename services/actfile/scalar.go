package actfile

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"actengine/services/value"
)

var (
	intRe   = regexp.MustCompile(`^-?\d+$`)
	floatRe = regexp.MustCompile(`^-?(\d+\.\d+|\.\d+|\d+\.)([eE]-?\d+)?$`)
	sciRe   = regexp.MustCompile(`^-?\d+[eE]-?\d+$`)
)

// isSolePlaceholder reports whether trimmed is exactly one {{...}} or
// ${...} token with nothing else around it (§4.1 rule 1).
func isSolePlaceholder(trimmed string) bool {
	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") && len(trimmed) >= 4 {
		inner := trimmed[2 : len(trimmed)-2]
		return !strings.Contains(inner, "}}")
	}
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") && len(trimmed) >= 3 {
		inner := trimmed[2 : len(trimmed)-1]
		return !strings.Contains(inner, "}")
	}
	return false
}

// parseScalar applies the §4.1 value coercion ladder to a single-line
// (or pre-joined multi-line JSON) raw value.
func parseScalar(raw string) value.Value {
	trimmed := strings.TrimSpace(raw)

	if isSolePlaceholder(trimmed) {
		return value.Placeholder(trimmed)
	}

	if looksLikeJSONContainer(trimmed) {
		if v, ok := tryParseJSON(trimmed); ok {
			return v
		}
		// fall through to String on decode failure
	}

	lower := strings.ToLower(trimmed)
	if lower == "true" {
		return value.Bool(true)
	}
	if lower == "false" {
		return value.Bool(false)
	}

	if intRe.MatchString(trimmed) {
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return value.Int(i)
		}
	}
	if floatRe.MatchString(trimmed) || sciRe.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return value.Float(f)
		}
	}

	if unquoted, ok := stripMatchingQuotes(trimmed); ok {
		return value.String(unquoted)
	}

	return value.String(trimmed)
}

// looksLikeJSONContainer reports whether s begins/ends with a bracket
// pair suggesting a JSON list or object, single-line or otherwise.
func looksLikeJSONContainer(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
}

func tryParseJSON(s string) (value.Value, bool) {
	var v value.Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return value.Null, false
	}
	if v.Kind() != value.KindList && v.Kind() != value.KindMap {
		return value.Null, false
	}
	return v, true
}

func stripMatchingQuotes(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return s[1 : len(s)-1], true
	}
	return s, false
}

// jsonOpenStart reports whether s begins a multi-line JSON value: starts
// with '[' or '{' without a matching close bracket appearing on the same
// line (i.e. bracket depth never returns to zero within s).
func jsonOpenStart(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return bracketDepth(trimmed) > 0
}

// bracketDepth counts opens minus closes across [,],{,} in s (no string
// or comment awareness, matching the source parser's behavior).
func bracketDepth(s string) int {
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		}
	}
	return depth
}
