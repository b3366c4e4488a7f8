package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"actengine/services/registry"
	"actengine/services/value"
)

// pathSegment is one step of dot/bracket navigation (§4.2 grammar
// `segment := IDENT | INTEGER`).
type pathSegment struct {
	isIndex bool
	index   int
	name    string
}

// parsePath splits a path expression into its head token and the chain
// of segments that follow it.
func parsePath(s string) (head string, segs []pathSegment, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, fmt.Errorf("empty path")
	}

	i := 0
	// head: optional "key:" prefix, then an identifier.
	if strings.HasPrefix(s, "key:") {
		i = len("key:")
	}
	start := i
	for i < len(s) && isIdentRune(rune(s[i])) {
		i++
	}
	if i == start {
		return "", nil, fmt.Errorf("invalid path head in %q", s)
	}
	head = s[:i]

	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			segStart := i
			for i < len(s) && isIdentRune(rune(s[i])) {
				i++
			}
			if i == segStart {
				return "", nil, fmt.Errorf("invalid path segment in %q at %d", s, i)
			}
			tok := s[segStart:i]
			if n, err := strconv.Atoi(tok); err == nil {
				segs = append(segs, pathSegment{isIndex: true, index: n})
			} else {
				segs = append(segs, pathSegment{name: tok})
			}
		case '[':
			close := strings.IndexByte(s[i:], ']')
			if close < 0 {
				return "", nil, fmt.Errorf("unterminated '[' in path %q", s)
			}
			inner := strings.TrimSpace(s[i+1 : i+close])
			i += close + 1
			if n, err := strconv.Atoi(inner); err == nil {
				segs = append(segs, pathSegment{isIndex: true, index: n})
			} else {
				segs = append(segs, pathSegment{name: strings.Trim(inner, `"'`)})
			}
		default:
			return "", nil, fmt.Errorf("unexpected character %q in path %q", s[i], s)
		}
	}
	return head, segs, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// navigate walks segs over root, short-circuiting to Null on a missing
// or null intermediate value (§4.2 "Path navigation").
func navigate(root value.Value, segs []pathSegment) value.Value {
	cur := root
	for _, seg := range segs {
		if cur.IsNull() {
			return value.Null
		}
		cur = navigateOne(cur, seg)
	}
	return cur
}

func navigateOne(v value.Value, seg pathSegment) value.Value {
	if seg.isIndex {
		if elem, ok := v.Index(seg.index); ok {
			return elem
		}
		// Fall through: dict lookup of stringified index, per the §4.2
		// lookup order; Value has no record attributes to try after it.
		if mv, ok := v.Get(strconv.Itoa(seg.index)); ok {
			return mv
		}
		return value.Null
	}
	if mv, ok := v.Get(seg.name); ok {
		return mv
	}
	// No list-index form applies to a non-integer segment; no reflection
	// target exists on our Value model beyond Map/List, so this is Null.
	return value.Null
}

// nodeResultValue converts a registry.NodeResult into the Map shape
// placeholder paths navigate (status/message/result/data/error_type).
func nodeResultValue(nr registry.NodeResult) value.Value {
	m := value.NewMap()
	m.Set("status", value.String(string(nr.Status)))
	m.Set("message", value.String(nr.Message))
	m.Set("result", nr.Result)
	m.Set("data", nr.Data)
	m.Set("error_type", value.String(nr.ErrorType))
	return m
}

// resolveHead looks up a path's head token against the runtime context:
// "input", "request_data", "key:NAME", or a completed node's NodeId.
func resolveHead(head string, ctx *Context) (value.Value, bool) {
	if v, ok := ctx.loopLookup(head); ok {
		return v, true
	}
	switch {
	case head == "input":
		return ctx.Input, true
	case head == "request_data":
		return ctx.RequestData, true
	case strings.HasPrefix(head, "key:"):
		name := strings.TrimPrefix(head, "key:")
		v, ok := ctx.ResolvedKeys[name]
		return v, ok
	default:
		if nr, ok := ctx.Results[head]; ok {
			return nodeResultValue(nr), true
		}
		return value.Null, false
	}
}

// resolveNodePath implements the "robust fallback strategies" of §4.2:
// when the head matches a NodeId, try the literal path; then with/without
// a leading "result" segment; finally a direct "result.<first>" access.
// Returns the resolved value, whether any strategy succeeded, and the
// list of attempted path strings (for debugging/tracing).
func resolveNodePath(head string, segs []pathSegment, ctx *Context) (value.Value, bool, []string) {
	var attempts []string

	root, headOK := resolveHead(head, ctx)
	if !headOK {
		attempts = append(attempts, head)
		return value.Null, false, attempts
	}

	// Attempt 1: literal path as given.
	attempts = append(attempts, describePath(head, segs))
	if v, ok := tryNavigate(root, segs); ok {
		return v, true, attempts
	}

	// Only nodes (not input/request_data/key:) get the result-prefix
	// fallback treatment.
	_, isNode := ctx.Results[head]
	if !isNode {
		return value.Null, false, attempts
	}

	if len(segs) > 0 && !segs[0].isIndex && segs[0].name == "result" {
		// Attempt 2: strip the leading "result" segment.
		rest := segs[1:]
		attempts = append(attempts, describePath(head, rest))
		if v, ok := tryNavigate(root, rest); ok {
			return v, true, attempts
		}
	} else {
		// Attempt 2: prepend "result".
		withResult := append([]pathSegment{{name: "result"}}, segs...)
		attempts = append(attempts, describePath(head, withResult))
		if v, ok := tryNavigate(root, withResult); ok {
			return v, true, attempts
		}
	}

	// Attempt 3: result.<first> as a one-step direct access.
	if len(segs) > 0 {
		oneStep := []pathSegment{{name: "result"}, segs[0]}
		attempts = append(attempts, describePath(head, oneStep))
		if v, ok := tryNavigate(root, oneStep); ok {
			return v, true, attempts
		}
	}

	return value.Null, false, attempts
}

// tryNavigate walks segs over root. A resulting Null (whether from a
// missing key or navigating into one) is treated as failure so the
// §4.2 fallback strategies get a chance to try an alternate shape; a
// bare head with no segments always succeeds trivially.
func tryNavigate(root value.Value, segs []pathSegment) (value.Value, bool) {
	if len(segs) == 0 {
		return root, true
	}
	cur := root
	for _, seg := range segs {
		if cur.IsNull() {
			return value.Null, false
		}
		cur = navigateOne(cur, seg)
	}
	return cur, !cur.IsNull()
}

func describePath(head string, segs []pathSegment) string {
	var b strings.Builder
	b.WriteString(head)
	for _, s := range segs {
		if s.isIndex {
			fmt.Fprintf(&b, "[%d]", s.index)
		} else {
			fmt.Fprintf(&b, ".%s", s.name)
		}
	}
	return b.String()
}
