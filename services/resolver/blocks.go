package resolver

import (
	"regexp"
	"strings"

	"actengine/services/value"
)

// tagRe recognizes the five block-form tags recognized in the §4.2
// pre-pass: opening/closing #if and #each, and the else divider.
var tagRe = regexp.MustCompile(`\{\{\s*#if\s+(.*?)\s*\}\}|\{\{\s*else\s*\}\}|\{\{\s*/if\s*\}\}|\{\{\s*#each\s+(.*?)\s*\}\}|\{\{\s*/each\s*\}\}`)

const (
	tagGroupIfHeader   = 1
	tagGroupEachHeader = 2
)

type blockMatch struct {
	start, end int
	kind       string // "if-open", "else", "if-close", "each-open", "each-close"
	header     string
}

func classify(m []int, s string) blockMatch {
	bm := blockMatch{start: m[0], end: m[1]}
	switch {
	case m[2*tagGroupIfHeader] >= 0:
		bm.kind = "if-open"
		bm.header = s[m[2*tagGroupIfHeader]:m[2*tagGroupIfHeader+1]]
	case m[2*tagGroupEachHeader] >= 0:
		bm.kind = "each-open"
		bm.header = s[m[2*tagGroupEachHeader]:m[2*tagGroupEachHeader+1]]
	default:
		tag := s[m[0]:m[1]]
		switch {
		case strings.Contains(tag, "else"):
			bm.kind = "else"
		case strings.Contains(tag, "/if"):
			bm.kind = "if-close"
		case strings.Contains(tag, "/each"):
			bm.kind = "each-close"
		}
	}
	return bm
}

// resolveBlocks expands every `{{#if}}`/`{{#each}}` block in s, evaluated
// against ctx, before ordinary `{{expr}}` token substitution runs. #each
// bodies are fully resolved (blocks and tokens) per iteration since their
// loop bindings (`this`, `index`, `first`, `last`, `length`) only exist
// for that iteration.
func resolveBlocks(s string, ctx *Context) (string, error) {
	matches := tagRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	// Find the first open tag; anything before it is passed through.
	firstOpenIdx := -1
	for i, m := range matches {
		bm := classify(m, s)
		if bm.kind == "if-open" || bm.kind == "each-open" {
			firstOpenIdx = i
			break
		}
	}
	if firstOpenIdx < 0 {
		return s, nil
	}
	open := classify(matches[firstOpenIdx], s)

	depth := 1
	elseIdx := -1
	closeIdx := -1
	for i := firstOpenIdx + 1; i < len(matches); i++ {
		bm := classify(matches[i], s)
		switch bm.kind {
		case "if-open", "each-open":
			depth++
		case "else":
			if depth == 1 && strings.HasPrefix(open.kind, "if") {
				elseIdx = i
			}
		case "if-close", "each-close":
			depth--
			if depth == 0 {
				closeIdx = i
				goto found
			}
		}
	}
found:
	if closeIdx < 0 {
		// Unterminated block: leave as-is rather than failing the whole
		// resolution (consistent with "unresolved placeholders" being
		// non-fatal by default).
		return s, nil
	}

	before := s[:open.start]
	after := s[matches[closeIdx][1]:]

	var bodyStart, bodyEnd int
	var elseStart, elseEnd int
	hasElse := elseIdx >= 0
	if hasElse {
		bodyStart, bodyEnd = open.end, matches[elseIdx][0]
		elseStart, elseEnd = matches[elseIdx][1], matches[closeIdx][0]
	} else {
		bodyStart, bodyEnd = open.end, matches[closeIdx][0]
	}

	var expanded string
	switch open.kind {
	case "if-open":
		cond, ok := evalExpression(open.header, ctx)
		if !ok && ctx.FailOnUnresolved {
			return "", &ResolutionError{Expression: open.header, Reason: "condition in #if block did not resolve"}
		}
		if ok && cond.Truthy() {
			expanded = s[bodyStart:bodyEnd]
		} else if hasElse {
			expanded = s[elseStart:elseEnd]
		} else {
			expanded = ""
		}
		nested, err := resolveBlocks(expanded, ctx)
		if err != nil {
			return "", err
		}
		expanded = nested

	case "each-open":
		listVal, ok := evalExpression(open.header, ctx)
		if !ok {
			listVal = value.Null
		}
		items, isList := listVal.AsList()
		if !isList && !listVal.IsNull() {
			items = []value.Value{listVal}
		}
		body := s[bodyStart:bodyEnd]
		var b strings.Builder
		for i, item := range items {
			ctx.pushLoop(loopFrame{
				this:  item,
				index: i,
				first: i == 0,
				last:  i == len(items)-1,
				length: len(items),
			})
			rendered, err := Resolve(body, ctx)
			ctx.popLoop()
			if err != nil {
				return "", err
			}
			b.WriteString(rendered.String())
		}
		expanded = b.String()
	}

	rest, err := resolveBlocks(after, ctx)
	if err != nil {
		return "", err
	}
	return before + expanded + rest, nil
}

// loopFrame binds the `this`/`index`/`first`/`last`/`length` names inside
// a `{{#each}}` body.
type loopFrame struct {
	this         value.Value
	index        int
	first, last  bool
	length       int
}

func (c *Context) pushLoop(f loopFrame) { c.loopStack = append(c.loopStack, f) }
func (c *Context) popLoop()             { c.loopStack = c.loopStack[:len(c.loopStack)-1] }

func (c *Context) loopLookup(name string) (value.Value, bool) {
	if len(c.loopStack) == 0 {
		return value.Null, false
	}
	top := c.loopStack[len(c.loopStack)-1]
	switch name {
	case "this":
		return top.this, true
	case "index":
		return value.Int(int64(top.index)), true
	case "first":
		return value.Bool(top.first), true
	case "last":
		return value.Bool(top.last), true
	case "length":
		return value.Int(int64(top.length)), true
	default:
		return value.Null, false
	}
}
