// Package resolver implements the §4.2 placeholder resolution engine:
// the runtime-phase expression grammar, its built-in filters/functions,
// the `{{#if}}`/`{{#each}}` block pre-pass, and the per-run memoized
// cache with cycle detection.
package resolver

import (
	"log/slog"
	"os"
	"regexp"

	"actengine/services/value"
)

var tokenRe = regexp.MustCompile(`\{\{(.*?)\}\}|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve expands every block form and placeholder token in text against
// ctx (§4.2 "Resolution semantics"). A string containing exactly one
// `{{…}}` token and no surrounding text resolves to the native Value;
// otherwise every token is replaced by its string form and the result is
// a String.
func Resolve(text string, ctx *Context) (value.Value, error) {
	expanded, err := resolveBlocks(text, ctx)
	if err != nil {
		return value.Null, err
	}

	locs := tokenRe.FindAllStringSubmatchIndex(expanded, -1)
	if len(locs) == 0 {
		return value.String(expanded), nil
	}

	if len(locs) == 1 && locs[0][0] == 0 && locs[0][1] == len(expanded) {
		v, _, err := resolveOneToken(expanded, locs[0], ctx)
		if err != nil {
			return value.Null, err
		}
		return v, nil
	}

	var out []byte
	last := 0
	for _, m := range locs {
		out = append(out, expanded[last:m[0]]...)
		v, _, err := resolveOneToken(expanded, m, ctx)
		if err != nil {
			return value.Null, err
		}
		out = append(out, v.String()...)
		last = m[1]
	}
	out = append(out, expanded[last:]...)
	return value.String(string(out)), nil
}

// resolveOneToken resolves a single regex match (either a `{{expr}}` or a
// `${ENV}` token) to its Value, applying the cache, cycle detection, and
// unresolved-token policy.
func resolveOneToken(s string, m []int, ctx *Context) (value.Value, bool, error) {
	if m[2] >= 0 {
		exprText := s[m[2]:m[3]]
		return resolveCachedExpr(exprText, ctx, s[m[0]:m[1]])
	}
	envName := s[m[4]:m[5]]
	return resolveEnvToken(envName, s[m[0]:m[1]], ctx)
}

func resolveCachedExpr(exprText string, ctx *Context, original string) (value.Value, bool, error) {
	// Inside a {{#each}} body the same expression text (e.g. "this") binds
	// to a different value on every iteration, so the run-wide cache (keyed
	// on expression text alone) must be bypassed while any loop frame is
	// active; otherwise the first iteration's result would be memoized and
	// replayed for every later one.
	inLoop := len(ctx.loopStack) > 0

	if !inLoop {
		if v, hit := ctx.cache.get(exprText); hit {
			return v, true, nil
		}
	}

	if err := ctx.pushStack(exprText); err != nil {
		return value.Null, false, err
	}
	v, ok := evalExpression(exprText, ctx)
	ctx.popStack()

	if !ok {
		return unresolvedToken(exprText, original, ctx)
	}
	if !inLoop {
		ctx.cache.put(exprText, v)
	}
	return v, true, nil
}

func resolveEnvToken(envName, original string, ctx *Context) (value.Value, bool, error) {
	if val, found := os.LookupEnv(envName); found {
		return value.String(val), true, nil
	}
	return unresolvedToken("${"+envName+"}", original, ctx)
}

// unresolvedToken implements "by default logged and left as the original
// token; fail_on_unresolved escalates to a fatal ResolutionError."
func unresolvedToken(exprText, original string, ctx *Context) (value.Value, bool, error) {
	if ctx.FailOnUnresolved {
		return value.Null, false, &ResolutionError{Expression: exprText, Reason: "could not be resolved"}
	}
	slog.Warn("resolver: unresolved placeholder left in place", "expression", exprText)
	return value.String(original), false, nil
}
