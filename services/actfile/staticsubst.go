package actfile

import (
	"log/slog"
	"os"
	"regexp"

	"actengine/services/value"
)

var (
	paramRe = regexp.MustCompile(`\{\{\s*\.Parameter\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	envRe   = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}`)
)

// applyStaticSubstitution walks every section except parameters and env,
// substituting {{.Parameter.NAME}} and ${ENV} inside String leaves
// (§4.1 "Static substitution pass"). This is distinct from the runtime
// resolver (§4.2), which handles the full expression grammar later.
func applyStaticSubstitution(wf *Workflow) {
	wf.Name = substituteText(wf.Name, wf)
	wf.Description = substituteText(wf.Description, wf)

	for k, v := range wf.Settings {
		wf.Settings[k] = substituteValue(v, wf)
	}
	for k, v := range wf.Configuration {
		wf.Configuration[k] = substituteValue(v, wf)
	}
	for k, v := range wf.Deployment {
		wf.Deployment[k] = substituteValue(v, wf)
	}
	for _, n := range wf.Nodes {
		for k, v := range n.Params {
			n.Params[k] = substituteValue(v, wf)
		}
	}
}

func substituteValue(v value.Value, wf *Workflow) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return value.String(substituteText(s, wf))
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, e := range items {
			out[i] = substituteValue(e, wf)
		}
		return value.List(out...)
	case value.KindMap:
		out := value.NewMap()
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			out.Set(k, substituteValue(e, wf))
		}
		return out
	default:
		return v
	}
}

func substituteText(s string, wf *Workflow) string {
	s = paramRe.ReplaceAllStringFunc(s, func(tok string) string {
		m := paramRe.FindStringSubmatch(tok)
		name := m[1]
		pv, ok := wf.Parameters[name]
		if !ok {
			slog.Warn("static substitution: parameter not found", "name", name)
			return tok
		}
		return pv.String()
	})
	s = envRe.ReplaceAllStringFunc(s, func(tok string) string {
		m := envRe.FindStringSubmatch(tok)
		name := m[1]
		ev, ok := os.LookupEnv(name)
		if !ok {
			slog.Warn("static substitution: environment variable not set", "name", name)
			return ""
		}
		return ev
	})
	return s
}
