package actfile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"actengine/services/value"
)

// Serialize renders a Workflow back into Actfile source text. The
// round-trip law (§8) is parse(Serialize(w)) == w modulo comment and
// whitespace differences — Serialize does not attempt to reproduce the
// original file byte-for-byte.
func Serialize(wf *Workflow) (string, error) {
	var b strings.Builder

	b.WriteString("[workflow]\n")
	fmt.Fprintf(&b, "name = %s\n", quoteString(wf.Name))
	if wf.Description != "" {
		fmt.Fprintf(&b, "description = %s\n", quoteString(wf.Description))
	}
	fmt.Fprintf(&b, "start_node = %s\n", wf.StartNode)
	b.WriteString("\n")

	if len(wf.Parameters) > 0 {
		b.WriteString("[parameters]\n")
		for _, k := range sortedKeys(wf.Parameters) {
			writeKV(&b, k, wf.Parameters[k])
		}
		b.WriteString("\n")
	}

	if len(wf.Env) > 0 {
		b.WriteString("[env]\n")
		for _, k := range sortedStringKeys(wf.Env) {
			fmt.Fprintf(&b, "%s = %s\n", k, wf.Env[k])
		}
		b.WriteString("\n")
	}

	writeGenericSection(&b, "settings", wf.Settings)
	writeGenericSection(&b, "configuration", wf.Configuration)
	writeGenericSection(&b, "deployment", wf.Deployment)

	for _, id := range wf.NodeOrder {
		n := wf.Nodes[id]
		fmt.Fprintf(&b, "[node:%s]\n", id)
		fmt.Fprintf(&b, "type = %s\n", n.Type)
		for _, k := range n.ParamOrder {
			v := n.Params[k]
			if multilineKeys[k] {
				if s, ok := v.AsString(); ok && strings.Contains(s, "\n") {
					fmt.Fprintf(&b, "%s = \"\"\"\n%s\n\"\"\"\n", k, s)
					continue
				}
			}
			writeKV(&b, k, v)
		}
		b.WriteString("\n")
	}

	if len(wf.EdgeOrder) > 0 {
		b.WriteString("[edges]\n")
		for _, src := range wf.EdgeOrder {
			fmt.Fprintf(&b, "%s = %s\n", src, strings.Join(wf.Edges[src], ", "))
		}
		b.WriteString("\n")
	}

	if len(wf.Dependencies) > 0 {
		b.WriteString("[dependencies]\n")
		for _, k := range sortedStringListKeys(wf.Dependencies) {
			fmt.Fprintf(&b, "%s = %s\n", k, strings.Join(wf.Dependencies[k], ", "))
		}
	}

	return b.String(), nil
}

func writeGenericSection(b *strings.Builder, name string, m map[string]value.Value) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(b, "[%s]\n", name)
	for _, k := range sortedKeys(m) {
		writeKV(b, k, m[k])
	}
	b.WriteString("\n")
}

func writeKV(b *strings.Builder, key string, v value.Value) {
	fmt.Fprintf(b, "%s = %s\n", key, renderValue(v))
}

func renderValue(v value.Value) string {
	switch v.Kind() {
	case value.KindPlaceholder:
		raw, _ := v.Raw()
		return raw
	case value.KindString:
		s, _ := v.AsString()
		return quoteString(s)
	case value.KindBool:
		bv, _ := v.AsBool()
		return strconv.FormatBool(bv)
	case value.KindInt:
		iv, _ := v.AsInt()
		return strconv.FormatInt(iv, 10)
	case value.KindFloat:
		fv, _ := v.AsFloat()
		return strconv.FormatFloat(fv, 'g', -1, 64)
	case value.KindList, value.KindMap:
		return v.String() // JSON encoding
	default:
		return ""
	}
}

func quoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringListKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
