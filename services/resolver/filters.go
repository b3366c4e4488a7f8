package resolver

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"actengine/services/value"
)

// filterFunc applies one named filter (§4.2 "Built-in filters") to an
// already-resolved Value. Implementations never error: an unsuitable
// type yields Null or the input value unchanged.
type filterFunc func(v value.Value, args []value.Value) value.Value

var filters = map[string]filterFunc{
	"length":     filterLength,
	"len":        filterLength,
	"upper":      filterUpper,
	"lower":      filterLower,
	"capitalize": filterCapitalize,
	"strip":      filterStrip,
	"default":    filterDefault,
	"truncate":   filterTruncate,
	"join":       filterJoin,
	"first":      filterFirst,
	"last":       filterLast,
	"sort":       filterSort,
	"reverse":    filterReverse,
	"unique":     filterUnique,
	"sum":        filterSum,
	"max":        filterMax,
	"min":        filterMin,
	"round":      filterRound,
	"abs":        filterAbs,
	"int":        filterInt,
	"float":      filterFloat,
	"str":        filterStr,
	"bool":       filterBool,
	"json":       filterJSON,
}

func filterLength(v value.Value, _ []value.Value) value.Value {
	switch v.Kind() {
	case value.KindList, value.KindMap, value.KindString:
		return value.Int(int64(v.Len()))
	default:
		return value.Null
	}
}

func filterUpper(v value.Value, _ []value.Value) value.Value {
	s, ok := v.AsString()
	if !ok {
		return v
	}
	return value.String(strings.ToUpper(s))
}

func filterLower(v value.Value, _ []value.Value) value.Value {
	s, ok := v.AsString()
	if !ok {
		return v
	}
	return value.String(strings.ToLower(s))
}

func filterCapitalize(v value.Value, _ []value.Value) value.Value {
	s, ok := v.AsString()
	if !ok || s == "" {
		return v
	}
	return value.String(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

func filterStrip(v value.Value, _ []value.Value) value.Value {
	s, ok := v.AsString()
	if !ok {
		return v
	}
	return value.String(strings.TrimSpace(s))
}

func filterDefault(v value.Value, args []value.Value) value.Value {
	if !v.IsNull() {
		return v
	}
	if len(args) > 0 {
		return args[0]
	}
	return value.Null
}

func filterTruncate(v value.Value, args []value.Value) value.Value {
	s, ok := v.AsString()
	if !ok || len(args) == 0 {
		return v
	}
	n, ok := args[0].AsInt()
	if !ok || n < 0 || int(n) >= len(s) {
		return v
	}
	return value.String(s[:n])
}

func filterJoin(v value.Value, args []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok {
		return v
	}
	sep := ","
	if len(args) > 0 {
		if s, ok := args[0].AsString(); ok {
			sep = s
		}
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return value.String(strings.Join(parts, sep))
}

func filterFirst(v value.Value, _ []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok || len(items) == 0 {
		return value.Null
	}
	return items[0]
}

func filterLast(v value.Value, _ []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok || len(items) == 0 {
		return value.Null
	}
	return items[len(items)-1]
}

func filterSort(v value.Value, _ []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok {
		return v
	}
	out := append([]value.Value(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessValue(out[i], out[j])
	})
	return value.List(out...)
}

func lessValue(a, b value.Value) bool {
	if af, aok := a.AsFloat(); aok {
		if bf, bok := b.AsFloat(); bok {
			return af < bf
		}
	}
	as, _ := a.AsString()
	bs, _ := b.AsString()
	return as < bs
}

func filterReverse(v value.Value, _ []value.Value) value.Value {
	switch v.Kind() {
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return value.List(out...)
	case value.KindString:
		s, _ := v.AsString()
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.String(string(r))
	default:
		return v
	}
}

func filterUnique(v value.Value, _ []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok {
		return v
	}
	var out []value.Value
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if value.Equal(seen, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.List(out...)
}

func filterSum(v value.Value, _ []value.Value) value.Value {
	items, ok := v.AsList()
	if !ok {
		return value.Null
	}
	var total float64
	allInt := true
	for _, it := range items {
		f, ok := it.AsFloat()
		if !ok {
			return value.Null
		}
		if it.Kind() != value.KindInt {
			allInt = false
		}
		total += f
	}
	if allInt {
		return value.Int(int64(total))
	}
	return value.Float(total)
}

func filterMax(v value.Value, _ []value.Value) value.Value {
	return extremum(v, true)
}

func filterMin(v value.Value, _ []value.Value) value.Value {
	return extremum(v, false)
}

func extremum(v value.Value, wantMax bool) value.Value {
	items, ok := v.AsList()
	if !ok || len(items) == 0 {
		return value.Null
	}
	best := items[0]
	for _, it := range items[1:] {
		if wantMax == lessValue(best, it) {
			best = it
		}
	}
	return best
}

func filterRound(v value.Value, args []value.Value) value.Value {
	f, ok := v.AsFloat()
	if !ok {
		return v
	}
	n := int64(0)
	if len(args) > 0 {
		if i, ok := args[0].AsInt(); ok {
			n = i
		}
	}
	scale := math.Pow(10, float64(n))
	rounded := math.Round(f*scale) / scale
	if n <= 0 {
		return value.Int(int64(rounded))
	}
	return value.Float(rounded)
}

func filterAbs(v value.Value, _ []value.Value) value.Value {
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.AsInt()
		if i < 0 {
			i = -i
		}
		return value.Int(i)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return value.Float(math.Abs(f))
	default:
		return v
	}
}

func filterInt(v value.Value, _ []value.Value) value.Value {
	switch v.Kind() {
	case value.KindInt:
		return v
	case value.KindFloat:
		f, _ := v.AsFloat()
		return value.Int(int64(f))
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return value.Int(1)
		}
		return value.Int(0)
	case value.KindString:
		s, _ := v.AsString()
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return value.Int(i)
		}
		return value.Null
	default:
		return value.Null
	}
}

func filterFloat(v value.Value, _ []value.Value) value.Value {
	switch v.Kind() {
	case value.KindFloat:
		return v
	case value.KindInt:
		f, _ := v.AsFloat()
		return value.Float(f)
	case value.KindString:
		s, _ := v.AsString()
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return value.Float(f)
		}
		return value.Null
	default:
		return value.Null
	}
}

func filterStr(v value.Value, _ []value.Value) value.Value {
	return value.String(v.String())
}

func filterBool(v value.Value, _ []value.Value) value.Value {
	return value.Bool(v.Truthy())
}

func filterJSON(v value.Value, _ []value.Value) value.Value {
	b, err := json.Marshal(v.Native())
	if err != nil {
		return value.Null
	}
	return value.String(string(b))
}
