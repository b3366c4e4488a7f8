package resolver

import "actengine/services/value"

// funcFunc implements one top-level function call (§4.2 "Built-in
// functions"), distinct from filters in that it takes its operand as the
// first argument rather than as a filter chain's left-hand value.
type funcFunc func(args []value.Value) value.Value

var functions = map[string]funcFunc{
	"len": func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Null
		}
		return filterLength(args[0], nil)
	},
	"max": func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind() == value.KindList {
			return filterMax(args[0], nil)
		}
		return filterMax(value.List(args...), nil)
	},
	"min": func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind() == value.KindList {
			return filterMin(args[0], nil)
		}
		return filterMin(value.List(args...), nil)
	},
	"sum": func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind() == value.KindList {
			return filterSum(args[0], nil)
		}
		return filterSum(value.List(args...), nil)
	},
	"abs": func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Null
		}
		return filterAbs(args[0], nil)
	},
	"round": func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Null
		}
		return filterRound(args[0], args[1:])
	},
	"range": funcRange,
	"enumerate": funcEnumerate,
}

func funcRange(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.List()
	}
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		stop, _ = args[0].AsInt()
	case 2:
		start, _ = args[0].AsInt()
		stop, _ = args[1].AsInt()
	default:
		start, _ = args[0].AsInt()
		stop, _ = args[1].AsInt()
		if s, ok := args[2].AsInt(); ok && s != 0 {
			step = s
		}
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.Int(i))
		}
	} else if step < 0 {
		for i := start; i > stop; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.List(out...)
}

func funcEnumerate(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.List()
	}
	items, ok := args[0].AsList()
	if !ok {
		return value.List()
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		pair := value.NewMap()
		pair.Set("index", value.Int(int64(i)))
		pair.Set("value", it)
		out[i] = pair
	}
	return value.List(out...)
}
