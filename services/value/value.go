// Package value implements the tagged variant used throughout the engine
// to represent parsed Actfile scalars/collections and resolved placeholder
// results without resorting to reflection on arbitrary Go types.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags which case of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the Actfile/resolver data model:
// Null, Bool, Int, Float, String, List, Map, Placeholder(raw text).
type Value struct {
	kind Kind

	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	// m preserves insertion order via keys alongside a lookup map.
	mKeys []string
	m     map[string]Value
}

// Null is the shared Null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value  { return Value{kind: KindBool, b: b} }
func Int(i int64) Value  { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// Placeholder wraps raw, unexpanded `{{...}}`/`${...}` source text.
func Placeholder(raw string) Value { return Value{kind: KindPlaceholder, s: raw} }

// List builds an ordered list Value.
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

// NewMap builds an empty, insertion-order-preserving Map value.
func NewMap() Value {
	return Value{kind: KindMap, m: make(map[string]Value)}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Set inserts or updates a key in a Map value, preserving first-insertion
// order. If v is not a Map, it is first replaced by an empty Map.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindMap {
		*v = NewMap()
	}
	if _, exists := v.m[key]; !exists {
		v.mKeys = append(v.mKeys, key)
	}
	v.m[key] = val
}

// Get looks up a key in a Map value. Returns Null, false for non-Maps or
// missing keys.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null, false
	}
	val, ok := v.m[key]
	return val, ok
}

// Keys returns the Map's keys in insertion order. Empty for non-Maps.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	return append([]string(nil), v.mKeys...)
}

// Index returns the element at position i of a List value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Null, false
	}
	return v.list[i], true
}

func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.mKeys)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.b, true
	}
	return false, false
}

func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) {
	if v.kind == KindString || v.kind == KindPlaceholder {
		return v.s, true
	}
	return "", false
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind == KindList {
		return v.list, true
	}
	return nil, false
}

// Raw returns the placeholder's raw source text and whether v is one.
func (v Value) Raw() (string, bool) {
	if v.kind == KindPlaceholder {
		return v.s, true
	}
	return "", false
}

// Native converts a Value into a plain Go value (map[string]any,
// []any, string, int64, float64, bool, nil) suitable for json.Marshal
// or for handing to an executor.
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString, KindPlaceholder:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.mKeys))
		for _, k := range v.mKeys {
			out[k] = v.m[k].Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative converts a plain Go value (as produced by encoding/json
// unmarshaling into `any`, or returned by an executor) into a Value.
func FromNative(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromNative(e)
		}
		return List(items...)
	case map[string]any:
		mv := NewMap()
		// Deterministic order for maps with no inherent order: sorted keys.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			mv.Set(k, FromNative(t[k]))
		}
		return mv
	case []Value:
		return List(t...)
	case Value:
		return t
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// String renders the Value as its string form: direct stringification
// for scalars, JSON encoding for composite (List/Map) values. Used by
// the resolver when a placeholder is substituted inside surrounding text.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString, KindPlaceholder:
		return v.s
	case KindList, KindMap:
		b, err := json.Marshal(v.Native())
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Truthy reports whether the value counts as "true" for condition
// evaluation: non-zero numbers, non-empty strings/lists/maps, true bool.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString, KindPlaceholder:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.mKeys) > 0
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler by delegating to Native().
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON implements json.Unmarshaler, decoding numbers with
// json.Number so integers and floats stay distinguishable.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromNative(raw)
	return nil
}

// Equal reports deep equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Allow numeric cross-kind comparisons (Int vs Float).
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if aok && bok {
			return af == bf
		}
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString, KindPlaceholder:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mKeys) != len(b.mKeys) {
			return false
		}
		for _, k := range a.mKeys {
			bv, ok := b.Get(k)
			if !ok {
				return false
			}
			av, _ := a.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
