package value

import "testing"

func TestString_ScalarStringification(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null, ""},
		{"bool", Bool(true), "true"},
		{"int", Int(42), "42"},
		{"float", Float(3.5), "3.5"},
		{"string", String("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString_CompositeIsJSON(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("b", String("x"))

	got := m.String()
	want := `{"a":1,"b":"x"}`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMap_PreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", Int(1))
	m.Set("a", Int(2))
	m.Set("m", Int(3))

	got := m.Keys()
	want := []string{"z", "a", "m"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("Keys()[%d] = %q, want %q (full: %v)", i, got[i], k, got)
		}
	}
}

func TestFromNative_RoundTrip(t *testing.T) {
	native := map[string]any{
		"items": []any{int64(1), int64(2), int64(3)},
		"name":  "demo",
	}
	v := FromNative(native)
	back := v.Native()

	backMap, ok := back.(map[string]any)
	if !ok {
		t.Fatalf("Native() did not return a map: %#v", back)
	}
	if backMap["name"] != "demo" {
		t.Errorf("name = %v, want demo", backMap["name"])
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"zero int", Int(0), false},
		{"nonzero int", Int(1), true},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"empty list", List(), false},
		{"nonempty list", List(Int(1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual_CrossNumericKind(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Errorf("Int(3) should equal Float(3.0)")
	}
	if Equal(Int(3), Float(3.1)) {
		t.Errorf("Int(3) should not equal Float(3.1)")
	}
}

func TestPlaceholder_SurvivesAsRaw(t *testing.T) {
	p := Placeholder("{{A.result.value}}")
	raw, ok := p.Raw()
	if !ok || raw != "{{A.result.value}}" {
		t.Errorf("Raw() = %q, %v, want original text, true", raw, ok)
	}
}
