package execnodes

import (
	"testing"

	"actengine/services/registry"
	"actengine/services/value"
)

func TestIfNode_Execute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		operator string
		v1, v2   value.Value
		want     bool
		wantErr  bool
	}{
		{name: "gt true", operator: "gt", v1: value.Int(5), v2: value.Int(3), want: true},
		{name: "gt false", operator: "gt", v1: value.Int(2), v2: value.Int(3), want: false},
		{name: "eq strings", operator: "eq", v1: value.String("a"), v2: value.String("a"), want: true},
		{name: "lte equal", operator: "lte", v1: value.Float(3), v2: value.Int(3), want: true},
		{name: "unsupported operator", operator: "frobnicate", v1: value.Int(1), v2: value.Int(1), wantErr: true},
	}

	exec := newIfNode(registry.Deps{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			params := value.NewMap()
			params.Set("operator", value.String(tt.operator))
			params.Set("value1", tt.v1)
			params.Set("value2", tt.v2)

			res := exec.Execute(registry.ExecutorInput{Params: params})
			if tt.wantErr {
				if !res.IsError() {
					t.Fatalf("expected error, got %+v", res)
				}
				return
			}
			if res.IsError() {
				t.Fatalf("unexpected error: %s", res.Message)
			}
			got, ok := res.Result.AsBool()
			if !ok || got != tt.want {
				t.Errorf("result = %v, want %v", res.Result, tt.want)
			}
		})
	}
}

func TestSwitchNode_SelectsCaseOrDefault(t *testing.T) {
	t.Parallel()
	exec := newSwitchNode(registry.Deps{})

	cases := value.NewMap()
	cases.Set("a", value.String("NodeA"))
	cases.Set("b", value.String("NodeB"))

	params := value.NewMap()
	params.Set("value", value.String("a"))
	params.Set("cases", cases)
	params.Set("default", value.String("NodeDefault"))

	res := exec.Execute(registry.ExecutorInput{Params: params})
	if res.IsError() {
		t.Fatalf("unexpected error: %s", res.Message)
	}
	selected, ok := res.Result.Get("selected_node")
	if !ok {
		t.Fatal("result missing selected_node")
	}
	if s, _ := selected.AsString(); s != "NodeA" {
		t.Errorf("selected_node = %q, want NodeA", s)
	}

	params2 := value.NewMap()
	params2.Set("value", value.String("z"))
	params2.Set("cases", cases)
	params2.Set("default", value.String("NodeDefault"))
	res2 := exec.Execute(registry.ExecutorInput{Params: params2})
	selected2, _ := res2.Result.Get("selected_node")
	if s, _ := selected2.AsString(); s != "NodeDefault" {
		t.Errorf("selected_node = %q, want NodeDefault", s)
	}
}

func TestSetNode_RequiresKeyAndValue(t *testing.T) {
	t.Parallel()
	exec := newSetNode(registry.Deps{})

	params := value.NewMap()
	res := exec.Execute(registry.ExecutorInput{Params: params})
	if !res.IsError() {
		t.Fatal("expected error for missing key/value")
	}

	params.Set("key", value.String("greeting"))
	params.Set("value", value.String("hi"))
	res2 := exec.Execute(registry.ExecutorInput{Params: params})
	if res2.IsError() {
		t.Fatalf("unexpected error: %s", res2.Message)
	}
	keyV, _ := res2.Result.Get("key")
	if s, _ := keyV.AsString(); s != "greeting" {
		t.Errorf("key = %q, want greeting", s)
	}
}
