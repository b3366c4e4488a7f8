package execnodes

import (
	"testing"

	"actengine/services/registry"
	"actengine/services/value"
)

func TestNoopNode_EchoesParams(t *testing.T) {
	t.Parallel()
	exec := newNoopNode(registry.Deps{})
	params := value.NewMap()
	params.Set("foo", value.String("bar"))

	res := exec.Execute(registry.ExecutorInput{Params: params})
	if res.Status != registry.StatusSuccess {
		t.Fatalf("Status = %v, want success", res.Status)
	}
	got, ok := res.Result.Get("foo")
	if !ok {
		t.Fatal("result missing key foo")
	}
	if s, _ := got.AsString(); s != "bar" {
		t.Errorf("foo = %q, want bar", s)
	}
}

func TestLogMessageNode_ReturnsMessage(t *testing.T) {
	t.Parallel()
	exec := newLogMessageNode(registry.Deps{})
	params := value.NewMap()
	params.Set("message", value.String("hello"))

	res := exec.Execute(registry.ExecutorInput{Params: params, NodeName: "Log1"})
	if res.Status != registry.StatusSuccess {
		t.Fatalf("Status = %v, want success", res.Status)
	}
	msgV, _ := res.Result.Get("message")
	if s, _ := msgV.AsString(); s != "hello" {
		t.Errorf("message = %q, want hello", s)
	}
}
