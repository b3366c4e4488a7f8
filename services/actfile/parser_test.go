package actfile

import (
	"os"
	"path/filepath"
	"testing"

	"actengine/services/value"
)

func TestParse_CompleteFile(t *testing.T) {
	src := `
[workflow]
name = "demo"
start_node = Start

[parameters]
base_url = "https://api.example.com"
max = 10

[node:Start]
type = py
code = """
def run():
    return {"items": [1,2,3]}
"""

[node:Process]
type = log_message
message = count={{Start.result.items|length}}
level = info

[edges]
Start = Process
`
	wf, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if wf.Name != "demo" {
		t.Errorf("Name = %q, want demo", wf.Name)
	}
	if wf.StartNode != "Start" {
		t.Errorf("StartNode = %q, want Start", wf.StartNode)
	}
	if len(wf.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(wf.Nodes))
	}
	code, ok := wf.Nodes["Start"].Params["code"].AsString()
	if !ok {
		t.Fatalf("Start.code is not a string")
	}
	wantCode := "def run():\n    return {\"items\": [1,2,3]}"
	if code != wantCode {
		t.Errorf("code = %q, want %q", code, wantCode)
	}
	if got := wf.Edges["Start"]; len(got) != 1 || got[0] != "Process" {
		t.Errorf("Edges[Start] = %v, want [Process]", got)
	}
}

func TestParse_ScalarCoercion(t *testing.T) {
	src := `
[workflow]
start_node = A

[node:A]
type = noop
flag = true
count = 42
ratio = 3.14
name = "hello"
tpl = {{some.thing}}
env_tpl = ${SOME_VAR}
list_val = [1, 2, 3]
map_val = {"a": 1}
plain = bareword
`
	os.Setenv("SOME_VAR", "")
	wf, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	p := wf.Nodes["A"].Params

	if b, ok := p["flag"].AsBool(); !ok || !b {
		t.Errorf("flag = %v, want true", p["flag"])
	}
	if i, ok := p["count"].AsInt(); !ok || i != 42 {
		t.Errorf("count = %v, want 42", p["count"])
	}
	if f, ok := p["ratio"].AsFloat(); !ok || f != 3.14 {
		t.Errorf("ratio = %v, want 3.14", p["ratio"])
	}
	if s, ok := p["name"].AsString(); !ok || s != "hello" {
		t.Errorf("name = %v, want hello", p["name"])
	}
	if p["tpl"].Kind() != value.KindPlaceholder {
		t.Errorf("tpl kind = %v, want Placeholder", p["tpl"].Kind())
	}
	if p["env_tpl"].Kind() != value.KindPlaceholder {
		t.Errorf("env_tpl kind = %v, want Placeholder", p["env_tpl"].Kind())
	}
	if p["list_val"].Kind() != value.KindList {
		t.Errorf("list_val kind = %v, want List", p["list_val"].Kind())
	}
	if p["map_val"].Kind() != value.KindMap {
		t.Errorf("map_val kind = %v, want Map", p["map_val"].Kind())
	}
	if s, ok := p["plain"].AsString(); !ok || s != "bareword" {
		t.Errorf("plain = %v, want bareword", p["plain"])
	}
}

func TestParse_MissingStartNode(t *testing.T) {
	src := `
[workflow]
name = "x"

[node:A]
type = noop
`
	if _, err := ParseString(src, ""); err == nil {
		t.Fatal("expected ParseError for missing start_node")
	}
}

func TestParse_StartNodeNotDefined(t *testing.T) {
	src := `
[workflow]
start_node = Ghost

[node:A]
type = noop
`
	if _, err := ParseString(src, ""); err == nil {
		t.Fatal("expected ParseError for undefined start_node")
	}
}

func TestParse_DanglingEdge(t *testing.T) {
	src := `
[workflow]
start_node = A

[node:A]
type = noop

[edges]
A = Ghost
`
	if _, err := ParseString(src, ""); err == nil {
		t.Fatal("expected ParseError for dangling edge target")
	}
}

func TestParse_NodeMissingType(t *testing.T) {
	src := `
[workflow]
start_node = A

[node:A]
label = "no type here"
`
	if _, err := ParseString(src, ""); err == nil {
		t.Fatal("expected ParseError for node missing type")
	}
}

func TestParse_RepeatedEdgeSourceAppends(t *testing.T) {
	src := `
[workflow]
start_node = A

[node:A]
type = noop
[node:B]
type = noop
[node:C]
type = noop

[edges]
A = B
A = C
`
	wf, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	got := wf.Edges["A"]
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Errorf("Edges[A] = %v, want [B C]", got)
	}
}

func TestParse_PythonPathLoadsCodeFile(t *testing.T) {
	dir := t.TempDir()
	codePath := filepath.Join(dir, "script.py")
	if err := os.WriteFile(codePath, []byte("print('hi')"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := `
[workflow]
start_node = A

[node:A]
type = python
path = script.py
`
	wf, err := ParseString(src, dir)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	code, ok := wf.Nodes["A"].Params["code"].AsString()
	if !ok || code != "print('hi')" {
		t.Errorf("code = %q, %v, want print('hi')", code, ok)
	}
}

func TestParse_PythonPathMissingFileFails(t *testing.T) {
	src := `
[workflow]
start_node = A

[node:A]
type = python
path = does_not_exist.py
`
	if _, err := ParseString(src, t.TempDir()); err == nil {
		t.Fatal("expected ParseError for missing code file")
	}
}

func TestParse_StaticParameterSubstitution(t *testing.T) {
	src := `
[workflow]
start_node = A

[parameters]
greeting = "hello"

[node:A]
type = noop
message = "{{.Parameter.greeting}} world"
`
	wf, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	s, _ := wf.Nodes["A"].Params["message"].AsString()
	if s != "hello world" {
		t.Errorf("message = %q, want %q", s, "hello world")
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	src := `
[workflow]
name = "demo"
start_node = A

[parameters]
max = 10

[node:A]
type = noop
label = "first"
[node:B]
type = noop

[edges]
A = B
`
	wf, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	out, err := Serialize(wf)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	wf2, err := ParseString(out, "")
	if err != nil {
		t.Fatalf("re-parse of serialized output failed: %v\n---\n%s", err, out)
	}
	if wf2.Name != wf.Name || wf2.StartNode != wf.StartNode {
		t.Errorf("round-trip mismatch: name/start_node changed")
	}
	if len(wf2.Nodes) != len(wf.Nodes) {
		t.Errorf("round-trip mismatch: node count %d != %d", len(wf2.Nodes), len(wf.Nodes))
	}
	if len(wf2.Edges["A"]) != 1 || wf2.Edges["A"][0] != "B" {
		t.Errorf("round-trip mismatch: edges = %v", wf2.Edges)
	}
	if maxV, ok := wf2.Parameters["max"].AsInt(); !ok || maxV != 10 {
		t.Errorf("round-trip mismatch: parameters[max] = %v", wf2.Parameters["max"])
	}
}
