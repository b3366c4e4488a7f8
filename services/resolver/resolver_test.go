package resolver

import (
	"strings"
	"testing"

	"actengine/services/registry"
	"actengine/services/value"
)

func newTestContext() *Context {
	ctx := NewContext(value.String("hello-input"), false)
	items := value.List(value.Int(1), value.Int(2), value.Int(3))
	payload := value.NewMap()
	payload.Set("items", items)
	payload.Set("city", value.String("Metropolis"))

	ctx.Results["Start"] = registry.NodeResult{
		Status: registry.StatusSuccess,
		Result: payload,
	}
	ctx.Results["Flag"] = registry.NodeResult{
		Status: registry.StatusSuccess,
		Result: value.Bool(true),
	}
	ctx.ResolvedKeys["token"] = value.String("abc123")
	return ctx
}

func TestResolve_SoleTokenReturnsNativeValue(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{Start.result.city}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, ok := v.AsString(); !ok || s != "Metropolis" {
		t.Errorf("v = %v, want Metropolis", v)
	}
}

func TestResolve_MixedTextStringifiesComposite(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("items={{Start.result.items}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	s, _ := v.AsString()
	if !strings.HasPrefix(s, "items=[") {
		t.Errorf("v = %q, want JSON-encoded list after items=", s)
	}
}

func TestResolve_FilterChain(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{Start.result.city|upper}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "METROPOLIS" {
		t.Errorf("v = %v, want METROPOLIS", v)
	}
}

func TestResolve_FilterWithArgs(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{Start.result.city|truncate(4)}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "Metr" {
		t.Errorf("v = %v, want Metr", v)
	}
}

func TestResolve_FunctionCall(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{sum(Start.result.items)}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if i, ok := v.AsInt(); !ok || i != 6 {
		t.Errorf("v = %v, want 6", v)
	}
}

func TestResolve_Conditional(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve(`{{"yes" if Flag.result else "no"}}`, ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "yes" {
		t.Errorf("v = %v, want yes", v)
	}
}

func TestResolve_FallbackShorthand(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve(`{{Missing.result.thing | "fallback"}}`, ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "fallback" {
		t.Errorf("v = %v, want fallback", v)
	}
}

func TestResolve_KeyPrefixLookup(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{key:token}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "abc123" {
		t.Errorf("v = %v, want abc123", v)
	}
}

func TestResolve_NodeFallbackStrategy_PrependsResultPrefix(t *testing.T) {
	ctx := NewContext(value.Null, false)
	payload := value.NewMap()
	payload.Set("city", value.String("Gotham"))
	ctx.Results["Start"] = registry.NodeResult{Status: registry.StatusSuccess, Result: payload}

	// "Start.result.city" works directly; "Start.city" should fall back
	// by prepending "result".
	v, err := Resolve("{{Start.city}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "Gotham" {
		t.Errorf("v = %v, want Gotham (via result-prefix fallback)", v)
	}
}

func TestResolve_IfBlock(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{#if Flag.result}}on{{else}}off{{/if}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "on" {
		t.Errorf("v = %q, want on", s)
	}
}

func TestResolve_EachBlock(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{#each Start.result.items}}[{{this}}]{{/each}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "[1][2][3]" {
		t.Errorf("v = %q, want [1][2][3]", s)
	}
}

func TestResolve_EachBlock_IndexFirstLast(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{#each Start.result.items}}{{index}}:{{first}}:{{last}}|{{/each}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "0:true:false|1:false:false|2:false:true|"
	if s, _ := v.AsString(); s != want {
		t.Errorf("v = %q, want %q", s, want)
	}
}

func TestResolve_UnresolvedDefaultLeavesTokenAndWarns(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("{{Nonexistent.result.x}}", ctx)
	if err != nil {
		t.Fatalf("Resolve() unexpected error = %v", err)
	}
	s, _ := v.AsString()
	if s != "{{Nonexistent.result.x}}" {
		t.Errorf("v = %q, want original token left in place", s)
	}
}

func TestResolve_FailOnUnresolvedReturnsError(t *testing.T) {
	ctx := NewContext(value.Null, true)
	_, err := Resolve("{{Nonexistent.result.x}}", ctx)
	if err == nil {
		t.Fatal("expected ResolutionError")
	}
	if _, ok := err.(*ResolutionError); !ok {
		t.Errorf("err type = %T, want *ResolutionError", err)
	}
}

func TestResolve_CacheHitOnRepeatedExpression(t *testing.T) {
	ctx := newTestContext()
	if _, err := Resolve("{{Start.result.city}}", ctx); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := Resolve("{{Start.result.city}}", ctx); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	stats := ctx.CacheStats()
	if stats.Hits < 1 {
		t.Errorf("CacheStats() = %+v, want at least 1 hit", stats)
	}
}

func TestResolve_EnvToken(t *testing.T) {
	t.Setenv("RESOLVER_TEST_VAR", "envvalue")
	ctx := newTestContext()
	v, err := Resolve("${RESOLVER_TEST_VAR}", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "envvalue" {
		t.Errorf("v = %v, want envvalue", v)
	}
}

func TestResolve_PlainTextNoTokens(t *testing.T) {
	ctx := newTestContext()
	v, err := Resolve("just plain text", ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, _ := v.AsString(); s != "just plain text" {
		t.Errorf("v = %v, want unchanged text", v)
	}
}
