package execnodes

import (
	"testing"

	"actengine/services/registry"
)

func TestRegister_WiresEveryBuiltinType(t *testing.T) {
	t.Parallel()
	reg := registry.New()
	Register(reg)

	want := []string{
		"noop", "log_message", "set", "if", "switch", "aci",
		"weather", "email", "sms", "flood", "http_request", "llm", "neon",
	}
	for _, typ := range want {
		if !reg.Has(typ) {
			t.Errorf("registry missing type %q after Register()", typ)
		}
	}
}
