package predicate

import (
	"testing"
)

func TestEval(t *testing.T) {
	env := Env{
		Ordinal:  4,
		Position: 2,
		Identity: "ffn_gate",
		TypeName: "GateProj",
		Labels:   []string{"trainable", "quantized"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"even ordinal", "ordinal % 2 == 0", true},
		{"odd ordinal", "ordinal % 2 == 1", false},
		{"position bound", "position < 3", true},
		{"identity match", `identity == "ffn_gate"`, true},
		{"identity mismatch", `identity == "attn_q"`, false},
		{"typename prefix", `string.sub(typename, 1, 4) == "Gate"`, true},
		{"label present", "labels.trainable", true},
		{"label absent is nil", "labels.frozen == nil", true},
		{"conjunction", `ordinal % 2 == 0 and labels.quantized`, true},
		{"always false", "false", false},
		{"number is truthy", "position", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Eval(tt.expr, env)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_ErrorsCarryLuaMessage(t *testing.T) {
	_, err := Eval("ordinal %% 2", Env{})
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if err.Error() == "" {
		t.Error("error message is empty")
	}
}

func TestEval_UndefinedGlobalIsNil(t *testing.T) {
	// Lua resolves unknown globals to nil instead of failing, which
	// keeps filters permissive: a typoed name selects nothing rather
	// than erroring only on some elements.
	got, err := Eval("no_such_global", Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("nil global must not select")
	}
}

func TestEval_RuntimeError(t *testing.T) {
	_, err := Eval(`string.rep("x", "not a number")`, Env{})
	if err == nil {
		t.Fatal("expected a runtime error")
	}
}
