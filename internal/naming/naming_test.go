package naming

import "testing"

func TestExported(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"attn_q", "AttnQ"},
		{"attn_k", "AttnK"},
		{"ffn_gate", "FfnGate"},
		{"sample_tokens", "SampleTokens"},
		{"payload", "Payload"},
		{"alreadyCamel", "AlreadyCamel"},
		{"a", "A"},
		{"rms_norm_2", "RmsNorm2"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Exported(tt.in); got != tt.want {
				t.Errorf("Exported(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"attn_q", "attnQ"},
		{"payload", "payload"},
		{"type", "type_"}, // reserved word escape
		{"map", "map_"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Field(tt.in); got != tt.want {
				t.Errorf("Field(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"attn_q", "x", "payload2", "Ffn_Gate"}
	invalid := []string{"", "2fast", "attn-q", "attn q", "func", "type", "a.b", "_", "_private"}

	for _, s := range valid {
		if !IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = true, want false", s)
		}
	}
}

func TestTypeQualifiers(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"QProj", nil},
		{"io.Writer", []string{"io"}},
		{"map[string]io.Writer", []string{"io"}},
		{"[]tensor.Block", []string{"tensor"}},
		{"map[tensor.Key]*cbuf.Ring", []string{"tensor", "cbuf"}},
		{"*QProj", nil},
		{"chan int", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			got := TypeQualifiers(tt.expr)
			if len(got) != len(tt.want) {
				t.Fatalf("TypeQualifiers(%q) = %v, want %v", tt.expr, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("TypeQualifiers(%q) = %v, want %v", tt.expr, got, tt.want)
				}
			}
		})
	}
}

func TestImportAlias(t *testing.T) {
	tests := []struct {
		pkgPath  string
		expected string
	}{
		{"io", "io"},
		{"github.com/caarlos0/env/v11", "env"},
		{"github.com/Shopify/go-lua", "golua"},
		{"gopkg.in/yaml.v3", "yamlv3"},
		{"github.com/foo/go", "pkgGo"},
		{"github.com/foo/bar-baz", "barbaz"},
		{"", "pkg"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.pkgPath, func(t *testing.T) {
			t.Parallel()
			if got := ImportAlias(tt.pkgPath); got != tt.expected {
				t.Errorf("ImportAlias(%q) = %q, want %q", tt.pkgPath, got, tt.expected)
			}
		})
	}
}
