package fingerprint

import (
	"strings"
	"testing"

	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
)

const baseManifest = `
package: demo
domain:
  name: CoreKind
  identities: [attn_q, attn_k, ffn_gate]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: QProj
        labels: [trainable, cached]
      - identity: attn_k
        type: KProj
      - identity: ffn_gate
        type: Gate
    ops:
      - name: reset_all
      - name: boost
        args:
          - {name: factor, type: int}
        filter:
          labels: [trainable]
`

func modelFrom(t *testing.T, yaml string) *model.Model {
	t.Helper()
	m, derr := manifest.Parse([]byte(yaml), "weld.yaml")
	if derr != nil {
		t.Fatalf("parse failed: %v", derr)
	}
	if errs := manifest.Validate(m); len(errs) != 0 {
		t.Fatalf("manifest should validate, got: %v", errs[0])
	}
	mod, errs := model.Build(m, nil)
	if len(errs) != 0 {
		t.Fatalf("build reported: %v", errs[0])
	}
	return mod
}

func TestCompute_Deterministic(t *testing.T) {
	first, err := Compute(modelFrom(t, baseManifest))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := Compute(modelFrom(t, baseManifest))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if first != second {
		t.Errorf("same layout hashed differently: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(first))
	}
	if first != strings.ToLower(first) {
		t.Errorf("fingerprint not lowercase hex: %s", first)
	}
}

func TestCompute_SensitiveToLayout(t *testing.T) {
	base, err := Compute(modelFrom(t, baseManifest))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{"element type changed", func(s string) string {
			return strings.Replace(s, "type: KProj", "type: KProj2", 1)
		}},
		{"domain order swapped", func(s string) string {
			return strings.Replace(s, "[attn_q, attn_k, ffn_gate]", "[attn_k, attn_q, ffn_gate]", 1)
		}},
		{"label dropped", func(s string) string {
			return strings.Replace(s, "labels: [trainable, cached]", "labels: [trainable]", 1)
		}},
		{"selection narrowed", func(s string) string {
			return strings.Replace(s, "- name: reset_all", "- name: reset_all\n        filter:\n          exclude: [ffn_gate]", 1)
		}},
		{"op renamed", func(s string) string {
			return strings.Replace(s, "name: boost", "name: boost_more", 1)
		}},
		{"arg type changed", func(s string) string {
			return strings.Replace(s, "type: int", "type: int64", 1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := tt.mutate(baseManifest)
			if mutated == baseManifest {
				t.Fatal("mutation did not apply")
			}
			got, err := Compute(modelFrom(t, mutated))
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if got == base {
				t.Error("layout change did not change the fingerprint")
			}
		})
	}
}

func TestExtractStamp(t *testing.T) {
	src := []byte(`// Code generated by weld. DO NOT EDIT.
//
// weld:fingerprint 9f2a77c1
package demo
`)
	stamp, ok := ExtractStamp(src)
	if !ok || stamp != "9f2a77c1" {
		t.Fatalf("stamp = %q, ok = %v", stamp, ok)
	}

	if _, ok := ExtractStamp([]byte("package demo\n")); ok {
		t.Error("found a stamp in unstamped source")
	}
}
