package inspect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/manifest"
)

// writeTarget lays out a small target module the scanner can load.
func writeTarget(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module scratch\n\ngo 1.25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "parts.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const targetSource = `package demo

import "io"

type CoreKind uint64

const (
	CoreKindAttnQ   CoreKind = 0
	CoreKindFfnGate CoreKind = 4
)

type QProj struct{ n int }

func (q *QProj) Boost(n int)            { q.n += n }
func (q *QProj) Save(w io.Writer) error { return nil }

type GateProj struct{}

func (g *GateProj) Boost(n int) {}
`

const scanManifest = `
package: demo
imports: [io]
domain:
  name: CoreKind
  external: true
  identities: [attn_q, ffn_gate]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: QProj
      - identity: ffn_gate
        type: GateProj
`

func TestScan_ResolvesTypesAndExternalDomain(t *testing.T) {
	dir := writeTarget(t, targetSource)
	m, derr := manifest.Parse([]byte(scanManifest), filepath.Join(dir, "weld.yaml"))
	if derr != nil {
		t.Fatalf("parse: %v", derr)
	}

	s := &Scanner{Dir: dir}
	res, errs := s.Scan(m)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs[0])
	}
	if res.PackageName != "demo" {
		t.Errorf("package name = %q, want demo", res.PackageName)
	}

	if _, ok := res.ElementTypes["QProj"]; !ok {
		t.Error("QProj not resolved")
	}
	if _, ok := res.ElementTypes["GateProj"]; !ok {
		t.Error("GateProj not resolved")
	}

	if got := res.DomainOrdinals["ffn_gate"]; got != 4 {
		t.Errorf("ffn_gate ordinal = %d, want 4 (the scanned constant value)", got)
	}
	if got := res.DomainConstNames["attn_q"]; got != "CoreKindAttnQ" {
		t.Errorf("attn_q constant = %q, want CoreKindAttnQ", got)
	}
}

func TestCheckAction(t *testing.T) {
	dir := writeTarget(t, targetSource)
	m, derr := manifest.Parse([]byte(scanManifest), filepath.Join(dir, "weld.yaml"))
	if derr != nil {
		t.Fatalf("parse: %v", derr)
	}
	s := &Scanner{Dir: dir}
	res, errs := s.Scan(m)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs[0])
	}

	tests := []struct {
		name         string
		typeName     string
		method       string
		argCount     int
		returnsError bool
		wantOK       bool
	}{
		{"void action", "QProj", "Boost", 1, false, true},
		{"error action", "QProj", "Save", 1, true, true},
		{"missing method", "GateProj", "Save", 1, true, false},
		{"wrong arg count", "QProj", "Boost", 3, false, false},
		{"void op on error method", "QProj", "Save", 1, false, false},
		{"unscanned type is trusted", "tensor.Block", "Anything", 0, false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mismatch := res.CheckAction(tt.typeName, tt.method, tt.argCount, tt.returnsError)
			if ok := mismatch == ""; ok != tt.wantOK {
				t.Errorf("CheckAction(%s.%s) = %q, want ok=%v", tt.typeName, tt.method, mismatch, tt.wantOK)
			}
		})
	}
}

func TestScan_MissingElementType(t *testing.T) {
	dir := writeTarget(t, targetSource)
	yaml := `
package: demo
domain:
  name: CoreKind
  external: true
  identities: [attn_q]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: Ghost
`
	m, derr := manifest.Parse([]byte(yaml), filepath.Join(dir, "weld.yaml"))
	if derr != nil {
		t.Fatalf("parse: %v", derr)
	}
	s := &Scanner{Dir: dir}
	_, errs := s.Scan(m)

	found := false
	for _, e := range errs {
		if e.Code == diagnostics.ErrW202 {
			found = true
			if want := "Ghost"; !strings.Contains(e.Message, want) {
				t.Errorf("message %q lacks %q", e.Message, want)
			}
		}
	}
	if !found {
		t.Fatalf("expected W202, got %v", errs)
	}
}

func TestScan_PackageNameMismatch(t *testing.T) {
	dir := writeTarget(t, targetSource)
	yaml := `
package: other
domain:
  name: CoreKind
  external: true
  identities: [attn_q]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: QProj
`
	m, derr := manifest.Parse([]byte(yaml), filepath.Join(dir, "weld.yaml"))
	if derr != nil {
		t.Fatalf("parse: %v", derr)
	}
	s := &Scanner{Dir: dir}
	_, errs := s.Scan(m)

	found := false
	for _, e := range errs {
		if e.Code == diagnostics.ErrW205 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected W205, got %v", errs)
	}
}
