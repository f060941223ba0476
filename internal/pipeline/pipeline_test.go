package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weldkit/weld/internal/diagnostics"
)

const pipelineManifest = `
package: demo
scan:
  disabled: true
domain:
  name: CoreKind
  identities: [attn_q, attn_k]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: QProj
      - identity: attn_k
        type: KProj
    ops:
      - name: reset_all
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "weld.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestPipeline_GenerateFlow(t *testing.T) {
	path := writeManifest(t, pipelineManifest)

	ctx := Default().Run(NewContext(path))
	if ctx.Failed() {
		t.Fatalf("run failed: err=%v diags=%v", ctx.Err, ctx.Diagnostics.All())
	}
	if ctx.Manifest == nil || ctx.Model == nil {
		t.Fatal("stage products missing")
	}
	if ctx.Model.Fingerprint == "" {
		t.Error("plan stage must stamp a fingerprint")
	}
	if len(ctx.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(ctx.Files))
	}
	if ctx.Files[0].Filename != "demo_weld.go" {
		t.Errorf("filename = %q", ctx.Files[0].Filename)
	}
	if !strings.Contains(ctx.Files[0].Content, "type CoreKind uint64") {
		t.Errorf("generated content incomplete:\n%s", ctx.Files[0].Content)
	}
}

func TestPipeline_CollectsAcrossStages(t *testing.T) {
	// Bad output value (W004) and an identity outside the domain
	// (W103) come from different validation passes; one run reports
	// both, and emit stays gated.
	const broken = `
package: demo
output: demo_weld.txt
scan:
  disabled: true
domain:
  name: CoreKind
  identities: [attn_q]
composites:
  - name: Stack
    elements:
      - identity: ghost
        type: Ghost
`
	path := writeManifest(t, broken)

	ctx := Default().Run(NewContext(path))
	if !ctx.Failed() {
		t.Fatal("expected diagnostics")
	}
	codes := make(map[diagnostics.Code]bool)
	for _, e := range ctx.Diagnostics.All() {
		codes[e.Code] = true
	}
	if !codes[diagnostics.ErrW004] || !codes[diagnostics.ErrW103] {
		t.Errorf("want W004 and W103, got %v", codes)
	}
	if ctx.Files != nil {
		t.Error("emit must not run with pending diagnostics")
	}
	if ctx.Model == nil {
		t.Error("plan still runs so later stages can report")
	}
}

func TestPipeline_MissingManifest(t *testing.T) {
	ctx := Default().Run(NewContext(filepath.Join(t.TempDir(), "weld.yaml")))
	if !ctx.Failed() {
		t.Fatal("expected a diagnostic")
	}
	all := ctx.Diagnostics.All()
	if len(all) != 1 || all[0].Code != diagnostics.ErrW001 {
		t.Fatalf("diagnostics = %v", all)
	}
	if ctx.Manifest != nil || ctx.Model != nil || ctx.Files != nil {
		t.Error("stages must no-op without their inputs")
	}
}

func TestPipeline_InMemorySource(t *testing.T) {
	ctx := NewContext("weld.yaml")
	ctx.Source = []byte(pipelineManifest)

	out := Default().Run(ctx)
	if out.Failed() {
		t.Fatalf("run failed: err=%v diags=%v", out.Err, out.Diagnostics.All())
	}
	if len(out.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(out.Files))
	}
}

func TestPipeline_TraceOutput(t *testing.T) {
	path := writeManifest(t, pipelineManifest)

	var trace strings.Builder
	ctx := NewContext(path)
	ctx.Trace = &trace

	Default().Run(ctx)
	for _, stage := range []string{"load:", "parse:", "scan: disabled", "plan:", "emit:"} {
		if !strings.Contains(trace.String(), stage) {
			t.Errorf("trace missing %q:\n%s", stage, trace.String())
		}
	}
}
