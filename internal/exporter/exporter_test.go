package exporter

import (
	"strings"
	"testing"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
)

const exportManifest = `
package: demo
domain:
  name: CoreKind
  identities: [attn_q, attn_k]
composites:
  - name: Stack
    elements:
      - identity: attn_q
        type: QProj
        labels: [trainable]
      - identity: attn_k
        type: KProj
    ops:
      - name: boost
        args:
          - {name: factor, type: int}
        filter:
          labels: [trainable]
`

func exportModel(t *testing.T) *model.Model {
	t.Helper()
	m, derr := manifest.Parse([]byte(exportManifest), "weld.yaml")
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
	mod.Fingerprint = "9f2a77c1"
	return mod
}

func TestNew_CompilesSchema(t *testing.T) {
	exp, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"weld.Model", "weld.Domain", "weld.Composite", "weld.Op"} {
		if exp.Schema().FindMessage(name) == nil {
			t.Errorf("schema missing message %s", name)
		}
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	exp, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := exp.Marshal(exportModel(t))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty export")
	}

	decoded := dynamic.NewMessage(exp.Schema().FindMessage("weld.Model"))
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := decoded.GetFieldByName("package"); got != "demo" {
		t.Errorf("package = %v", got)
	}
	if got := decoded.GetFieldByName("fingerprint"); got != "9f2a77c1" {
		t.Errorf("fingerprint = %v", got)
	}
	composites, ok := decoded.GetFieldByName("composites").([]interface{})
	if !ok || len(composites) != 1 {
		t.Fatalf("composites = %v", decoded.GetFieldByName("composites"))
	}
}

func TestMarshalJSON(t *testing.T) {
	exp, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := exp.MarshalJSON(exportModel(t))
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	for _, want := range []string{"demo", "attn_q", "Stack", "Boost"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %q:\n%s", want, data)
		}
	}
}

func TestDescriptorSet(t *testing.T) {
	exp, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := exp.DescriptorSet()
	if err != nil {
		t.Fatalf("DescriptorSet: %v", err)
	}

	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(set.File) != 1 || set.File[0].GetName() != "weld/model.proto" {
		t.Fatalf("descriptor set = %v", set.File)
	}
}
