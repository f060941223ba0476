package targets

import (
	"strings"
	"testing"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/emit"
	"github.com/weldkit/weld/internal/fingerprint"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
	"github.com/weldkit/weld/tests/fuzz/generators"
	"github.com/weldkit/weld/tests/fuzz/mutator"
)

// FuzzParseManifest feeds raw bytes to the parser. Arbitrary input may
// earn a diagnostic, never a panic, and accepted documents must survive
// validation.
func FuzzParseManifest(f *testing.F) {
	f.Add([]byte("package: demo\ndomain:\n  name: K\n  identities: [a]\n"))
	f.Add([]byte("package: demo\ncomposites:\n  - name: S\n"))
	f.Add([]byte("{}"))
	f.Add([]byte("---\n---\n"))
	f.Add([]byte("package: [broken\n"))
	f.Add([]byte("\xff\xfe"))
	f.Add([]byte("domain: 12\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		m, derr := manifest.Parse(data, "fuzz.yaml")
		if derr != nil {
			return
		}
		if m == nil {
			t.Fatal("Parse returned nil manifest with nil diagnostic")
		}
		manifest.Validate(m)
	})
}

// FuzzGeneratedManifest drives the whole front half of the pipeline
// with structurally well-formed manifests. Parsing must always succeed;
// semantically clean ones must render a generated file.
func FuzzGeneratedManifest(f *testing.F) {
	f.Add([]byte{0})
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Add([]byte{9, 0, 9, 0, 9, 0, 9, 0, 9, 0, 9, 0})
	f.Add([]byte{255, 128, 64, 32, 16, 8, 4, 2, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		doc := generators.NewFromData(data).GenerateManifest()
		m, derr := manifest.Parse([]byte(doc), "fuzz.yaml")
		if derr != nil {
			t.Fatalf("generator produced unparseable manifest: %v\n%s", derr, doc)
		}
		if errs := manifest.Validate(m); len(errs) > 0 {
			return
		}
		mod, errs := model.Build(m, nil)
		if len(errs) > 0 {
			return
		}
		fp, err := fingerprint.Compute(mod)
		if err != nil {
			t.Fatalf("fingerprinting clean model: %v\n%s", err, doc)
		}
		mod.Fingerprint = fp
		files, err := emit.NewGenerator().Generate(mod)
		if err != nil {
			t.Fatalf("rendering clean model: %v\n%s", err, doc)
		}
		for _, file := range files {
			if !strings.HasPrefix(file.Content, config.GeneratedHeader) {
				t.Errorf("%s missing generated header\n%s", file.Filename, doc)
			}
		}
	})
}

// FuzzMutatedManifest generates a manifest, knocks it about, and checks
// the validator and builder absorb the damage without panicking.
func FuzzMutatedManifest(f *testing.F) {
	f.Add([]byte{3, 1, 4, 1, 5}, int64(9))
	f.Add([]byte{2, 7, 1, 8, 2, 8}, int64(1))
	f.Add([]byte{0}, int64(0))

	f.Fuzz(func(t *testing.T, data []byte, seed int64) {
		doc := generators.NewFromData(data).GenerateManifest()
		m, derr := manifest.Parse([]byte(doc), "fuzz.yaml")
		if derr != nil {
			return
		}
		mut := mutator.NewManifestMutator(seed)
		for i := 0; i < 4; i++ {
			mut.Mutate(m)
		}
		if errs := manifest.Validate(m); len(errs) > 0 {
			return
		}
		model.Build(m, nil)
	})
}
