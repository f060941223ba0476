// Package manifest defines the weld.yaml model: the identity domain,
// the composites welded over it, and the filtered operations generated
// for them. Parsing keeps the raw YAML node tree so every diagnostic
// can point at the line that caused it.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/naming"
)

// Manifest is the top-level weld.yaml document.
type Manifest struct {
	// Package is the Go package the generated file belongs to.
	Package string `yaml:"package"`

	// Output is the generated filename, relative to the manifest
	// directory. Defaults to "<package>_weld.go".
	Output string `yaml:"output,omitempty"`

	// Imports lists Go import paths usable in op argument types and
	// element types, referenced by their derived qualifier: the last
	// path segment with hyphens stripped ("io", "env", "golua").
	Imports []string `yaml:"imports,omitempty"`

	// Scan configures binding the manifest against the real target
	// package via go/packages. Omitted means scan the manifest
	// directory.
	Scan *Scan `yaml:"scan,omitempty"`

	// Domain declares the identity set elements are addressed by.
	Domain Domain `yaml:"domain"`

	// Composites lists the composite types to generate.
	Composites []Composite `yaml:"composites"`

	path string
	doc  *yaml.Node
}

// Scan configures the package-binding stage.
type Scan struct {
	// Package is the go/packages load pattern for the target package.
	// Defaults to "." (the manifest directory).
	Package string `yaml:"package,omitempty"`

	// Disabled turns scanning off for this manifest. Element types and
	// action methods are then checked only by the Go compiler.
	Disabled bool `yaml:"disabled,omitempty"`
}

// Domain declares the symbolic identity set.
type Domain struct {
	// Name is the Go type name of the identity enum (e.g. "CoreKind").
	Name string `yaml:"name"`

	// External marks the enum as already declared in the target
	// package. weld then resolves the constants by scanning instead of
	// generating them, and emits a drift guard so renumbering the
	// constants breaks the build.
	External bool `yaml:"external,omitempty"`

	// Identities are the member names, in ordinal order for generated
	// domains. Written in snake_case; the constant for "attn_q" in
	// domain "CoreKind" is CoreKindAttnQ.
	Identities []string `yaml:"identities"`
}

// Composite declares one generated composite type.
type Composite struct {
	// Name is the generated Go type name (e.g. "Stack").
	Name string `yaml:"name"`

	// Elements are the welded slots, in declaration order. Order is
	// load-bearing: it fixes positions and op dispatch order.
	Elements []Element `yaml:"elements"`

	// Ops are the filtered operations generated as methods.
	Ops []Op `yaml:"ops,omitempty"`
}

// Element pairs an identity with the concrete Go type stored for it.
type Element struct {
	// Identity must be a member of the domain, unique per composite.
	Identity string `yaml:"identity"`

	// Type is the element's Go type, unqualified ("QProj") or
	// qualified against a declared import ("tensor.Block").
	Type string `yaml:"type"`

	// Labels are free-form markers usable in op filters.
	Labels []string `yaml:"labels,omitempty"`
}

// Op declares one generated dispatch method: a predicate deciding which
// elements participate, and an action applied to each of them in
// declaration order.
type Op struct {
	// Name becomes the generated method name (exported form).
	Name string `yaml:"name"`

	// Doc overrides the generated doc comment's first sentence.
	Doc string `yaml:"doc,omitempty"`

	// Args are the method parameters, forwarded identically to every
	// selected element.
	Args []Arg `yaml:"args,omitempty"`

	// Call is the method invoked on each selected element. Defaults to
	// the exported form of Name.
	Call string `yaml:"call,omitempty"`

	// Returns is "" for a plain call chain or "error" to stop at and
	// return the first failure.
	Returns string `yaml:"returns,omitempty"`

	// Filter selects participating elements at generation time.
	// Omitted selects all.
	Filter *Filter `yaml:"filter,omitempty"`
}

// Arg is one op parameter.
type Arg struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Filter is the generation-time predicate of an op. All present clauses
// must hold (AND). An identity listed here that belongs to the domain
// but not to the composite simply selects nothing.
type Filter struct {
	// Identities keeps only elements with one of these identities.
	Identities []string `yaml:"identities,omitempty"`

	// Exclude drops elements with one of these identities.
	Exclude []string `yaml:"exclude,omitempty"`

	// Labels keeps only elements carrying every listed label.
	Labels []string `yaml:"labels,omitempty"`

	// Positions keeps only elements at these declaration positions.
	Positions []int `yaml:"positions,omitempty"`

	// Expr is a Lua expression evaluated per element with ordinal,
	// position, identity, typename, and labels in scope. Truthiness
	// selects the element.
	Expr string `yaml:"expr,omitempty"`
}

// Path returns the manifest file path ("" for in-memory manifests).
func (m *Manifest) Path() string { return m.path }

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	if m.path == "" {
		return "."
	}
	return filepath.Dir(m.path)
}

// ScanEnabled reports whether the package-binding stage should run.
func (m *Manifest) ScanEnabled() bool {
	return m.Scan == nil || !m.Scan.Disabled
}

// ScanPattern returns the go/packages load pattern for the target.
func (m *Manifest) ScanPattern() string {
	if m.Scan == nil || m.Scan.Package == "" {
		return "."
	}
	return m.Scan.Package
}

// Load reads and parses a weld.yaml file.
func Load(path string) (*Manifest, *diagnostics.DiagnosticError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrW001, nil, err)
	}
	return Parse(data, path)
}

// Parse parses manifest content. The path is kept for error reporting
// and for resolving the output location.
func Parse(data []byte, path string) (*Manifest, *diagnostics.DiagnosticError) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrW002, nil, err)
	}
	if root.Kind == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrW002, nil, fmt.Errorf("empty manifest"))
	}

	// Strict second pass: unknown fields are almost always typos in a
	// hand-written manifest, so reject them with yaml's own position.
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrW002, nil, err)
	}

	m.path = path
	m.doc = &root
	m.setDefaults()
	return &m, nil
}

// Find searches for a manifest starting at dir and walking up parent
// directories. Returns "" with a nil error when none exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	names := append([]string{config.ManifestName}, config.ManifestAltNames...)
	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// setDefaults fills in values for omitted fields.
func (m *Manifest) setDefaults() {
	if m.Output == "" && m.Package != "" {
		m.Output = m.Package + config.GeneratedSuffix
	}
	for ci := range m.Composites {
		for oi := range m.Composites[ci].Ops {
			op := &m.Composites[ci].Ops[oi]
			if op.Call == "" && op.Name != "" {
				op.Call = naming.Exported(op.Name)
			}
		}
	}
}
