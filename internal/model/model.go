// Package model holds the resolved generation plan: manifest input
// linked against scan results, predicates already evaluated, every
// derived Go name fixed. The emitter renders a Model without making
// further decisions.
package model

// Model is the plan for one manifest.
type Model struct {
	// Package is the target Go package name.
	Package string

	// Output is the generated filename relative to the manifest dir.
	Output string

	// ManifestPath is where the manifest was read from.
	ManifestPath string

	// Fingerprint is the hex layout fingerprint stamped into the
	// generated header. Filled in by the fingerprint stage.
	Fingerprint string

	Domain     Domain
	Imports    []Import
	Composites []Composite
}

// Import is one declared import with its derived qualifier.
type Import struct {
	Path  string
	Alias string
}

// Domain is the resolved identity enum.
type Domain struct {
	Name       string
	External   bool
	Identities []Identity
}

// Identity is one resolved domain member.
type Identity struct {
	// Name is the manifest spelling ("attn_q").
	Name string

	// ConstName is the Go constant ("CoreKindAttnQ"). For external
	// domains this is whatever constant the scanner resolved.
	ConstName string

	// Ordinal is the numeric value: the declaration index for
	// generated domains, the scanned constant value for external ones.
	Ordinal uint64
}

// Composite is one resolved composite type.
type Composite struct {
	Name     string
	Elements []Element
	Ops      []Op
}

// Element is one welded slot.
type Element struct {
	Identity Identity

	// TypeExpr is the element type as written ("QProj", "tensor.Block").
	TypeExpr string

	// Field is the generated struct field ("attnQ").
	Field string

	// Accessor is the generated accessor method ("AttnQ").
	Accessor string

	// Position is the declaration index, also the slot index.
	Position int

	Labels []string
}

// Op is one resolved dispatch method.
type Op struct {
	// Name is the manifest spelling ("boost_all").
	Name string

	// Method is the generated method name ("BoostAll").
	Method string

	// Doc overrides the generated doc comment when non-empty.
	Doc string

	Args []Arg

	// Call is the method invoked on each selected element.
	Call string

	// ReturnsError marks an error-chaining op.
	ReturnsError bool

	// Selected are the participating positions, ascending. Selection
	// happened at plan time; the emitter unrolls exactly these.
	Selected []int

	// FilterDesc is a human-readable filter summary for doc comments.
	FilterDesc string
}

// Arg is one op parameter.
type Arg struct {
	Name string
	Type string
}

// ElementAt returns the element at position p of composite c.
func (c *Composite) ElementAt(p int) *Element {
	return &c.Elements[p]
}

// Count returns the number of elements (N) of the composite.
func (c *Composite) Count() int {
	return len(c.Elements)
}
