// Package mutator perturbs parsed manifests in place. Each mutation is
// small and targeted at a validator edge: ghost identities, duplicate
// slots, dangling filters. Mutated manifests must never panic the
// pipeline, whatever diagnostics they earn.
package mutator

import (
	"fmt"
	"math/rand"

	"github.com/weldkit/weld/internal/manifest"
)

type ManifestMutator struct {
	rnd *rand.Rand
}

func NewManifestMutator(seed int64) *ManifestMutator {
	return &ManifestMutator{rnd: rand.New(rand.NewSource(seed))}
}

// Mutate applies one random mutation to m. Manifests without a matching
// site (no composites, no ops) are left unchanged.
func (m *ManifestMutator) Mutate(doc *manifest.Manifest) {
	switch m.rnd.Intn(8) {
	case 0:
		m.ghostElement(doc)
	case 1:
		m.duplicateElement(doc)
	case 2:
		m.dropElement(doc)
	case 3:
		m.duplicateIdentity(doc)
	case 4:
		m.dropIdentity(doc)
	case 5:
		m.breakOpName(doc)
	case 6:
		m.swapElements(doc)
	case 7:
		m.skewFilterPosition(doc)
	}
}

func (m *ManifestMutator) randomComposite(doc *manifest.Manifest) *manifest.Composite {
	if len(doc.Composites) == 0 {
		return nil
	}
	return &doc.Composites[m.rnd.Intn(len(doc.Composites))]
}

// ghostElement points an element at an identity the domain never
// declared.
func (m *ManifestMutator) ghostElement(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Elements) == 0 {
		return
	}
	i := m.rnd.Intn(len(c.Elements))
	c.Elements[i].Identity = fmt.Sprintf("ghost_%d", m.rnd.Intn(100))
}

func (m *ManifestMutator) duplicateElement(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Elements) == 0 {
		return
	}
	i := m.rnd.Intn(len(c.Elements))
	c.Elements = append(c.Elements, c.Elements[i])
}

func (m *ManifestMutator) dropElement(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Elements) == 0 {
		return
	}
	i := m.rnd.Intn(len(c.Elements))
	c.Elements = append(c.Elements[:i], c.Elements[i+1:]...)
}

func (m *ManifestMutator) duplicateIdentity(doc *manifest.Manifest) {
	ids := doc.Domain.Identities
	if len(ids) == 0 {
		return
	}
	doc.Domain.Identities = append(ids, ids[m.rnd.Intn(len(ids))])
}

// dropIdentity removes a domain member, potentially stranding elements
// and filters that still name it.
func (m *ManifestMutator) dropIdentity(doc *manifest.Manifest) {
	ids := doc.Domain.Identities
	if len(ids) == 0 {
		return
	}
	i := m.rnd.Intn(len(ids))
	doc.Domain.Identities = append(ids[:i], ids[i+1:]...)
}

func (m *ManifestMutator) breakOpName(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Ops) == 0 {
		return
	}
	broken := []string{"", "9lives", "has space", "weird-dash"}
	i := m.rnd.Intn(len(c.Ops))
	c.Ops[i].Name = broken[m.rnd.Intn(len(broken))]
}

func (m *ManifestMutator) swapElements(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Elements) < 2 {
		return
	}
	i := m.rnd.Intn(len(c.Elements))
	j := m.rnd.Intn(len(c.Elements))
	c.Elements[i], c.Elements[j] = c.Elements[j], c.Elements[i]
}

func (m *ManifestMutator) skewFilterPosition(doc *manifest.Manifest) {
	c := m.randomComposite(doc)
	if c == nil || len(c.Ops) == 0 {
		return
	}
	op := &c.Ops[m.rnd.Intn(len(c.Ops))]
	if op.Filter == nil {
		op.Filter = &manifest.Filter{}
	}
	op.Filter.Positions = append(op.Filter.Positions, len(c.Elements)+m.rnd.Intn(5))
}
