package manifest

import (
	"fmt"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/naming"
)

// Validate checks every composition rule decidable from the manifest
// alone: required fields, domain membership, duplicate identities and
// pairings, derived-name collisions, filter references, and position
// bounds. Package-level facts (element types, methods, external domain
// constants) are the scanner's job; expression predicates are checked
// when they run.
func Validate(m *Manifest) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError
	add := func(e *diagnostics.DiagnosticError) {
		errs = append(errs, e)
	}

	if m.Package == "" {
		add(diagnostics.NewError(diagnostics.ErrW003, m.Node(), "package"))
	} else if !naming.IsIdentifier(m.Package) {
		add(diagnostics.NewError(diagnostics.ErrW112, m.Node("package"), "package", m.Package))
	}

	if m.Output != "" && !hasGoSuffix(m.Output) {
		add(diagnostics.NewError(diagnostics.ErrW004, m.Node("output"), "output", m.Output, "a .go filename"))
	}

	qualifiers := m.validateImports(add)
	domainSet := m.validateDomain(add)

	// Top-level identifier registry across the generated file. The
	// domain claims its names first, then every composite.
	topLevel := make(map[string]string)
	claim := func(name, owner string, node *yaml.Node) {
		if prev, taken := topLevel[name]; taken {
			add(diagnostics.NewError(diagnostics.ErrW105, node, prev, owner, name))
			return
		}
		topLevel[name] = owner
	}

	if m.Domain.Name != "" {
		domainOwner := fmt.Sprintf("domain %q", m.Domain.Name)
		claim(m.Domain.Name, domainOwner, m.Node("domain", "name"))
		if !m.Domain.External {
			claim(naming.LcFirst(m.Domain.Name)+"Names", domainOwner, m.Node("domain", "name"))
			for _, id := range m.Domain.Identities {
				claim(m.Domain.Name+naming.Exported(id), fmt.Sprintf("identity %q", id), m.Node("domain", "identities"))
			}
		}
	}

	if len(m.Composites) == 0 {
		add(diagnostics.NewError(diagnostics.ErrW003, m.Node(), "composites"))
	}

	seenComposites := make(map[string]bool)
	for ci := range m.Composites {
		c := &m.Composites[ci]
		nameNode := m.Node("composites", ci, "name")

		if c.Name == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, m.Node("composites", ci), fmt.Sprintf("composites[%d].name", ci)))
		} else if !isExportedIdentifier(c.Name) {
			add(diagnostics.NewError(diagnostics.ErrW112, nameNode, fmt.Sprintf("composites[%d].name", ci), c.Name))
		} else if seenComposites[c.Name] {
			add(diagnostics.NewError(diagnostics.ErrW110, nameNode, "composite", c.Name))
		} else {
			seenComposites[c.Name] = true
			owner := fmt.Sprintf("composite %q", c.Name)
			claim(c.Name, owner, nameNode)
			claim(c.Name+"Position", owner, nameNode)
			claim(c.Name+"Count", owner, nameNode)
			claim(c.Name+"PositionOf", owner, nameNode)
			claim(naming.LcFirst(c.Name)+"Identities", owner, nameNode)
		}

		m.validateComposite(ci, c, domainSet, qualifiers, add)
	}

	return errs
}

// validateImports checks the import list and returns the set of legal
// package qualifiers.
func (m *Manifest) validateImports(add func(*diagnostics.DiagnosticError)) map[string]bool {
	qualifiers := make(map[string]bool)
	aliasOwner := make(map[string]string)
	seen := make(map[string]bool)

	for i, imp := range m.Imports {
		node := m.Node("imports", i)
		if imp == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, node, fmt.Sprintf("imports[%d]", i)))
			continue
		}
		if seen[imp] {
			add(diagnostics.NewError(diagnostics.ErrW110, node, "import", imp))
			continue
		}
		seen[imp] = true

		alias := naming.ImportAlias(imp)
		if prev, taken := aliasOwner[alias]; taken {
			add(diagnostics.NewError(diagnostics.ErrW105, node,
				fmt.Sprintf("import %q", prev), fmt.Sprintf("import %q", imp), alias))
			continue
		}
		aliasOwner[alias] = imp
		qualifiers[alias] = true
	}
	return qualifiers
}

// validateDomain checks the domain block and returns identity -> ordinal
// position in the declaration.
func (m *Manifest) validateDomain(add func(*diagnostics.DiagnosticError)) map[string]int {
	dom := &m.Domain
	domainSet := make(map[string]int)

	if dom.Name == "" {
		add(diagnostics.NewError(diagnostics.ErrW003, m.Node("domain"), "domain.name"))
	} else if !isExportedIdentifier(dom.Name) {
		add(diagnostics.NewError(diagnostics.ErrW112, m.Node("domain", "name"), "domain.name", dom.Name))
	}

	if len(dom.Identities) == 0 {
		add(diagnostics.NewError(diagnostics.ErrW003, m.Node("domain"), "domain.identities"))
		return domainSet
	}

	constSeen := make(map[string]string)
	for i, id := range dom.Identities {
		node := m.Node("domain", "identities", i)
		if id == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, node, fmt.Sprintf("domain.identities[%d]", i)))
			continue
		}
		if !naming.IsIdentifier(id) {
			add(diagnostics.NewError(diagnostics.ErrW112, node, fmt.Sprintf("domain.identities[%d]", i), id))
			continue
		}
		if _, dup := domainSet[id]; dup {
			add(diagnostics.NewError(diagnostics.ErrW111, node, id, dom.Name))
			continue
		}
		domainSet[id] = i

		constName := naming.Exported(id)
		if prev, clash := constSeen[constName]; clash {
			add(diagnostics.NewError(diagnostics.ErrW105, node,
				fmt.Sprintf("identity %q", prev), fmt.Sprintf("identity %q", id), constName))
			continue
		}
		constSeen[constName] = id
	}
	return domainSet
}

func (m *Manifest) validateComposite(ci int, c *Composite, domainSet map[string]int, qualifiers map[string]bool, add func(*diagnostics.DiagnosticError)) {
	if len(c.Elements) == 0 {
		add(diagnostics.NewError(diagnostics.ErrW101, m.Node("composites", ci), c.Name))
	}

	// Method registry: identity accessors, positional accessors, and op
	// methods share one namespace on the composite.
	methods := make(map[string]string)
	claimMethod := func(name, owner string, node *yaml.Node) {
		if prev, taken := methods[name]; taken {
			add(diagnostics.NewError(diagnostics.ErrW105, node, prev, owner, name))
			return
		}
		methods[name] = owner
	}

	seenPair := make(map[string]bool)
	seenIdentity := make(map[string]string) // identity -> element type
	for ei := range c.Elements {
		el := &c.Elements[ei]
		elNode := m.Node("composites", ci, "elements", ei)
		idNode := m.Node("composites", ci, "elements", ei, "identity")

		if el.Identity == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, elNode, fmt.Sprintf("composites[%d].elements[%d].identity", ci, ei)))
			continue
		}
		if !naming.IsIdentifier(el.Identity) {
			add(diagnostics.NewError(diagnostics.ErrW112, idNode, fmt.Sprintf("composites[%d].elements[%d].identity", ci, ei), el.Identity))
			continue
		}
		if el.Type == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, elNode, fmt.Sprintf("composites[%d].elements[%d].type", ci, ei)))
			continue
		}

		pairKey := el.Identity + "\x00" + el.Type
		if seenPair[pairKey] {
			add(diagnostics.NewError(diagnostics.ErrW104, idNode, el.Identity, el.Type, c.Name))
			continue
		}
		seenPair[pairKey] = true

		if _, member := domainSet[el.Identity]; !member && len(domainSet) > 0 {
			add(diagnostics.NewError(diagnostics.ErrW103, idNode, el.Identity, m.Domain.Name))
		}

		if prevType, dup := seenIdentity[el.Identity]; dup {
			add(diagnostics.NewError(diagnostics.ErrW102, idNode, el.Identity, c.Name, prevType, el.Type))
		} else {
			seenIdentity[el.Identity] = el.Type
			claimMethod(naming.Exported(el.Identity), fmt.Sprintf("identity %q", el.Identity), idNode)
		}

		for _, q := range naming.TypeQualifiers(el.Type) {
			if !qualifiers[q] {
				add(diagnostics.NewError(diagnostics.ErrW301, m.Node("composites", ci, "elements", ei, "type"),
					fmt.Sprintf("element %q type", el.Identity), q))
			}
		}

		labelSeen := make(map[string]bool)
		for li, label := range el.Labels {
			labelNode := m.Node("composites", ci, "elements", ei, "labels", li)
			if !naming.IsIdentifier(label) {
				add(diagnostics.NewError(diagnostics.ErrW112, labelNode, fmt.Sprintf("composites[%d].elements[%d].labels[%d]", ci, ei, li), label))
				continue
			}
			if labelSeen[label] {
				add(diagnostics.NewError(diagnostics.ErrW110, labelNode, "label", label))
				continue
			}
			labelSeen[label] = true
		}
	}

	for p := range c.Elements {
		claimMethod(fmt.Sprintf("At%d", p), fmt.Sprintf("position %d", p), m.Node("composites", ci, "elements", p))
	}

	declaredLabels := make(map[string]bool)
	for ei := range c.Elements {
		for _, label := range c.Elements[ei].Labels {
			declaredLabels[label] = true
		}
	}

	seenOps := make(map[string]bool)
	for oi := range c.Ops {
		op := &c.Ops[oi]
		opNode := m.Node("composites", ci, "ops", oi)
		opNameNode := m.Node("composites", ci, "ops", oi, "name")

		if op.Name == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, opNode, fmt.Sprintf("composites[%d].ops[%d].name", ci, oi)))
			continue
		}
		if !naming.IsIdentifier(op.Name) {
			add(diagnostics.NewError(diagnostics.ErrW112, opNameNode, fmt.Sprintf("composites[%d].ops[%d].name", ci, oi), op.Name))
			continue
		}
		if seenOps[op.Name] {
			add(diagnostics.NewError(diagnostics.ErrW110, opNameNode, "op", op.Name))
			continue
		}
		seenOps[op.Name] = true
		claimMethod(naming.Exported(op.Name), fmt.Sprintf("op %q", op.Name), opNameNode)

		if op.Call != "" && !naming.IsIdentifier(op.Call) {
			add(diagnostics.NewError(diagnostics.ErrW112, m.Node("composites", ci, "ops", oi, "call"),
				fmt.Sprintf("composites[%d].ops[%d].call", ci, oi), op.Call))
		}

		if op.Returns != "" && op.Returns != "error" {
			add(diagnostics.NewError(diagnostics.ErrW004, m.Node("composites", ci, "ops", oi, "returns"),
				"returns", op.Returns, `"" or "error"`))
		}

		m.validateArgs(ci, oi, op, qualifiers, add)
		m.validateFilter(ci, oi, c, op, domainSet, declaredLabels, add)
	}
}

func (m *Manifest) validateArgs(ci, oi int, op *Op, qualifiers map[string]bool, add func(*diagnostics.DiagnosticError)) {
	seenArgs := make(map[string]bool)
	for ai := range op.Args {
		arg := &op.Args[ai]
		argNode := m.Node("composites", ci, "ops", oi, "args", ai)

		if arg.Name == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, argNode, fmt.Sprintf("composites[%d].ops[%d].args[%d].name", ci, oi, ai)))
			continue
		}
		if !naming.IsIdentifier(arg.Name) {
			add(diagnostics.NewError(diagnostics.ErrW112, argNode, fmt.Sprintf("composites[%d].ops[%d].args[%d].name", ci, oi, ai), arg.Name))
			continue
		}
		// c is the receiver and err the error chain variable in
		// generated bodies.
		if arg.Name == "c" || arg.Name == "err" {
			add(diagnostics.NewError(diagnostics.ErrW004, argNode,
				fmt.Sprintf("composites[%d].ops[%d].args[%d].name", ci, oi, ai), arg.Name, `a name other than "c" and "err"`))
			continue
		}
		if seenArgs[arg.Name] {
			add(diagnostics.NewError(diagnostics.ErrW110, argNode, "argument", arg.Name))
			continue
		}
		seenArgs[arg.Name] = true

		if arg.Type == "" {
			add(diagnostics.NewError(diagnostics.ErrW003, argNode, fmt.Sprintf("composites[%d].ops[%d].args[%d].type", ci, oi, ai)))
			continue
		}
		for _, q := range naming.TypeQualifiers(arg.Type) {
			if !qualifiers[q] {
				add(diagnostics.NewError(diagnostics.ErrW301, argNode,
					fmt.Sprintf("op %q argument %q", op.Name, arg.Name), q))
			}
		}
	}
}

func (m *Manifest) validateFilter(ci, oi int, c *Composite, op *Op, domainSet map[string]int, declaredLabels map[string]bool, add func(*diagnostics.DiagnosticError)) {
	f := op.Filter
	if f == nil {
		return
	}
	filterNode := m.Node("composites", ci, "ops", oi, "filter")

	for _, list := range [][]string{f.Identities, f.Exclude} {
		for _, id := range list {
			if _, member := domainSet[id]; !member && len(domainSet) > 0 {
				add(diagnostics.NewError(diagnostics.ErrW106, filterNode, op.Name, id, m.Domain.Name))
			}
		}
	}

	for _, p := range f.Positions {
		if p < 0 || p >= len(c.Elements) {
			add(diagnostics.NewError(diagnostics.ErrW107, filterNode, op.Name, p, c.Name, len(c.Elements)))
		}
	}

	for _, label := range f.Labels {
		if !declaredLabels[label] {
			add(diagnostics.NewError(diagnostics.ErrW109, filterNode, op.Name, label, c.Name))
		}
	}
}

func isExportedIdentifier(s string) bool {
	if !naming.IsIdentifier(s) {
		return false
	}
	first := []rune(s)[0]
	return unicode.IsUpper(first)
}

func hasGoSuffix(name string) bool {
	return len(name) > 3 && name[len(name)-3:] == ".go"
}
