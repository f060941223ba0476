package model

import (
	"strconv"
	"strings"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/inspect"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/naming"
	"github.com/weldkit/weld/internal/predicate"
)

// Build links a validated manifest against scan results and plans every
// op: filters are evaluated here, per element, and only the surviving
// positions reach the emitter. Scan may be nil when scanning is
// disabled; element types and action methods are then left to the
// compiler, and external domain ordinals fall back to declaration
// order.
func Build(m *manifest.Manifest, scan *inspect.Result) (*Model, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError

	mod := &Model{
		Package:      m.Package,
		Output:       m.Output,
		ManifestPath: m.Path(),
		Domain:       buildDomain(m, scan),
	}
	for _, path := range m.Imports {
		mod.Imports = append(mod.Imports, Import{Path: path, Alias: naming.ImportAlias(path)})
	}

	byName := make(map[string]Identity, len(mod.Domain.Identities))
	for _, id := range mod.Domain.Identities {
		byName[id.Name] = id
	}

	for ci := range m.Composites {
		mc := &m.Composites[ci]
		comp := Composite{Name: mc.Name}

		for ei := range mc.Elements {
			me := &mc.Elements[ei]
			id, member := byName[me.Identity]
			if !member {
				// Already reported by validation. Carry a placeholder so
				// op planning still sees the element.
				id = Identity{
					Name:      me.Identity,
					ConstName: mod.Domain.Name + naming.Exported(me.Identity),
				}
			}
			comp.Elements = append(comp.Elements, Element{
				Identity: id,
				TypeExpr: me.Type,
				Field:    naming.Field(me.Identity),
				Accessor: naming.Exported(me.Identity),
				Position: ei,
				Labels:   me.Labels,
			})
		}

		for oi := range mc.Ops {
			comp.Ops = append(comp.Ops, buildOp(m, ci, oi, &comp, scan, &errs))
		}

		mod.Composites = append(mod.Composites, comp)
	}

	return mod, errs
}

// buildDomain resolves identities to constant names and ordinals. For
// generated domains the ordinal is the declaration index; for external
// ones the scanner's value and constant spelling win when available.
func buildDomain(m *manifest.Manifest, scan *inspect.Result) Domain {
	d := Domain{Name: m.Domain.Name, External: m.Domain.External}
	for i, name := range m.Domain.Identities {
		id := Identity{
			Name:      name,
			ConstName: m.Domain.Name + naming.Exported(name),
			Ordinal:   uint64(i),
		}
		if d.External && scan != nil {
			if ord, ok := scan.DomainOrdinals[name]; ok {
				id.Ordinal = ord
			}
			if constName, ok := scan.DomainConstNames[name]; ok {
				id.ConstName = constName
			}
		}
		d.Identities = append(d.Identities, id)
	}
	return d
}

// buildOp plans one op: evaluates its filter against every element of
// the composite and, for the selected ones, checks the action method
// against the scanned package. Elements whose predicate fails to
// evaluate are reported and treated as unselected.
func buildOp(m *manifest.Manifest, ci, oi int, comp *Composite, scan *inspect.Result, errs *[]*diagnostics.DiagnosticError) Op {
	mo := &m.Composites[ci].Ops[oi]
	op := Op{
		Name:         mo.Name,
		Method:       naming.Exported(mo.Name),
		Doc:          mo.Doc,
		Call:         mo.Call,
		ReturnsError: mo.Returns == "error",
		FilterDesc:   describeFilter(mo.Filter),
	}
	for _, a := range mo.Args {
		op.Args = append(op.Args, Arg{Name: a.Name, Type: a.Type})
	}

	for pi := range comp.Elements {
		el := &comp.Elements[pi]
		keep, err := matches(mo.Filter, el)
		if err != nil {
			node := m.Node("composites", ci, "ops", oi, "filter", "expr")
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW108, node, op.Name, el.Identity.Name, err))
			continue
		}
		if !keep {
			continue
		}
		op.Selected = append(op.Selected, el.Position)

		if scan != nil {
			if msg := scan.CheckAction(el.TypeExpr, op.Call, len(op.Args), op.ReturnsError); msg != "" {
				node := m.Node("composites", ci, "ops", oi, "call")
				if node == nil {
					node = m.Node("composites", ci, "ops", oi, "name")
				}
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW203, node, op.Name, el.TypeExpr, op.Call, msg))
			}
		}
	}
	return op
}

// matches applies every present filter clause; all must hold. A nil
// filter selects everything.
func matches(f *manifest.Filter, el *Element) (bool, error) {
	if f == nil {
		return true, nil
	}
	if len(f.Identities) > 0 && !containsString(f.Identities, el.Identity.Name) {
		return false, nil
	}
	if containsString(f.Exclude, el.Identity.Name) {
		return false, nil
	}
	for _, label := range f.Labels {
		if !containsString(el.Labels, label) {
			return false, nil
		}
	}
	if len(f.Positions) > 0 && !containsInt(f.Positions, el.Position) {
		return false, nil
	}
	if f.Expr != "" {
		return predicate.Eval(f.Expr, predicate.Env{
			Ordinal:  el.Identity.Ordinal,
			Position: el.Position,
			Identity: el.Identity.Name,
			TypeName: el.TypeExpr,
			Labels:   el.Labels,
		})
	}
	return true, nil
}

// describeFilter renders a filter summary for generated doc comments.
func describeFilter(f *manifest.Filter) string {
	if f == nil {
		return "all elements"
	}
	var parts []string
	if len(f.Identities) > 0 {
		parts = append(parts, "identities "+strings.Join(f.Identities, ", "))
	}
	if len(f.Exclude) > 0 {
		parts = append(parts, "excluding "+strings.Join(f.Exclude, ", "))
	}
	if len(f.Labels) > 0 {
		parts = append(parts, "labels "+strings.Join(f.Labels, ", "))
	}
	if len(f.Positions) > 0 {
		nums := make([]string, len(f.Positions))
		for i, p := range f.Positions {
			nums[i] = strconv.Itoa(p)
		}
		parts = append(parts, "positions "+strings.Join(nums, ", "))
	}
	if f.Expr != "" {
		parts = append(parts, "expr "+f.Expr)
	}
	if len(parts) == 0 {
		return "all elements"
	}
	return strings.Join(parts, "; ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
