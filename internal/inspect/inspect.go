// Package inspect binds a manifest against the real target package via
// go/packages: element types must exist, external domain constants must
// resolve, and action methods must be callable the way the ops declare.
// Everything here is optional in the sense that skipping the scan only
// defers the same failures to the Go compiler, with worse messages.
package inspect

import (
	"fmt"
	"go/constant"
	"go/types"
	"io"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/naming"
)

// Result is what the scanner learned about the target package.
type Result struct {
	// PackageName is the real package name found in the target dir.
	PackageName string

	// PackagePath is the resolved import path.
	PackagePath string

	// ElementTypes maps unqualified manifest type names to their
	// resolved named types. Qualified types (pkg.Type) are trusted to
	// the compiler and never appear here.
	ElementTypes map[string]*types.Named

	// DomainOrdinals maps identity names to scanned constant values
	// for external domains. Empty for generated domains.
	DomainOrdinals map[string]uint64

	// DomainConstNames maps identity names to the constant identifier
	// that resolved them (e.g. "attn_q" -> "CoreKindAttnQ").
	DomainConstNames map[string]string
}

// Scanner loads and interrogates the target package.
type Scanner struct {
	// Dir is the directory go/packages loads from (the manifest dir).
	Dir string

	// Trace, when set, receives loader noise useful for debugging
	// (package errors are tolerated, not fatal: the target package
	// routinely fails to type-check before its first generation).
	Trace io.Writer
}

// Scan resolves everything the manifest claims about the target
// package. Returned diagnostics use W2xx codes; a nil Result means the
// load itself failed.
func (s *Scanner) Scan(m *manifest.Manifest) (*Result, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError

	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: s.Dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pattern := m.ScanPattern()
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, []*diagnostics.DiagnosticError{
			diagnostics.NewError(diagnostics.ErrW201, m.Node("scan"), pattern, err),
		}
	}

	pkg := pickPackage(pkgs, m.Package)
	if pkg == nil || pkg.Types == nil {
		return nil, []*diagnostics.DiagnosticError{
			diagnostics.NewError(diagnostics.ErrW201, m.Node("scan"), pattern, fmt.Errorf("no loadable package matched")),
		}
	}

	if s.Trace != nil {
		for _, e := range pkg.Errors {
			fmt.Fprintf(s.Trace, "scan: %s: %s\n", pkg.PkgPath, e.Msg)
		}
	}

	if pkg.Name != "" && m.Package != "" && pkg.Name != m.Package {
		errs = append(errs, diagnostics.NewError(diagnostics.ErrW205, m.Node("package"), m.Package, s.Dir, pkg.Name))
	}

	result := &Result{
		PackageName:      pkg.Name,
		PackagePath:      pkg.PkgPath,
		ElementTypes:     make(map[string]*types.Named),
		DomainOrdinals:   make(map[string]uint64),
		DomainConstNames: make(map[string]string),
	}

	scope := pkg.Types.Scope()
	s.resolveElementTypes(m, scope, result, &errs)
	if m.Domain.External {
		s.resolveExternalDomain(m, scope, result, &errs)
	}

	return result, errs
}

// pickPackage chooses the package to interrogate. When a pattern
// matches several, the one whose name matches the manifest wins.
func pickPackage(pkgs []*packages.Package, wantName string) *packages.Package {
	var first *packages.Package
	for _, p := range pkgs {
		if p.Types == nil {
			continue
		}
		if first == nil {
			first = p
		}
		if p.Name == wantName {
			return p
		}
	}
	return first
}

func (s *Scanner) resolveElementTypes(m *manifest.Manifest, scope *types.Scope, result *Result, errs *[]*diagnostics.DiagnosticError) {
	for ci := range m.Composites {
		for ei := range m.Composites[ci].Elements {
			el := &m.Composites[ci].Elements[ei]
			if el.Type == "" || strings.Contains(el.Type, ".") {
				continue // qualified types are the compiler's problem
			}
			if _, done := result.ElementTypes[el.Type]; done {
				continue
			}

			obj := scope.Lookup(el.Type)
			if obj == nil {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW202,
					m.Node("composites", ci, "elements", ei, "type"), el.Type, result.PackagePath))
				continue
			}
			tn, ok := obj.(*types.TypeName)
			if !ok {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW202,
					m.Node("composites", ci, "elements", ei, "type"), el.Type, result.PackagePath))
				continue
			}
			if named, ok := tn.Type().(*types.Named); ok {
				result.ElementTypes[el.Type] = named
			}
		}
	}
}

func (s *Scanner) resolveExternalDomain(m *manifest.Manifest, scope *types.Scope, result *Result, errs *[]*diagnostics.DiagnosticError) {
	dom := &m.Domain
	nameNode := m.Node("domain", "name")

	obj := scope.Lookup(dom.Name)
	if obj == nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW204, nameNode, dom.Name,
			fmt.Sprintf("type not found in package %s", result.PackagePath)))
		return
	}
	tn, ok := obj.(*types.TypeName)
	if !ok {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW204, nameNode, dom.Name,
			fmt.Sprintf("%s is not a type", dom.Name)))
		return
	}
	basic, ok := tn.Type().Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsInteger == 0 {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW204, nameNode, dom.Name,
			fmt.Sprintf("type %s is not an integer kind", dom.Name)))
		return
	}

	for i, id := range dom.Identities {
		idNode := m.Node("domain", "identities", i)
		candidates := []string{dom.Name + naming.Exported(id), naming.Exported(id)}

		var resolved *types.Const
		var constName string
		for _, cand := range candidates {
			if c, ok := scope.Lookup(cand).(*types.Const); ok && types.Identical(c.Type(), tn.Type()) {
				resolved = c
				constName = cand
				break
			}
		}
		if resolved == nil {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW204, idNode, dom.Name,
				fmt.Sprintf("no constant for identity %q (tried %s and %s)", id, candidates[0], candidates[1])))
			continue
		}

		val, exact := constant.Uint64Val(constant.ToInt(resolved.Val()))
		if !exact {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrW204, idNode, dom.Name,
				fmt.Sprintf("constant %s is not representable as uint64", constName)))
			continue
		}
		result.DomainOrdinals[id] = val
		result.DomainConstNames[id] = constName
	}
}

// LookupMethod finds a method in the pointer method set of a scanned
// element type.
func (r *Result) LookupMethod(typeName, method string) (*types.Func, bool) {
	named, ok := r.ElementTypes[typeName]
	if !ok {
		return nil, false
	}
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		obj := mset.At(i).Obj()
		if obj.Name() == method {
			if f, ok := obj.(*types.Func); ok {
				return f, true
			}
		}
	}
	return nil, false
}

// CheckAction verifies that typeName has a method usable as the action
// of an op: the right parameter count and the declared result shape.
// Returns a description of the mismatch, or "" when compatible. Types
// the scanner never resolved (qualified, or missing with W202 already
// reported) yield "" to avoid piling on.
func (r *Result) CheckAction(typeName, method string, argCount int, returnsError bool) string {
	if _, scanned := r.ElementTypes[typeName]; !scanned {
		return ""
	}
	f, ok := r.LookupMethod(typeName, method)
	if !ok {
		return "no such method"
	}
	sig, ok := f.Type().(*types.Signature)
	if !ok {
		return "not a method"
	}

	params := sig.Params().Len()
	if sig.Variadic() {
		if argCount < params-1 {
			return fmt.Sprintf("takes at least %d args, op passes %d", params-1, argCount)
		}
	} else if params != argCount {
		return fmt.Sprintf("takes %d args, op passes %d", params, argCount)
	}

	results := sig.Results().Len()
	if returnsError {
		if results != 1 || !isErrorType(sig.Results().At(0).Type()) {
			return "must return exactly error"
		}
	} else if results != 0 {
		return fmt.Sprintf("returns %d values, op declares none", results)
	}
	return ""
}

func isErrorType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj != nil && obj.Pkg() == nil && obj.Name() == "error"
}
