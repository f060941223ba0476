// Package emit renders a resolved model into Go source. Everything
// structural was decided earlier: the model carries final names,
// ordinals, and per-op selections, so rendering is a straight
// transcription with no choices left.
package emit

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/model"
	"github.com/weldkit/weld/internal/naming"
)

// File is one generated source file.
type File struct {
	// Filename is relative to the manifest directory.
	Filename string

	// Content is formatted Go source.
	Content string
}

// Generator renders models into source files.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the model's output file. Formatting failures come
// back as a *diagnostics.DiagnosticError; anything else is a template
// fault.
func (g *Generator) Generate(mod *model.Model) ([]File, error) {
	ctx := &fileContext{mod: mod}
	raw, err := ctx.render()
	if err != nil {
		return nil, err
	}

	formatted, err := imports.Process(mod.Output, []byte(raw), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrW302, nil, mod.Output, err)
	}

	return []File{{Filename: mod.Output, Content: string(formatted)}}, nil
}

// fileContext holds state while rendering a single output file.
type fileContext struct {
	mod *model.Model
}

type importEntry struct {
	Path  string
	Alias string

	// Aliased marks imports whose qualifier differs from the last
	// path segment and must be spelled out.
	Aliased bool
}

const fileTemplate = `{{.Header}}
//
// Source: {{.Source}}
{{- if .Fingerprint}}
// {{.StampPrefix}} {{.Fingerprint}}
{{- end}}

package {{.Package}}

{{if .Imports -}}
import (
{{- range .Imports}}
	{{if .Aliased}}{{.Alias}} {{end}}{{printf "%q" .Path}}
{{- end}}
)

{{end -}}
{{.Body}}`

func (ctx *fileContext) render() (string, error) {
	var body strings.Builder
	ctx.writeDomain(&body)
	for ci := range ctx.mod.Composites {
		ctx.writeComposite(&body, &ctx.mod.Composites[ci])
	}

	tmpl, err := template.New("weldfile").Parse(fileTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing file template: %w", err)
	}

	source := config.ManifestName
	if ctx.mod.ManifestPath != "" {
		source = filepath.Base(ctx.mod.ManifestPath)
	}

	data := struct {
		Header      string
		Source      string
		StampPrefix string
		Fingerprint string
		Package     string
		Imports     []importEntry
		Body        string
	}{
		Header:      config.GeneratedHeader,
		Source:      source,
		StampPrefix: config.FingerprintPrefix,
		Fingerprint: ctx.mod.Fingerprint,
		Package:     ctx.mod.Package,
		Imports:     ctx.usedImports(),
		Body:        body.String(),
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing file template: %w", err)
	}
	return buf.String(), nil
}

// usedImports returns the declared imports actually referenced by
// element or argument types, plus strconv when the domain's String
// method is generated. Declared but unreferenced imports are dropped.
func (ctx *fileContext) usedImports() []importEntry {
	used := make(map[string]bool)
	for ci := range ctx.mod.Composites {
		c := &ctx.mod.Composites[ci]
		for ei := range c.Elements {
			for _, q := range naming.TypeQualifiers(c.Elements[ei].TypeExpr) {
				used[q] = true
			}
		}
		for oi := range c.Ops {
			for _, a := range c.Ops[oi].Args {
				for _, q := range naming.TypeQualifiers(a.Type) {
					used[q] = true
				}
			}
		}
	}

	seen := make(map[string]bool)
	var entries []importEntry
	for _, imp := range ctx.mod.Imports {
		if !used[imp.Alias] || seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		entries = append(entries, importEntry{
			Path:    imp.Path,
			Alias:   imp.Alias,
			Aliased: path.Base(imp.Path) != imp.Alias,
		})
	}
	if !ctx.mod.Domain.External && !seen["strconv"] {
		entries = append(entries, importEntry{Path: "strconv", Alias: "strconv"})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// writeDomain emits the identity enum, or the drift guard when the
// target package owns it.
func (ctx *fileContext) writeDomain(b *strings.Builder) {
	d := &ctx.mod.Domain
	if d.External {
		ctx.writeDriftGuard(b)
		return
	}

	fmt.Fprintf(b, "// %s identifies the welded element slots.\n", d.Name)
	fmt.Fprintf(b, "type %s uint64\n\n", d.Name)

	b.WriteString("const (\n")
	for i, id := range d.Identities {
		if i == 0 {
			fmt.Fprintf(b, "\t%s %s = iota\n", id.ConstName, d.Name)
		} else {
			fmt.Fprintf(b, "\t%s\n", id.ConstName)
		}
	}
	b.WriteString(")\n\n")

	namesVar := naming.LcFirst(d.Name) + "Names"
	fmt.Fprintf(b, "var %s = [...]string{\n", namesVar)
	for _, id := range d.Identities {
		fmt.Fprintf(b, "\t%s: %q,\n", id.ConstName, id.Name)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "// String returns the identity name.\n")
	fmt.Fprintf(b, "func (k %s) String() string {\n", d.Name)
	fmt.Fprintf(b, "\tif k >= %s(len(%s)) {\n", d.Name, namesVar)
	fmt.Fprintf(b, "\t\treturn %q + strconv.FormatUint(uint64(k), 10) + \")\"\n", d.Name+"(")
	b.WriteString("\t}\n")
	fmt.Fprintf(b, "\treturn %s[k]\n", namesVar)
	b.WriteString("}\n\n")
}

// writeDriftGuard pins the scanned constant values. When the target
// package renumbers its constants, one of the array indexes here goes
// out of range and the build fails, forcing a regeneration.
func (ctx *fileContext) writeDriftGuard(b *strings.Builder) {
	d := &ctx.mod.Domain
	fmt.Fprintf(b, "// The target package owns %s. An \"invalid array index\" error\n", d.Name)
	b.WriteString("// here means its constants changed since generation; rerun weld.\n")
	b.WriteString("func _() {\n")
	b.WriteString("\tvar x [1]struct{}\n")
	for _, id := range d.Identities {
		fmt.Fprintf(b, "\t_ = x[%s-%d]\n", id.ConstName, id.Ordinal)
	}
	b.WriteString("}\n\n")
}

func (ctx *fileContext) writeComposite(b *strings.Builder, c *model.Composite) {
	domain := ctx.mod.Domain.Name

	fmt.Fprintf(b, "// %s welds %d elements addressed by %s. The zero value is\n", c.Name, len(c.Elements), domain)
	b.WriteString("// ready to use.\n")
	fmt.Fprintf(b, "type %s struct {\n", c.Name)
	for ei := range c.Elements {
		el := &c.Elements[ei]
		fmt.Fprintf(b, "\t%s %s\n", el.Field, el.TypeExpr)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "// %sCount is the number of elements welded into %s.\n", c.Name, c.Name)
	fmt.Fprintf(b, "const %sCount = %d\n\n", c.Name, len(c.Elements))

	ctx.writePositions(b, c)
	ctx.writeAccessors(b, c)
	for oi := range c.Ops {
		ctx.writeOp(b, c, &c.Ops[oi])
	}
}

// writePositions emits the declaration-order index type, its identity
// table, and the identity-to-position reverse lookup.
func (ctx *fileContext) writePositions(b *strings.Builder, c *model.Composite) {
	domain := ctx.mod.Domain.Name
	identsVar := naming.LcFirst(c.Name) + "Identities"

	fmt.Fprintf(b, "// %sPosition is a declaration-order index into %s.\n", c.Name, c.Name)
	fmt.Fprintf(b, "type %sPosition uint64\n\n", c.Name)

	fmt.Fprintf(b, "var %s = [%sCount]%s{\n", identsVar, c.Name, domain)
	for ei := range c.Elements {
		fmt.Fprintf(b, "\t%s,\n", c.Elements[ei].Identity.ConstName)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "// Identity returns the identity welded at position p, which must\n")
	fmt.Fprintf(b, "// be below %sCount.\n", c.Name)
	fmt.Fprintf(b, "func (p %sPosition) Identity() %s {\n", c.Name, domain)
	fmt.Fprintf(b, "\treturn %s[p]\n", identsVar)
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "// %sPositionOf returns the position id is welded at, and false\n", c.Name)
	fmt.Fprintf(b, "// when id is not part of %s.\n", c.Name)
	fmt.Fprintf(b, "func %sPositionOf(id %s) (%sPosition, bool) {\n", c.Name, domain, c.Name)
	b.WriteString("\tswitch id {\n")
	for ei := range c.Elements {
		fmt.Fprintf(b, "\tcase %s:\n", c.Elements[ei].Identity.ConstName)
		fmt.Fprintf(b, "\t\treturn %d, true\n", ei)
	}
	b.WriteString("\t}\n")
	b.WriteString("\treturn 0, false\n")
	b.WriteString("}\n\n")
}

func (ctx *fileContext) writeAccessors(b *strings.Builder, c *model.Composite) {
	for ei := range c.Elements {
		el := &c.Elements[ei]
		fmt.Fprintf(b, "// %s returns the %s element.\n", el.Accessor, el.Identity.Name)
		fmt.Fprintf(b, "func (c *%s) %s() *%s { return &c.%s }\n\n", c.Name, el.Accessor, el.TypeExpr, el.Field)
	}
	for ei := range c.Elements {
		el := &c.Elements[ei]
		fmt.Fprintf(b, "// At%d returns the element at position %d (%s).\n", ei, ei, el.Identity.Name)
		fmt.Fprintf(b, "func (c *%s) At%d() *%s { return &c.%s }\n\n", c.Name, ei, el.TypeExpr, el.Field)
	}
}

// writeOp emits one dispatch method. The selection was planned when
// the model was built; unselected elements leave no trace in the body.
func (ctx *fileContext) writeOp(b *strings.Builder, c *model.Composite, op *model.Op) {
	params := make([]string, len(op.Args))
	args := make([]string, len(op.Args))
	for i, a := range op.Args {
		params[i] = a.Name + " " + a.Type
		args[i] = a.Name
	}
	paramList := strings.Join(params, ", ")
	argList := strings.Join(args, ", ")

	switch {
	case op.Doc != "":
		fmt.Fprintf(b, "// %s %s\n", op.Method, op.Doc)
	case op.ReturnsError:
		fmt.Fprintf(b, "// %s applies %s to each selected element in declaration order\n", op.Method, op.Call)
		fmt.Fprintf(b, "// (%s) and returns the first error.\n", op.FilterDesc)
	default:
		fmt.Fprintf(b, "// %s applies %s to each selected element in declaration order\n", op.Method, op.Call)
		fmt.Fprintf(b, "// (%s).\n", op.FilterDesc)
	}
	if len(op.Selected) == 0 {
		b.WriteString("// The filter selects no elements; this is a no-op.\n")
	}

	if op.ReturnsError {
		if len(op.Selected) == 0 {
			fmt.Fprintf(b, "func (c *%s) %s(%s) error { return nil }\n\n", c.Name, op.Method, paramList)
			return
		}
		fmt.Fprintf(b, "func (c *%s) %s(%s) error {\n", c.Name, op.Method, paramList)
		for _, p := range op.Selected {
			el := c.ElementAt(p)
			fmt.Fprintf(b, "\tif err := c.%s.%s(%s); err != nil {\n", el.Field, op.Call, argList)
			b.WriteString("\t\treturn err\n")
			b.WriteString("\t}\n")
		}
		b.WriteString("\treturn nil\n")
		b.WriteString("}\n\n")
		return
	}

	if len(op.Selected) == 0 {
		fmt.Fprintf(b, "func (c *%s) %s(%s) {}\n\n", c.Name, op.Method, paramList)
		return
	}
	fmt.Fprintf(b, "func (c *%s) %s(%s) {\n", c.Name, op.Method, paramList)
	for _, p := range op.Selected {
		el := c.ElementAt(p)
		fmt.Fprintf(b, "\tc.%s.%s(%s)\n", el.Field, op.Call, argList)
	}
	b.WriteString("}\n\n")
}
