package generators

import (
	"fmt"
	"math/rand"
	"strings"
)

// RandomSource abstracts the source of randomness.
type RandomSource interface {
	Intn(n int) int
}

// RandSource wraps math/rand.
type RandSource struct {
	*rand.Rand
}

// ByteSource uses a byte slice as a source of randomness, so fuzz
// input steers the shape of the generated manifest.
type ByteSource struct {
	data []byte
	pos  int
}

func (s *ByteSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	if s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// Generator builds random manifests. The output is always well-formed
// YAML; the semantics are frequently wrong on purpose, steering runs
// into the validator's edge cases.
type Generator struct {
	src RandomSource
}

func New(seed int64) *Generator {
	return &Generator{src: &RandSource{rand.New(rand.NewSource(seed))}}
}

func NewFromData(data []byte) *Generator {
	return &Generator{src: &ByteSource{data: data}}
}

var (
	packageNames   = []string{"demo", "layers", "demo", "bad-name", ""}
	domainNames    = []string{"CoreKind", "Kind", "LayerKind"}
	identityPool   = []string{"attn_q", "attn_k", "attn_v", "ffn_gate", "out_proj", "norm", "embed"}
	typePool       = []string{"QProj", "KProj", "VProj", "GateFFN", "Norm", "Embed"}
	labelPool      = []string{"trainable", "cached", "attention", "ffn"}
	compositeNames = []string{"Stack", "Probe", "Grid"}
	opNamePool     = []string{"reset_all", "boost", "save", "touch", "sweep"}
	callPool       = []string{"Reset", "Boost", "WriteTo", "Touch", "Sweep"}
	argTypePool    = []string{"int", "float64", "string", "[]byte"}
	exprPool       = []string{
		"position % 2 == 0",
		"ordinal > 1",
		"identity ~= \"attn_q\"",
		"labels.trainable == true",
		"typename == \"QProj\"",
		"position >",
		"nonsense(",
	}
)

func (g *Generator) pick(pool []string) string {
	return pool[g.src.Intn(len(pool))]
}

// chance returns true roughly once in n calls.
func (g *Generator) chance(n int) bool {
	return g.src.Intn(n) == 0
}

// GenerateManifest produces one manifest document.
func (g *Generator) GenerateManifest() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "package: %s\n", g.pick(packageNames))
	if g.chance(5) {
		sb.WriteString("output: custom_weld.txt\n")
	}
	sb.WriteString("scan:\n  disabled: true\n")

	ids := g.identityList()
	fmt.Fprintf(&sb, "domain:\n  name: %s\n", g.pick(domainNames))
	fmt.Fprintf(&sb, "  identities: [%s]\n", strings.Join(ids, ", "))

	sb.WriteString("composites:\n")
	count := g.src.Intn(3) + 1
	for i := 0; i < count; i++ {
		g.writeComposite(&sb, ids)
	}
	return sb.String()
}

// identityList draws 1 to 5 identities, occasionally repeating one or
// slipping in an invalid name.
func (g *Generator) identityList() []string {
	count := g.src.Intn(5) + 1
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := g.pick(identityPool)
		if g.chance(8) {
			id = "9bad"
		}
		ids = append(ids, id)
	}
	if g.chance(6) && len(ids) > 1 {
		ids[len(ids)-1] = ids[0]
	}
	return ids
}

func (g *Generator) writeComposite(sb *strings.Builder, ids []string) {
	fmt.Fprintf(sb, "  - name: %s\n", g.pick(compositeNames))

	elements := g.src.Intn(4)
	if elements == 0 && !g.chance(4) {
		elements = 1
	}
	if elements > 0 {
		sb.WriteString("    elements:\n")
	}
	for i := 0; i < elements; i++ {
		id := g.pick(ids)
		if g.chance(7) {
			id = "ghost"
		}
		fmt.Fprintf(sb, "      - identity: %s\n", id)
		fmt.Fprintf(sb, "        type: %s\n", g.pick(typePool))
		if g.chance(2) {
			fmt.Fprintf(sb, "        labels: [%s]\n", g.pick(labelPool))
		}
	}

	ops := g.src.Intn(3)
	if ops > 0 {
		sb.WriteString("    ops:\n")
	}
	for i := 0; i < ops; i++ {
		g.writeOp(sb, ids)
	}
}

func (g *Generator) writeOp(sb *strings.Builder, ids []string) {
	fmt.Fprintf(sb, "      - name: %s\n", g.pick(opNamePool))
	if g.chance(2) {
		fmt.Fprintf(sb, "        call: %s\n", g.pick(callPool))
	}
	if g.chance(3) {
		sb.WriteString("        returns: error\n")
	}
	if g.chance(3) {
		sb.WriteString("        args:\n")
		fmt.Fprintf(sb, "          - {name: x, type: %q}\n", g.pick(argTypePool))
	}
	if !g.chance(2) {
		return
	}

	sb.WriteString("        filter:\n")
	switch g.src.Intn(5) {
	case 0:
		fmt.Fprintf(sb, "          identities: [%s]\n", g.pick(ids))
	case 1:
		fmt.Fprintf(sb, "          exclude: [%s]\n", g.pick(ids))
	case 2:
		fmt.Fprintf(sb, "          labels: [%s]\n", g.pick(labelPool))
	case 3:
		fmt.Fprintf(sb, "          positions: [%d]\n", g.src.Intn(6))
	case 4:
		fmt.Fprintf(sb, "          expr: %q\n", g.pick(exprPool))
	}
}
