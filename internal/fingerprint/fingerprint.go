// Package fingerprint derives the layout stamp written into generated
// files. Two runs produce the same stamp exactly when the resolved
// layout agrees: domain ordinals, element order and types, labels, op
// signatures and selections. verify compares stamps without parsing Go.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/model"
)

// Compute returns the hex fingerprint of a resolved model. The layout
// is bit-packed with length-prefixed strings, 64-bit ordinals, and one
// selection bit per element per op, then hashed.
func Compute(mod *model.Model) (string, error) {
	b := funbit.NewBuilder()
	funbit.AddInteger(b, config.CodegenVersion, funbit.WithSize(8))
	addString(b, mod.Package)

	funbit.AddInteger(b, len(mod.Imports), funbit.WithSize(16))
	for _, imp := range mod.Imports {
		addString(b, imp.Path)
		addString(b, imp.Alias)
	}

	addString(b, mod.Domain.Name)
	addFlag(b, mod.Domain.External)
	funbit.AddInteger(b, len(mod.Domain.Identities), funbit.WithSize(16))
	for _, id := range mod.Domain.Identities {
		addString(b, id.Name)
		addString(b, id.ConstName)
		funbit.AddInteger(b, id.Ordinal, funbit.WithSize(64))
	}

	funbit.AddInteger(b, len(mod.Composites), funbit.WithSize(16))
	for ci := range mod.Composites {
		c := &mod.Composites[ci]
		addString(b, c.Name)

		funbit.AddInteger(b, len(c.Elements), funbit.WithSize(16))
		for ei := range c.Elements {
			el := &c.Elements[ei]
			addString(b, el.Identity.Name)
			addString(b, el.TypeExpr)
			funbit.AddInteger(b, len(el.Labels), funbit.WithSize(16))
			for _, label := range el.Labels {
				addString(b, label)
			}
		}

		funbit.AddInteger(b, len(c.Ops), funbit.WithSize(16))
		for oi := range c.Ops {
			op := &c.Ops[oi]
			addString(b, op.Name)
			addString(b, op.Call)
			addString(b, op.Doc)
			addFlag(b, op.ReturnsError)
			funbit.AddInteger(b, len(op.Args), funbit.WithSize(16))
			for _, a := range op.Args {
				addString(b, a.Name)
				addString(b, a.Type)
			}
			addMask(b, op.Selected, len(c.Elements))
		}
	}

	bits, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("encoding layout: %w", err)
	}
	sum := sha256.Sum256(bits.ToBytes())
	return hex.EncodeToString(sum[:]), nil
}

// ExtractStamp returns the fingerprint stamped into generated source,
// or false when no stamp is present.
func ExtractStamp(src []byte) (string, bool) {
	for _, raw := range strings.Split(string(src), "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "//") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if !strings.HasPrefix(line, config.FingerprintPrefix) {
			continue
		}
		stamp := strings.TrimSpace(strings.TrimPrefix(line, config.FingerprintPrefix))
		if stamp != "" {
			return stamp, true
		}
	}
	return "", false
}

// addString writes a 16-bit length prefix followed by the raw bytes.
func addString(b *funbit.Builder, s string) {
	funbit.AddInteger(b, len(s), funbit.WithSize(16))
	if len(s) > 0 {
		funbit.AddBinary(b, []byte(s))
	}
}

func addFlag(b *funbit.Builder, v bool) {
	n := 0
	if v {
		n = 1
	}
	funbit.AddInteger(b, n, funbit.WithSize(8))
}

// addMask writes one bit per position, set when the position is
// selected.
func addMask(b *funbit.Builder, selected []int, total int) {
	set := make(map[int]bool, len(selected))
	for _, p := range selected {
		set[p] = true
	}
	for p := 0; p < total; p++ {
		bit := 0
		if set[p] {
			bit = 1
		}
		funbit.AddInteger(b, bit, funbit.WithSize(1))
	}
}
