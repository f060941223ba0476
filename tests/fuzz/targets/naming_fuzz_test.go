package targets

import (
	"testing"

	"github.com/weldkit/weld/internal/naming"
)

// FuzzDerivedNames checks that every accepted manifest name derives
// non-empty, still-valid Go identifiers. Generated constants and fields
// are built from these, so a hole here becomes uncompilable output.
func FuzzDerivedNames(f *testing.F) {
	f.Add("attn_q")
	f.Add("reset_all")
	f.Add("__")
	f.Add("9lives")
	f.Add("q")
	f.Add("тип")
	f.Add("a_")
	f.Add("A_b_C")

	f.Fuzz(func(t *testing.T, s string) {
		if !naming.IsIdentifier(s) {
			return
		}
		exported := naming.Exported(s)
		if exported == "" {
			t.Fatalf("Exported(%q) = %q", s, exported)
		}
		if !naming.IsIdentifier(exported) {
			t.Errorf("Exported(%q) = %q, not an identifier", s, exported)
		}
		field := naming.Field(s)
		if field == "" {
			t.Fatalf("Field(%q) = %q", s, field)
		}
		if !naming.IsIdentifier(field) {
			t.Errorf("Field(%q) = %q, not an identifier", s, field)
		}
	})
}
