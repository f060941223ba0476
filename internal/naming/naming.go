// Package naming derives Go identifiers from manifest names. Identities
// are written in snake_case in the manifest; everything generated from
// them (constants, fields, accessors) goes through here, so collisions
// are detectable before emission.
package naming

import (
	"strings"
	"unicode"
)

// goReservedWords are Go keywords plus identifiers the generated code
// claims for itself.
var goReservedWords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	"error": true, "string": true, "int": true, "uint64": true, "bool": true,
}

// IsIdentifier reports whether s is a usable manifest name: a letter
// followed by letters, digits, or underscores, and not a reserved word.
func IsIdentifier(s string) bool {
	if s == "" || goReservedWords[s] {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			continue
		}
		return false
	}
	return true
}

// Exported converts a manifest name to an exported Go identifier:
// "attn_q" becomes "AttnQ", "sampleTokens" becomes "SampleTokens".
func Exported(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(UcFirst(p))
	}
	return b.String()
}

// Field converts a manifest name to an unexported field identifier:
// "attn_q" becomes "attnQ". Reserved words get a trailing underscore.
func Field(name string) string {
	f := LcFirst(Exported(name))
	if goReservedWords[f] {
		return f + "_"
	}
	return f
}

// UcFirst uppercases the first rune of a string.
func UcFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'a' && runes[0] <= 'z' {
		runes[0] -= 32
	}
	return string(runes)
}

// LcFirst lowercases the first rune of a string.
func LcFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'A' && runes[0] <= 'Z' {
		runes[0] += 32
	}
	return string(runes)
}

// TypeQualifiers returns the package qualifiers referenced by a Go
// type expression: "map[string]io.Writer" yields ["io"]. Full syntax
// checking is left to the compiler; weld only resolves imports.
func TypeQualifiers(typeExpr string) []string {
	var quals []string
	runes := []rune(typeExpr)
	i := 0
	for i < len(runes) {
		if unicode.IsLetter(runes[i]) || runes[i] == '_' {
			j := i
			for j < len(runes) && isIdentRune(runes[j]) {
				j++
			}
			if j < len(runes) && runes[j] == '.' {
				quals = append(quals, string(runes[i:j]))
				j++
				for j < len(runes) && isIdentRune(runes[j]) {
					j++
				}
			}
			i = j
			continue
		}
		i++
	}
	return quals
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ImportAlias returns a valid Go identifier for an import path.
// Handles hyphens (go-lua -> golua), versioned tails (env/v11 -> env),
// and reserved words (go -> pkgGo).
func ImportAlias(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	if len(last) > 0 && last[0] == 'v' && len(parts) > 1 {
		allDigits := true
		for _, c := range last[1:] {
			if c < '0' || c > '9' {
				allDigits = false
				break
			}
		}
		if allDigits && len(last) > 1 {
			last = parts[len(parts)-2]
		}
	}

	alias := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)

	if alias == "" {
		alias = "pkg"
	}
	if goReservedWords[alias] {
		alias = "pkg" + UcFirst(alias)
	}
	return alias
}
