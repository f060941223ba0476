// Package predicate evaluates op filter expressions at generation time.
// Expressions are Lua, with the element under test exposed as globals;
// whatever the expression returns is taken by Lua truthiness. Nothing
// of this survives into generated code: a predicate that selects an
// element contributes a call, one that rejects it contributes nothing.
package predicate

import (
	"fmt"

	lua "github.com/Shopify/go-lua"
)

// Env is the evaluation scope for one element.
type Env struct {
	// Ordinal is the identity's numeric value in the domain.
	Ordinal uint64

	// Position is the element's declaration position in the composite.
	Position int

	// Identity is the manifest spelling of the element's identity.
	Identity string

	// TypeName is the element's Go type as written in the manifest.
	TypeName string

	// Labels are the element's labels, exposed as a set-like table
	// (labels.trainable == true).
	Labels []string
}

// Eval runs expr against env and reports whether the element is
// selected. A syntax or runtime failure returns an error carrying Lua's
// message; callers turn it into a positioned diagnostic.
func Eval(expr string, env Env) (bool, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	l.PushInteger(int(env.Ordinal))
	l.SetGlobal("ordinal")
	l.PushInteger(env.Position)
	l.SetGlobal("position")
	l.PushString(env.Identity)
	l.SetGlobal("identity")
	l.PushString(env.TypeName)
	l.SetGlobal("typename")

	l.NewTable()
	for _, label := range env.Labels {
		l.PushBoolean(true)
		l.SetField(-2, label)
	}
	l.SetGlobal("labels")

	if err := lua.DoString(l, "return ("+expr+")"); err != nil {
		return false, fmt.Errorf("%v", err)
	}
	selected := l.ToBoolean(-1)
	l.Pop(1)
	return selected, nil
}
