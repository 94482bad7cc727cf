package expr

import (
	"github.com/mathlib-go/mathlib/internal/binding"
)

// customFunc is an opaque function of named variables.
type customFunc struct {
	vars     []string
	eval     func(args []float64) float64
	partials map[string]*Node
}

// Custom returns an opaque function node. eval receives the values of vars in
// order; partials gives the symbolic derivative with respect to each variable
// it depends on (a missing entry means the derivative is zero).
//
// Custom nodes are interpreted only: the JIT reports ErrUnsupportedOperator
// for any tree containing one, and callers fall back to the interpreter.
func Custom(name string, vars []string, eval func(args []float64) float64, partials map[string]*Node) (*Node, error) {
	b, err := binding.Bind(vars...)
	if err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, &Error{Op: "custom", Name: name, Details: "nil evaluation function", Err: ErrInconsistentBinding}
	}
	p := make(map[string]*Node, len(partials))
	for v, d := range partials {
		if !b.Contains(v) {
			return nil, &Error{Op: "custom", Name: v, Details: "partial for a variable not in " + b.String(), Err: ErrUnknownVariable}
		}
		p[v] = d
	}
	return &Node{
		kind:    KindCustom,
		name:    name,
		custom:  &customFunc{vars: b.Active(), eval: eval, partials: p},
		binding: b,
	}, nil
}
