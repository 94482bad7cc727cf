package expr

import (
	"fmt"

	"github.com/mathlib-go/mathlib/internal/binding"
)

// scope resolves variable values during interpretation.
type scope interface {
	lookup(name string) (float64, error)
}

// argScope resolves names through a binding's slots.
type argScope struct {
	b    *binding.Binding
	args []float64
}

func (s argScope) lookup(name string) (float64, error) {
	i, err := s.b.SlotOf(name)
	if err != nil {
		return 0, err
	}
	return s.args[i], nil
}

// frameScope holds the outer variable values inside a composition.
type frameScope struct {
	names []string
	vals  []float64
}

func (s frameScope) lookup(name string) (float64, error) {
	for i, n := range s.names {
		if n == name {
			return s.vals[i], nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}

// Apply evaluates n with positional arguments laid out as n.Variables().
// Floating point exceptional values (NaN, ±Inf) are results, not errors.
func (n *Node) Apply(args ...float64) (float64, error) {
	if err := n.binding.Check(args); err != nil {
		return 0, err
	}
	return n.eval(argScope{b: n.binding, args: args})
}

// ApplyNamed evaluates n with values given by variable name. Names that are
// not part of the layout are ignored.
func (n *Node) ApplyNamed(values map[string]float64) (float64, error) {
	args, err := n.binding.Resolve(values)
	if err != nil {
		return 0, err
	}
	return n.Apply(args...)
}

// MustApply is like Apply but panics on error.
func (n *Node) MustApply(args ...float64) float64 {
	v, err := n.Apply(args...)
	if err != nil {
		panic(err)
	}
	return v
}

func (n *Node) eval(s scope) (float64, error) {
	switch n.kind {
	case KindConst:
		return n.value, nil
	case KindVar:
		return s.lookup(n.name)
	case KindCompose:
		return n.evalCompose(s)
	case KindCustom:
		vals := make([]float64, len(n.custom.vars))
		for i, v := range n.custom.vars {
			x, err := s.lookup(v)
			if err != nil {
				return 0, err
			}
			vals[i] = x
		}
		return n.custom.eval(vals), nil
	}

	op := &ops[n.kind]
	a, err := n.args[0].eval(s)
	if err != nil {
		return 0, err
	}
	if op.arity == 1 {
		return op.unary(a), nil
	}
	b, err := n.args[1].eval(s)
	if err != nil {
		return 0, err
	}
	return op.binary(a, b), nil
}

func (n *Node) evalCompose(s scope) (float64, error) {
	outer := n.args[0]
	if n.outer {
		return outer.eval(s)
	}
	frame := frameScope{names: outer.FreeVars()}
	frame.vals = make([]float64, len(frame.names))
	for i, name := range frame.names {
		var (
			v   float64
			err error
		)
		if sub := n.substitution(name); sub != nil {
			v, err = sub.eval(s)
		} else {
			v, err = s.lookup(name)
		}
		if err != nil {
			return 0, err
		}
		frame.vals[i] = v
	}
	return outer.eval(frame)
}
