package jit

import (
	"fmt"
	"sync"

	"github.com/mathlib-go/mathlib/internal/expr"
)

// slot holds the value of a hoisted constant subexpression. It is computed
// once and read-only afterwards.
type slot struct {
	once  sync.Once
	value float64
	err   error
}

// lowerer flattens an expression tree into a Program.
type lowerer struct {
	prog  *Program
	hoist func(n *expr.Node) (*slot, error) // nil disables hoisting
	facts map[*expr.Node]facts
}

// facts are the hoisting-relevant properties of a subtree.
type facts struct {
	free   map[string]struct{} // nil when the subtree reads no variable
	opaque bool                // contains a custom function
}

// lower compiles n into a fresh program whose arguments follow vars.
func lower(n *expr.Node, vars []string, hoist func(*expr.Node) (*slot, error)) (*Program, error) {
	p := &Program{NumArgs: len(vars), NumRegs: len(vars), Vars: vars}
	regs := make(map[string]int, len(vars))
	for i, v := range vars {
		regs[v] = i
	}
	l := &lowerer{prog: p, hoist: hoist}
	if hoist != nil {
		l.facts = make(map[*expr.Node]facts)
	}
	if err := l.lower(n, regs); err != nil {
		return nil, err
	}
	return p, nil
}

// factsOf computes the facts of n bottom-up. Each distinct node is visited
// once, so shared subtrees and long operator chains stay linear.
func (l *lowerer) factsOf(n *expr.Node) facts {
	if f, ok := l.facts[n]; ok {
		return f
	}
	var f facts
	union := func(src map[string]struct{}, skip func(string) bool) {
		for v := range src {
			if skip != nil && skip(v) {
				continue
			}
			if f.free == nil {
				f.free = make(map[string]struct{}, len(src))
			}
			f.free[v] = struct{}{}
		}
	}
	switch n.Kind() {
	case expr.KindConst:
	case expr.KindVar:
		f.free = map[string]struct{}{n.Name(): {}}
	case expr.KindCustom:
		f.opaque = true
		f.free = make(map[string]struct{})
		for _, v := range n.FreeVars() {
			f.free[v] = struct{}{}
		}
	case expr.KindCompose:
		outer := l.factsOf(n.Outer())
		f.opaque = outer.opaque
		substituted := make(map[string]struct{})
		for _, s := range n.Substitutions() {
			inner := l.factsOf(s.Inner)
			f.opaque = f.opaque || inner.opaque
			substituted[s.Name] = struct{}{}
			if !n.OuterMode() {
				union(inner.free, nil)
			}
		}
		if n.OuterMode() {
			union(outer.free, nil)
		} else {
			union(outer.free, func(v string) bool {
				_, ok := substituted[v]
				return ok
			})
		}
	default:
		for _, a := range n.Args() {
			af := l.factsOf(a)
			f.opaque = f.opaque || af.opaque
			union(af.free, nil)
		}
	}
	l.facts[n] = f
	return f
}

// hoistable reports whether n is a non-leaf subexpression that evaluates to
// the same value for every input.
func (l *lowerer) hoistable(n *expr.Node) bool {
	switch n.Kind() {
	case expr.KindConst, expr.KindVar:
		return false
	}
	f := l.factsOf(n)
	return len(f.free) == 0 && !f.opaque
}

func (l *lowerer) lower(n *expr.Node, regs map[string]int) error {
	if l.hoist != nil && l.hoistable(n) {
		s, err := l.hoist(n)
		if err != nil {
			return err
		}
		l.prog.Hoisted = append(l.prog.Hoisted, s)
		l.prog.emit(OpHoisted, len(l.prog.Hoisted)-1)
		return nil
	}

	switch n.Kind() {
	case expr.KindConst:
		l.prog.emit(OpConst, l.prog.constant(n.Value()))
		return nil
	case expr.KindVar:
		r, ok := regs[n.Name()]
		if !ok {
			return &expr.Error{Op: "jit", Name: n.Name(), Details: "variable has no register", Err: expr.ErrUnknownVariable}
		}
		l.prog.emit(OpLoad, r)
		return nil
	case expr.KindCompose:
		return l.lowerCompose(n, regs)
	}

	op, ok := lowering[n.Kind()]
	if !ok {
		return &expr.Error{Op: "jit", Name: n.Name(), Details: fmt.Sprintf("no lowering for %s", n.Kind()), Err: expr.ErrUnsupportedOperator}
	}
	for _, a := range n.Args() {
		if err := l.lower(a, regs); err != nil {
			return err
		}
	}
	l.prog.emit(op, 0)
	return nil
}

// lowerCompose evaluates each substitution into a new register, then lowers
// the outer expression with its variables mapped onto those registers.
func (l *lowerer) lowerCompose(n *expr.Node, regs map[string]int) error {
	outer := n.Outer()
	if n.OuterMode() {
		return l.lower(outer, regs)
	}

	inner := make(map[string]int)
	subs := n.Substitutions()
	for _, v := range outer.FreeVars() {
		var sub *expr.Node
		for _, s := range subs {
			if s.Name == v {
				sub = s.Inner
				break
			}
		}
		if sub == nil {
			r, ok := regs[v]
			if !ok {
				return &expr.Error{Op: "jit", Name: v, Details: "unsubstituted variable has no register", Err: expr.ErrUnknownVariable}
			}
			inner[v] = r
			continue
		}
		if err := l.lower(sub, regs); err != nil {
			return err
		}
		r := l.prog.newReg()
		l.prog.emit(OpStore, r)
		inner[v] = r
	}
	return l.lower(outer, inner)
}
