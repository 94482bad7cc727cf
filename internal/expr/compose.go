package expr

import (
	"slices"
)

// Compose substitutes inner expressions for variables of outer.
//
// Every key of subs must name a variable of outer's binding. The composite's
// argument layout is the free variables of the substitutions (in outer
// binding order) followed by the outer variables left unsubstituted; its
// scope also keeps the outer names so that Restrict can switch it to outer
// mode.
func Compose(outer *Node, subs map[string]*Node) (*Node, error) {
	if outer == nil {
		return nil, &Error{Op: "compose", Details: "nil outer expression", Err: ErrInconsistentBinding}
	}
	names := outer.binding.Names()
	for name, inner := range subs {
		if inner == nil {
			return nil, &Error{Op: "compose", Name: name, Details: "nil inner expression", Err: ErrInconsistentBinding}
		}
		if !slices.Contains(names, name) {
			return nil, &Error{
				Op:      "compose",
				Name:    name,
				Details: "not a variable of the outer expression " + outer.binding.String(),
				Err:     ErrInconsistentBinding,
			}
		}
	}
	ordered := make([]Substitution, 0, len(subs))
	for _, name := range names {
		if inner, ok := subs[name]; ok {
			ordered = append(ordered, Substitution{Name: name, Inner: inner})
		}
	}
	return composite(outer, ordered), nil
}

// composite builds an inner-mode composition node with a fresh binding.
func composite(outer *Node, subs []Substitution) *Node {
	n := &Node{kind: KindCompose, args: []*Node{outer}, subs: subs}
	active := n.FreeVars()

	scope := outer.binding
	for _, s := range subs {
		scope = scope.Merge(s.Inner.binding)
	}
	b, err := scope.Extend(active...).Restrict(active...)
	if err != nil {
		// Every active name is in scope by construction.
		panic(err)
	}
	n.binding = b
	return n
}

// substitution returns the inner expression bound to an outer variable.
func (n *Node) substitution(name string) *Node {
	for _, s := range n.subs {
		if s.Name == name {
			return s.Inner
		}
	}
	return nil
}

// innerFree reports whether v is free in any substitution.
func (n *Node) innerFree(v string) bool {
	for _, s := range n.subs {
		if slices.Contains(s.Inner.FreeVars(), v) {
			return true
		}
	}
	return false
}

func (n *Node) restrictComposite(names []string) (*Node, error) {
	outer := n.args[0]
	toOuter := false
	for _, v := range names {
		if n.substitution(v) != nil {
			toOuter = true
			break
		}
	}
	if !toOuter {
		for _, v := range names {
			if !n.binding.Contains(v) {
				return nil, &Error{Op: "restrict", Name: v, Details: "not in scope", Err: ErrUnknownVariable}
			}
		}
		inner := n.copyMode(false)
		if err := inner.checkCovers("restrict", names); err != nil {
			return nil, err
		}
		b, err := n.binding.Restrict(names...)
		if err != nil {
			return nil, err
		}
		return inner.withBinding(b), nil
	}

	for _, v := range names {
		if !outer.binding.Contains(v) {
			return nil, &Error{
				Op:      "restrict",
				Name:    v,
				Details: "outer-mode layout mixes inner and outer variables",
				Err:     ErrInconsistentBinding,
			}
		}
	}
	cp := n.copyMode(true)
	if err := cp.checkCovers("restrict", names); err != nil {
		return nil, err
	}
	b, err := n.binding.Restrict(names...)
	if err != nil {
		return nil, err
	}
	return cp.withBinding(b), nil
}

// diffCompose applies the multivariable chain rule:
//
//	d/dv outer(h_1..h_k, w..) = sum_u outer_u(h) * dh_u/dv + outer_v(h)
//
// where the last term exists only when v is an unsubstituted outer variable.
// In outer mode, derivatives with respect to outer variables that no
// substitution depends on are the outer partials themselves.
func (n *Node) diffCompose(v string, d func(*Node, string) *Node) *Node {
	outer := n.args[0]
	if n.outer && outer.binding.Contains(v) && !n.innerFree(v) {
		return d(outer, v)
	}

	// Composed partials keep the composite's mode and layout.
	wrap := func(partial *Node) *Node {
		c := composite(partial.inLayout(outer.binding), n.subs)
		if n.outer {
			layout := n.binding.Active()
			b, err := c.binding.Extend(layout...).Restrict(layout...)
			if err != nil {
				panic(err)
			}
			c = c.copyMode(true).withBinding(b)
		}
		return c
	}

	var terms []*Node
	for _, s := range n.subs {
		if !slices.Contains(s.Inner.FreeVars(), v) {
			continue
		}
		terms = append(terms, Mul(wrap(d(outer, s.Name)), d(s.Inner, v)))
	}
	if n.substitution(v) == nil && slices.Contains(outer.FreeVars(), v) {
		terms = append(terms, wrap(d(outer, v)))
	}
	if len(terms) == 0 {
		return Const(0)
	}
	return Sum(terms...)
}
