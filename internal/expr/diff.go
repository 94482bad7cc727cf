package expr

// Diff returns the exact symbolic derivative of n with respect to v.
//
// The result is not simplified (x*1 stays x*1). It is laid out like n, so it
// accepts the same positional arguments; free variables n does not expose
// (possible for outer-mode compositions) are appended to the layout.
//
// Diff fails with ErrUnknownVariable when v is not a name of any binding
// reachable from n.
func Diff(n *Node, v string) (*Node, error) {
	if _, ok := n.reachableNames()[v]; !ok {
		return nil, &Error{Op: "diff", Name: v, Details: "not bound in " + n.String(), Err: ErrUnknownVariable}
	}
	return derive(n, v).inLayout(n.binding), nil
}

// MustDiff is like Diff but panics on error.
func MustDiff(n *Node, v string) *Node {
	d, err := Diff(n, v)
	if err != nil {
		panic(err)
	}
	return d
}

// Diff is the method form of Diff.
func (n *Node) Diff(v string) (*Node, error) {
	return Diff(n, v)
}

// Gradient returns the derivatives of n with respect to each name.
func Gradient(n *Node, names ...string) ([]*Node, error) {
	out := make([]*Node, len(names))
	for i, v := range names {
		d, err := Diff(n, v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func derive(n *Node, v string) *Node {
	switch n.kind {
	case KindConst:
		return Const(0)
	case KindVar:
		if n.name == v {
			return Const(1)
		}
		if c, ok := n.binding.DependentDerivative(n.name, v); ok {
			return Const(c)
		}
		return Const(0)
	case KindCompose:
		return n.diffCompose(v, derive)
	case KindCustom:
		if p, ok := n.custom.partials[v]; ok {
			return p
		}
		return Const(0)
	}
	return ops[n.kind].diff(n, func(m *Node) *Node { return derive(m, v) })
}
