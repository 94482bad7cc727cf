// Package expr implements symbolic scalar functions of named real variables.
//
// An expression is a tree of immutable *Node values. Leaves are constants and
// variables; inner nodes are unary and binary operators, compositions that
// substitute inner expressions for an outer expression's variables, and
// opaque custom functions. Every node carries a *binding.Binding describing
// its positional argument layout.
//
// Supported operations:
//   - Construction: Const, Var, Add, Mul, Sqrt, ... (no evaluation, no folding)
//   - Evaluation: Apply (positional) and ApplyNamed
//   - Differentiation: Diff (exact symbolic rewrite)
//   - Composition: Compose (chain rule for derivatives)
//
// Nodes are safe for concurrent use: nothing on a node is ever mutated after
// construction.
package expr

import (
	"fmt"
	"slices"

	"github.com/mathlib-go/mathlib/internal/binding"
)

// Kind identifies the variant of a Node.
type Kind uint8

// Node kinds.
const (
	KindConst Kind = iota
	KindVar

	KindNeg
	KindAbs
	KindSqrt
	KindSin
	KindCos
	KindTan
	KindAsin
	KindAcos
	KindAtan
	KindSinh
	KindCosh
	KindTanh
	KindExp
	KindLog

	KindAdd
	KindSub
	KindMul
	KindDiv
	KindPow

	KindCompose
	KindCustom

	numKinds
)

// String returns the operator name of the kind.
func (k Kind) String() string {
	if k < numKinds && ops[k].name != "" {
		return ops[k].name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsUnary reports whether k is a one-operand operator.
func (k Kind) IsUnary() bool {
	return k < numKinds && ops[k].arity == 1
}

// IsBinary reports whether k is a two-operand operator.
func (k Kind) IsBinary() bool {
	return k < numKinds && ops[k].arity == 2
}

// Node is one element of an expression tree. The zero value is not usable;
// build nodes with the constructors in this package.
type Node struct {
	kind    Kind
	value   float64 // KindConst
	name    string  // KindVar, KindCustom
	args    []*Node // operands; for KindCompose args[0] is the outer expression
	subs    []Substitution
	custom  *customFunc
	binding *binding.Binding
	// outer marks a composition evaluated directly on the outer variables.
	outer bool
}

// Substitution binds an outer variable to an inner expression.
type Substitution struct {
	Name  string
	Inner *Node
}

// Const returns a constant leaf.
func Const(v float64) *Node {
	return &Node{kind: KindConst, value: v, binding: binding.Empty()}
}

// Var returns a variable leaf bound to a single slot.
func Var(name string) *Node {
	return &Node{kind: KindVar, name: name, binding: binding.MustBind(name)}
}

// VarIn returns a variable leaf that uses b as its binding. The variable takes
// part in b's dependent declarations, and its argument layout is b's layout.
func VarIn(name string, b *binding.Binding) (*Node, error) {
	if !b.Contains(name) {
		return nil, &Error{Op: "var", Name: name, Details: "not in binding " + b.String(), Err: ErrUnknownVariable}
	}
	return &Node{kind: KindVar, name: name, binding: b}, nil
}

// Vars returns one variable leaf per name, all sharing the binding of names.
func Vars(names ...string) ([]*Node, error) {
	b, err := binding.Bind(names...)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, len(names))
	for i, n := range names {
		out[i] = &Node{kind: KindVar, name: n, binding: b}
	}
	return out, nil
}

// Lift promotes a numeric literal to a constant node. A *Node is returned as
// is. Any other type panics.
func Lift(v any) *Node {
	switch x := v.(type) {
	case *Node:
		return x
	case float64:
		return Const(x)
	case float32:
		return Const(float64(x))
	case int:
		return Const(float64(x))
	case int32:
		return Const(float64(x))
	case int64:
		return Const(float64(x))
	default:
		panic(fmt.Sprintf("expr: cannot lift %T to an expression", v))
	}
}

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Value returns the value of a constant node.
func (n *Node) Value() float64 { return n.value }

// Name returns the variable name of a KindVar node or the function name of a
// KindCustom node.
func (n *Node) Name() string { return n.name }

// Binding returns the node's binding.
func (n *Node) Binding() *binding.Binding { return n.binding }

// Args returns the operands. For a composition this is the outer expression.
func (n *Node) Args() []*Node { return slices.Clone(n.args) }

// Children returns every direct subexpression: the operands, followed by the
// substituted inner expressions of a composition.
func (n *Node) Children() []*Node {
	out := slices.Clone(n.args)
	for _, s := range n.subs {
		out = append(out, s.Inner)
	}
	return out
}

// Outer returns the outer expression of a composition.
func (n *Node) Outer() *Node {
	if n.kind != KindCompose {
		return nil
	}
	return n.args[0]
}

// Substitutions returns the substitutions of a composition, in the outer
// binding's order.
func (n *Node) Substitutions() []Substitution { return slices.Clone(n.subs) }

// OuterMode reports whether a composition evaluates on its outer variables.
func (n *Node) OuterMode() bool { return n.outer }

// IsConst reports whether n is a constant leaf.
func (n *Node) IsConst() bool { return n.kind == KindConst }

// Variables returns the positional argument layout.
func (n *Node) Variables() []string { return n.binding.Active() }

// FreeVars returns the variables the value of n actually depends on, in
// first-appearance order.
func (n *Node) FreeVars() []string {
	var out []string
	n.collectFree(&out)
	return out
}

func (n *Node) collectFree(out *[]string) {
	add := func(name string) {
		if !slices.Contains(*out, name) {
			*out = append(*out, name)
		}
	}
	switch n.kind {
	case KindConst:
	case KindVar:
		add(n.name)
	case KindCustom:
		for _, v := range n.custom.vars {
			add(v)
		}
	case KindCompose:
		if n.outer {
			n.args[0].collectFree(out)
			return
		}
		for _, s := range n.subs {
			s.Inner.collectFree(out)
		}
		for _, v := range n.args[0].FreeVars() {
			if n.substitution(v) == nil {
				add(v)
			}
		}
	default:
		for _, a := range n.args {
			a.collectFree(out)
		}
	}
}

// reachableNames returns every variable name of every binding in the tree.
func (n *Node) reachableNames() map[string]struct{} {
	seen := make(map[string]struct{})
	var walk func(*Node)
	walk = func(m *Node) {
		for _, v := range m.binding.Names() {
			seen[v] = struct{}{}
		}
		for _, a := range m.args {
			walk(a)
		}
		for _, s := range m.subs {
			walk(s.Inner)
		}
	}
	walk(n)
	return seen
}

// Opaque reports whether the tree contains a custom function.
func (n *Node) Opaque() bool {
	if n.kind == KindCustom {
		return true
	}
	for _, a := range n.args {
		if a.Opaque() {
			return true
		}
	}
	for _, s := range n.subs {
		if s.Inner.Opaque() {
			return true
		}
	}
	return false
}

// withBinding returns a shallow copy of n using b.
func (n *Node) withBinding(b *binding.Binding) *Node {
	if b == n.binding {
		return n
	}
	cp := *n
	cp.binding = b
	return &cp
}

// inLayout returns n with b's layout first, followed by the free variables
// of n that b does not expose. Names that are merely in scope in n stay out of
// the layout.
func (n *Node) inLayout(b *binding.Binding) *Node {
	layout := b.Active()
	for _, v := range n.FreeVars() {
		if !slices.Contains(layout, v) {
			layout = append(layout, v)
		}
	}
	nb, err := b.Merge(n.binding).Extend(layout...).Restrict(layout...)
	if err != nil {
		// layout has no duplicates and every name is in the merged scope.
		panic(err)
	}
	return n.withBinding(nb)
}

// Rebind returns n with the argument layout names. The names must include
// every free variable; extra names are accepted and ignored by evaluation.
func (n *Node) Rebind(names ...string) (*Node, error) {
	if err := n.checkCovers("rebind", names); err != nil {
		return nil, err
	}
	b, err := n.binding.Extend(names...).Restrict(names...)
	if err != nil {
		return nil, err
	}
	return n.withBinding(b), nil
}

// Restrict returns n exposing only the given names as arguments.
//
// On a composition, naming a substituted outer variable switches the result
// to outer mode: arguments are then the outer expression's variables and the
// substitutions are bypassed for evaluation, while derivatives with respect
// to inner variables still follow the chain rule.
func (n *Node) Restrict(names ...string) (*Node, error) {
	if n.kind == KindCompose {
		return n.restrictComposite(names)
	}
	for _, v := range names {
		if !n.binding.Contains(v) {
			return nil, &Error{Op: "restrict", Name: v, Details: "not in scope", Err: ErrUnknownVariable}
		}
	}
	if err := n.checkCovers("restrict", names); err != nil {
		return nil, err
	}
	b, err := n.binding.Restrict(names...)
	if err != nil {
		return nil, err
	}
	return n.withBinding(b), nil
}

func (n *Node) checkCovers(op string, names []string) error {
	for _, v := range n.FreeVars() {
		if !slices.Contains(names, v) {
			return &Error{Op: op, Name: v, Details: "free variable missing from layout", Err: ErrInconsistentBinding}
		}
	}
	return nil
}

func (n *Node) copyMode(outer bool) *Node {
	cp := *n
	cp.outer = outer
	return &cp
}
