package expr

import "math"

// opInfo is one row of the operator dispatch table.
//
// Adding an operator means adding a Kind and one table row: its name, arity,
// float64 evaluation and symbolic derivative. The JIT keeps its own lowering
// table keyed by the same Kind.
type opInfo struct {
	name   string
	arity  int
	prec   int // printing precedence of the operator
	unary  func(x float64) float64
	binary func(a, b float64) float64
	// diff returns d(n)/dv given a derivative function for operands.
	diff func(n *Node, d func(*Node) *Node) *Node
}

// Printing precedences.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

var ops [numKinds]opInfo

func init() {
	ops = [numKinds]opInfo{
		KindConst: {name: "const", prec: precAtom},
		KindVar:   {name: "var", prec: precAtom},

		KindNeg: {name: "neg", arity: 1, prec: precNeg,
			unary: func(x float64) float64 { return -x },
			// -g => -(g')
			diff: func(n *Node, d func(*Node) *Node) *Node {
				return Neg(d(n.args[0]))
			}},
		KindAbs: {name: "abs", arity: 1, prec: precAtom, unary: math.Abs,
			// abs(g) => g*g'/abs(g); NaN where g == 0
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(Mul(g, d(g)), n)
			}},
		KindSqrt: {name: "sqrt", arity: 1, prec: precAtom, unary: math.Sqrt,
			// sqrt(g) => 0.5*g^(-0.5)*g'
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Mul(Mul(Const(0.5), Pow(g, Const(-0.5))), d(g))
			}},
		KindSin: {name: "sin", arity: 1, prec: precAtom, unary: math.Sin,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Mul(Cos(g), d(g))
			}},
		KindCos: {name: "cos", arity: 1, prec: precAtom, unary: math.Cos,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Mul(Neg(Sin(g)), d(g))
			}},
		KindTan: {name: "tan", arity: 1, prec: precAtom, unary: math.Tan,
			// tan(g) => g'/cos(g)^2
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(d(g), Mul(Cos(g), Cos(g)))
			}},
		KindAsin: {name: "asin", arity: 1, prec: precAtom, unary: math.Asin,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(d(g), Sqrt(Sub(Const(1), Mul(g, g))))
			}},
		KindAcos: {name: "acos", arity: 1, prec: precAtom, unary: math.Acos,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Neg(Div(d(g), Sqrt(Sub(Const(1), Mul(g, g)))))
			}},
		KindAtan: {name: "atan", arity: 1, prec: precAtom, unary: math.Atan,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(d(g), Add(Const(1), Mul(g, g)))
			}},
		KindSinh: {name: "sinh", arity: 1, prec: precAtom, unary: math.Sinh,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Mul(Cosh(g), d(g))
			}},
		KindCosh: {name: "cosh", arity: 1, prec: precAtom, unary: math.Cosh,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Mul(Sinh(g), d(g))
			}},
		KindTanh: {name: "tanh", arity: 1, prec: precAtom, unary: math.Tanh,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(d(g), Mul(Cosh(g), Cosh(g)))
			}},
		KindExp: {name: "exp", arity: 1, prec: precAtom, unary: math.Exp,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				return Mul(n, d(n.args[0]))
			}},
		KindLog: {name: "log", arity: 1, prec: precAtom, unary: math.Log,
			diff: func(n *Node, d func(*Node) *Node) *Node {
				g := n.args[0]
				return Div(d(g), g)
			}},

		KindAdd: {name: "+", arity: 2, prec: precAdd,
			binary: func(a, b float64) float64 { return a + b },
			diff: func(n *Node, d func(*Node) *Node) *Node {
				return Add(d(n.args[0]), d(n.args[1]))
			}},
		KindSub: {name: "-", arity: 2, prec: precAdd,
			binary: func(a, b float64) float64 { return a - b },
			diff: func(n *Node, d func(*Node) *Node) *Node {
				return Sub(d(n.args[0]), d(n.args[1]))
			}},
		KindMul: {name: "*", arity: 2, prec: precMul,
			binary: func(a, b float64) float64 { return a * b },
			// f*g => f*g' + g*f'
			diff: func(n *Node, d func(*Node) *Node) *Node {
				f, g := n.args[0], n.args[1]
				return Add(Mul(f, d(g)), Mul(g, d(f)))
			}},
		KindDiv: {name: "/", arity: 2, prec: precMul,
			binary: func(a, b float64) float64 { return a / b },
			// f/g => (f'*g - f*g')/(g*g)
			diff: func(n *Node, d func(*Node) *Node) *Node {
				f, g := n.args[0], n.args[1]
				return Div(Sub(Mul(d(f), g), Mul(f, d(g))), Mul(g, g))
			}},
		KindPow: {name: "^", arity: 2, prec: precPow, binary: math.Pow,
			diff: diffPow},

		KindCompose: {name: "compose", prec: precAtom},
		KindCustom:  {name: "custom", prec: precAtom},
	}
}

// diffPow differentiates f^g. A constant exponent uses the power rule;
// otherwise f^g * (g'*log(f) + g*f'/f).
func diffPow(n *Node, d func(*Node) *Node) *Node {
	f, g := n.args[0], n.args[1]
	if g.kind == KindConst {
		return Mul(Mul(Const(g.value), Pow(f, Const(g.value-1))), d(f))
	}
	return Mul(n, Add(Mul(d(g), Log(f)), Div(Mul(g, d(f)), f)))
}

func unary(k Kind, g *Node) *Node {
	return &Node{kind: k, args: []*Node{g}, binding: g.binding}
}

func binary(k Kind, f, g *Node) *Node {
	return &Node{kind: k, args: []*Node{f, g}, binding: f.binding.Merge(g.binding)}
}

// Add returns f + g.
func Add(f, g *Node) *Node { return binary(KindAdd, f, g) }

// Sub returns f - g.
func Sub(f, g *Node) *Node { return binary(KindSub, f, g) }

// Mul returns f * g.
func Mul(f, g *Node) *Node { return binary(KindMul, f, g) }

// Div returns f / g.
func Div(f, g *Node) *Node { return binary(KindDiv, f, g) }

// Pow returns f ^ g.
func Pow(f, g *Node) *Node { return binary(KindPow, f, g) }

// Sum returns the left-nested sum of terms, or Const(0) for no terms.
func Sum(terms ...*Node) *Node {
	if len(terms) == 0 {
		return Const(0)
	}
	s := terms[0]
	for _, t := range terms[1:] {
		s = Add(s, t)
	}
	return s
}

// Unary functions.
func Neg(g *Node) *Node  { return unary(KindNeg, g) }
func Abs(g *Node) *Node  { return unary(KindAbs, g) }
func Sqrt(g *Node) *Node { return unary(KindSqrt, g) }
func Sin(g *Node) *Node  { return unary(KindSin, g) }
func Cos(g *Node) *Node  { return unary(KindCos, g) }
func Tan(g *Node) *Node  { return unary(KindTan, g) }
func Asin(g *Node) *Node { return unary(KindAsin, g) }
func Acos(g *Node) *Node { return unary(KindAcos, g) }
func Atan(g *Node) *Node { return unary(KindAtan, g) }
func Sinh(g *Node) *Node { return unary(KindSinh, g) }
func Cosh(g *Node) *Node { return unary(KindCosh, g) }
func Tanh(g *Node) *Node { return unary(KindTanh, g) }
func Exp(g *Node) *Node  { return unary(KindExp, g) }
func Log(g *Node) *Node  { return unary(KindLog, g) }

// UnaryByName returns the unary constructor for a function name such as
// "sqrt" or "sin".
func UnaryByName(name string) (func(*Node) *Node, bool) {
	for k := KindNeg; k <= KindLog; k++ {
		if ops[k].name == name {
			kind := k
			return func(g *Node) *Node { return unary(kind, g) }, true
		}
	}
	return nil, false
}

// Method forms. Operands may be *Node or numeric literals.

// Add returns n + x.
func (n *Node) Add(x any) *Node { return Add(n, Lift(x)) }

// Sub returns n - x.
func (n *Node) Sub(x any) *Node { return Sub(n, Lift(x)) }

// Mul returns n * x.
func (n *Node) Mul(x any) *Node { return Mul(n, Lift(x)) }

// Div returns n / x.
func (n *Node) Div(x any) *Node { return Div(n, Lift(x)) }

// Pow returns n ^ x.
func (n *Node) Pow(x any) *Node { return Pow(n, Lift(x)) }

// Neg returns -n.
func (n *Node) Neg() *Node { return Neg(n) }

// UnaryFunc returns the float64 function of a unary kind.
func (k Kind) UnaryFunc() func(float64) float64 {
	if k >= numKinds {
		return nil
	}
	return ops[k].unary
}

// BinaryFunc returns the float64 function of a binary kind.
func (k Kind) BinaryFunc() func(a, b float64) float64 {
	if k >= numKinds {
		return nil
	}
	return ops[k].binary
}
