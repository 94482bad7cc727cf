package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	epsilonGrad = 1e-6
	tolerance   = 1e-9
)

// numericalDerivative estimates d(f)/d(args[i]) with central differences.
func numericalDerivative(t *testing.T, f *Node, i int, args []float64) float64 {
	t.Helper()
	x := append([]float64(nil), args...)
	orig := x[i]

	x[i] = orig + epsilonGrad
	fPlus, err := f.Apply(x...)
	require.NoError(t, err)

	x[i] = orig - epsilonGrad
	fMinus, err := f.Apply(x...)
	require.NoError(t, err)

	return (fPlus - fMinus) / (2 * epsilonGrad)
}

func TestScenario_SqrtAndAbs(t *testing.T) {
	x := Var("x")

	f := Sqrt(x)
	assert.Equal(t, 2.0, f.MustApply(4))
	df := MustDiff(f, "x")
	assert.Equal(t, 0.25, df.MustApply(4))

	g := Abs(x)
	assert.Equal(t, 3.0, g.MustApply(3))
	assert.Equal(t, 3.0, g.MustApply(-3))

	dg := MustDiff(g, "x")
	assert.Equal(t, 1.0, dg.MustApply(3))
	assert.Equal(t, -1.0, dg.MustApply(-3))
	assert.True(t, math.IsNaN(dg.MustApply(0)), "abs' at 0 is 0/0")
}

func TestIEEESemantics(t *testing.T) {
	x := Var("x")

	assert.True(t, math.IsInf(Div(Const(1), x).MustApply(0), 1))
	assert.True(t, math.IsInf(Div(Const(-1), x).MustApply(0), -1))
	assert.True(t, math.IsNaN(Div(x, x).MustApply(0)))
	assert.True(t, math.IsNaN(Sqrt(x).MustApply(-1)))
	assert.True(t, math.IsNaN(Pow(x, Const(0.5)).MustApply(-4)))
	assert.Equal(t, 1.0, Pow(x, Const(0)).MustApply(math.NaN()), "pow(NaN, 0) is 1")
	assert.True(t, math.IsInf(Log(x).MustApply(0), -1))
}

func TestConstructorsDoNotMutate(t *testing.T) {
	x := Var("x")
	one := Const(1)
	s := Add(x, one)
	_ = Mul(s, s)
	_ = MustDiff(s, "x")

	assert.Equal(t, KindVar, x.Kind())
	assert.Equal(t, []string{"x"}, s.Variables())
	assert.Equal(t, "x+1", s.String())
}

func TestApply_Layout(t *testing.T) {
	vs, err := Vars("x", "y")
	require.NoError(t, err)
	x, y := vs[0], vs[1]

	f := Sub(Mul(Const(2), x), y)
	assert.Equal(t, []string{"x", "y"}, f.Variables())
	assert.Equal(t, 4.0, f.MustApply(3, 2))

	v, err := f.ApplyNamed(map[string]float64{"y": 2, "x": 3})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = f.Apply(1)
	assert.ErrorIs(t, err, ErrInconsistentBinding)

	_, err = f.ApplyNamed(map[string]float64{"x": 3})
	assert.ErrorIs(t, err, ErrUnknownVariable)

	// Reordered and widened layouts.
	g, err := f.Rebind("y", "z", "x")
	require.NoError(t, err)
	assert.Equal(t, 4.0, g.MustApply(2, 100, 3))

	_, err = f.Rebind("x")
	assert.ErrorIs(t, err, ErrInconsistentBinding)

	_, err = f.Restrict("x", "w")
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestMethodForms(t *testing.T) {
	x := Var("x")
	f := x.Mul(2).Add(1).Pow(2).Sub(x).Div(3)
	assert.InDelta(t, ((2*3.0+1)*(2*3.0+1)-3)/3, f.MustApply(3), tolerance)
	assert.Equal(t, -3.0, x.Neg().MustApply(3))

	assert.Panics(t, func() { x.Add("two") })
}

func TestDiff_UnknownVariable(t *testing.T) {
	_, err := Diff(Mul(Var("x"), Const(3)), "y")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariable)

	var exprErr *Error
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, "diff", exprErr.Op)
	assert.Equal(t, "y", exprErr.Name)

	// A name that is bound but not free differentiates to zero.
	f, err := Var("x").Rebind("x", "y")
	require.NoError(t, err)
	d, err := Diff(f, "y")
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.MustApply(1, 2))
}

func TestDiff_RulesAgainstFiniteDifferences(t *testing.T) {
	x := Var("x")
	tests := []struct {
		name string
		f    *Node
		at   float64
	}{
		{"neg", Neg(Mul(x, x)), 1.3},
		{"abs", Abs(Sub(x, Const(1))), -0.4},
		{"sqrt", Sqrt(Add(x, Const(2))), 0.7},
		{"sin", Sin(Mul(Const(3), x)), 0.2},
		{"cos", Cos(Mul(x, x)), 0.9},
		{"tan", Tan(x), 0.3},
		{"asin", Asin(Mul(Const(0.5), x)), 0.4},
		{"acos", Acos(Mul(Const(0.5), x)), 0.4},
		{"atan", Atan(Mul(x, x)), 1.1},
		{"sinh", Sinh(x), 0.8},
		{"cosh", Cosh(x), 0.8},
		{"tanh", Tanh(Mul(Const(2), x)), 0.3},
		{"exp", Exp(Neg(x)), 0.5},
		{"log", Log(Add(Mul(x, x), Const(1))), 2},
		{"div", Div(Sin(x), Add(x, Const(2))), 1.2},
		{"pow const", Pow(x, Const(3.5)), 1.7},
		{"pow var", Pow(x, x), 1.4},
		{"pow var exponent", Pow(Const(2), Mul(x, x)), 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MustDiff(tt.f, "x")
			want := numericalDerivative(t, tt.f, 0, []float64{tt.at})
			got := d.MustApply(tt.at)
			assert.InDelta(t, want, got, 1e-6*math.Max(1, math.Abs(want)), "d/dx %s", tt.f)
		})
	}
}

func TestDiff_Linearity(t *testing.T) {
	vs, err := Vars("x", "y")
	require.NoError(t, err)
	x, y := vs[0], vs[1]

	f := Mul(Sin(x), y)
	g := Div(Exp(y), Add(x, Const(3)))
	sum := MustDiff(Add(f, g), "x")
	df := MustDiff(f, "x")
	dg := MustDiff(g, "x")

	for _, p := range [][]float64{{0.1, 0.2}, {1, -1}, {-2.5, 3}} {
		assert.InDelta(t, df.MustApply(p...)+dg.MustApply(p...), sum.MustApply(p...), tolerance)
	}
}

func TestDiff_ProductRule(t *testing.T) {
	vs, err := Vars("x", "y")
	require.NoError(t, err)
	x, y := vs[0], vs[1]

	f := Add(Mul(x, x), y)
	g := Cos(Mul(x, y))
	prod := MustDiff(Mul(f, g), "y")
	df := MustDiff(f, "y")
	dg := MustDiff(g, "y")

	for _, p := range [][]float64{{0.5, 0.25}, {2, -3}, {-1, 1}} {
		want := f.MustApply(p...)*dg.MustApply(p...) + g.MustApply(p...)*df.MustApply(p...)
		assert.InDelta(t, want, prod.MustApply(p...), tolerance)
	}
}

func TestDiff_NoSimplification(t *testing.T) {
	x := Var("x")
	d := MustDiff(Mul(x, Const(1)), "x")
	assert.Equal(t, KindAdd, d.Kind(), "product rule result is kept as a sum")
	assert.Equal(t, "x*0+1*1", d.String())
}

func TestDiff_DependentVariable(t *testing.T) {
	area, err := binding.MustBind("r", "s", "t").WithDependent("t", map[string]float64{"r": -1, "s": -1})
	require.NoError(t, err)
	tv, err := VarIn("t", area)
	require.NoError(t, err)

	for _, v := range []string{"r", "s"} {
		d, err := Diff(tv, v)
		require.NoError(t, err)
		assert.Equal(t, KindConst, d.Kind())
		assert.Equal(t, -1.0, d.Value())
	}

	d, err := Diff(tv, "t")
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Value())

	// The rule flows through operators: d(t*t)/dr = t*(-1) + t*(-1).
	sq := MustDiff(Mul(tv, tv), "r")
	assert.Equal(t, -1.0, sq.MustApply(0.2, 0.3, 0.5))

	// Without the declaration the derivative is zero.
	plain, err := VarIn("t", binding.MustBind("r", "s", "t"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, MustDiff(plain, "r").Value())

	_, err = VarIn("q", area)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestCompose_ChainRule(t *testing.T) {
	r := Var("r")
	x := Var("x")

	outer := Sqrt(r)
	f, err := Compose(outer, map[string]*Node{"r": Mul(x, x)})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, f.Variables())
	assert.Equal(t, 3.0, f.MustApply(3))
	assert.Equal(t, 3.0, f.MustApply(-3))

	df := MustDiff(f, "x")
	assert.InDelta(t, 1.0, df.MustApply(3), tolerance)
	assert.InDelta(t, -1.0, df.MustApply(-3), tolerance)
	assert.InDelta(t, numericalDerivative(t, f, 0, []float64{3}), df.MustApply(3), 1e-6)

	// r is no longer free, so d/dr of the composite is zero.
	dr := MustDiff(f, "r")
	assert.Equal(t, 0.0, dr.MustApply(3))
}

func TestCompose_Multivariable(t *testing.T) {
	vs, err := Vars("u", "v", "w")
	require.NoError(t, err)
	u, v, w := vs[0], vs[1], vs[2]
	xy, err := Vars("x", "y")
	require.NoError(t, err)
	x, y := xy[0], xy[1]

	// outer(u, v, w) = u*v + sin(w); u = x*y, v = x+y, w stays free.
	outer := Add(Mul(u, v), Sin(w))
	f, err := Compose(outer, map[string]*Node{"u": Mul(x, y), "v": Add(x, y)})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "w"}, f.Variables())

	p := []float64{0.7, -1.3, 0.4}
	want := (0.7*-1.3)*(0.7-1.3) + math.Sin(0.4)
	assert.InDelta(t, want, f.MustApply(p...), tolerance)

	for i, name := range []string{"x", "y", "w"} {
		d := MustDiff(f, name)
		assert.Equal(t, f.Variables(), d.Variables())
		assert.InDelta(t, numericalDerivative(t, f, i, p), d.MustApply(p...), 1e-6, "d/d%s", name)
	}
}

func TestCompose_InconsistentBinding(t *testing.T) {
	_, err := Compose(Sqrt(Var("r")), map[string]*Node{"q": Var("x")})
	assert.ErrorIs(t, err, ErrInconsistentBinding)
}

func TestCompose_NoLeakOfInnerNames(t *testing.T) {
	vs, err := Vars("a", "b")
	require.NoError(t, err)
	// b is substituted by a constant: the composite only needs a.
	f, err := Compose(Mul(vs[0], vs[1]), map[string]*Node{"b": Const(4)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, f.Variables())
	assert.Equal(t, 8.0, f.MustApply(2))
	assert.Equal(t, 4.0, MustDiff(f, "a").MustApply(2))
}

func TestCompose_OuterMode(t *testing.T) {
	area, err := binding.MustBind("r", "s", "t").WithDependent("t", map[string]float64{"r": -1, "s": -1})
	require.NoError(t, err)
	tv, err := VarIn("t", area)
	require.NoError(t, err)

	// t = t(x, y) known only through its value and constant partials.
	inner, err := Custom("t", []string{"x", "y"},
		func(a []float64) float64 { return 1 - a[0] - a[1] },
		map[string]*Node{"x": Const(-1), "y": Const(-1)})
	require.NoError(t, err)

	c, err := Compose(tv, map[string]*Node{"t": inner})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, c.Variables())
	assert.Equal(t, 0.5, c.MustApply(0.25, 0.25))

	local, err := c.Restrict("r", "s", "t")
	require.NoError(t, err)
	assert.True(t, local.OuterMode())
	assert.Equal(t, 0.6, local.MustApply(0.1, 0.3, 0.6))

	// Local partials come from the dependent declaration.
	assert.Equal(t, -1.0, MustDiff(local, "r").MustApply(0.1, 0.3, 0.6))
	assert.Equal(t, 1.0, MustDiff(local, "t").MustApply(0.1, 0.3, 0.6))

	// Physical partials go through the chain rule and keep the local layout.
	dx := MustDiff(local, "x")
	assert.Equal(t, []string{"r", "s", "t"}, dx.Variables())
	assert.Equal(t, -1.0, dx.MustApply(0.1, 0.3, 0.6))

	_, err = c.Restrict("t", "x")
	assert.ErrorIs(t, err, ErrInconsistentBinding)
	_, err = c.Restrict("x")
	assert.ErrorIs(t, err, ErrInconsistentBinding)
}

func TestCustom(t *testing.T) {
	hyp, err := Custom("hypot", []string{"a", "b"}, func(a []float64) float64 {
		return math.Hypot(a[0], a[1])
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, hyp.MustApply(3, 4))
	assert.True(t, hyp.Opaque())
	assert.Equal(t, "hypot(a, b)", hyp.String())
	assert.Equal(t, 0.0, MustDiff(hyp, "a").MustApply(3, 4))

	_, err = Custom("bad", []string{"a"}, nil, nil)
	assert.ErrorIs(t, err, ErrInconsistentBinding)
	_, err = Custom("bad", []string{"a"}, func([]float64) float64 { return 0 }, map[string]*Node{"z": Const(1)})
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestString(t *testing.T) {
	vs, err := Vars("x", "y")
	require.NoError(t, err)
	x, y := vs[0], vs[1]

	tests := []struct {
		n    *Node
		want string
	}{
		{Add(Mul(Const(2), x), y), "2*x+y"},
		{Mul(Add(x, y), x), "(x+y)*x"},
		{Sub(x, Sub(y, x)), "x-(y-x)"},
		{Div(x, Mul(y, x)), "x/(y*x)"},
		{Pow(x, Pow(y, Const(2))), "x^y^2"},
		{Pow(Pow(x, y), Const(2)), "(x^y)^2"},
		{Pow(x, Const(-0.5)), "x^(-0.5)"},
		{Neg(Add(x, y)), "-(x+y)"},
		{Mul(Const(-2), x), "-2*x"},
		{Sqrt(Add(x, Const(1))), "sqrt(x+1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.n.String())
	}

	c, err := Compose(Sqrt(Var("r")), map[string]*Node{"r": Mul(x, x)})
	require.NoError(t, err)
	assert.Equal(t, "sqrt(r)[r := x*x]", c.String())
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "sqrt", KindSqrt.String())
	assert.Equal(t, "+", KindAdd.String())
	assert.True(t, KindSin.IsUnary())
	assert.True(t, KindPow.IsBinary())
	assert.False(t, KindCompose.IsUnary())

	f, ok := UnaryByName("cos")
	require.True(t, ok)
	assert.Equal(t, KindCos, f(Var("x")).Kind())
	_, ok = UnaryByName("nope")
	assert.False(t, ok)
}

func TestGradient(t *testing.T) {
	vs, err := Vars("x", "y")
	require.NoError(t, err)
	f := Mul(vs[0], Mul(vs[1], vs[1]))

	grad, err := Gradient(f, "x", "y")
	require.NoError(t, err)
	require.Len(t, grad, 2)
	assert.Equal(t, 9.0, grad[0].MustApply(2, 3))
	assert.Equal(t, 12.0, grad[1].MustApply(2, 3))
}

func TestChildren(t *testing.T) {
	x := Var("x")
	s := Add(x, Const(1))
	assert.Equal(t, []*Node{x, s.Args()[1]}, s.Children())
	assert.Empty(t, x.Children())

	inner := Mul(x, x)
	c, err := Compose(Sqrt(Var("r")), map[string]*Node{"r": inner})
	require.NoError(t, err)
	kids := c.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, KindSqrt, kids[0].Kind())
	assert.Same(t, inner, kids[1])
}

func TestDiff_KeepsSourceLayout(t *testing.T) {
	xy, err := Vars("x", "y")
	require.NoError(t, err)
	x := xy[0]

	// The composite drops y from its layout; its derivatives must not bring
	// it back through the inner Var's binding.
	f, err := Compose(Sqrt(Var("r")), map[string]*Node{"r": Mul(x, x)})
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, f.Variables())

	df, err := Diff(f, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, df.Variables())
	got, err := df.Apply(3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, tolerance)

	d2f, err := Diff(df, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, d2f.Variables())
	_, err = d2f.Apply(3)
	require.NoError(t, err)

	// Same for a node narrowed with Restrict.
	g, err := Mul(x, x).Restrict("x")
	require.NoError(t, err)
	dg, err := Diff(g, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, dg.Variables())
	got, err = dg.Apply(3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	// y is still in scope, so differentiating by it is allowed and gives 0.
	dy, err := Diff(g, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, dy.Variables())
	assert.Equal(t, 0.0, dy.MustApply(3))

	grad, err := Gradient(f, "x", "y")
	require.NoError(t, err)
	for _, d := range grad {
		assert.Equal(t, f.Variables(), d.Variables())
	}
}

func TestCompose_NilExpression(t *testing.T) {
	_, err := Compose(Sqrt(Var("r")), map[string]*Node{"r": nil})
	assert.ErrorIs(t, err, ErrInconsistentBinding)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "compose", e.Op)
	assert.Equal(t, "r", e.Name)

	_, err = Compose(nil, map[string]*Node{"r": Var("x")})
	assert.ErrorIs(t, err, ErrInconsistentBinding)
}
