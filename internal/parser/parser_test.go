package parser

import (
	"errors"
	"math"
	"testing"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Evaluate(t *testing.T) {
	tests := []struct {
		src  string
		args []float64
		want float64
	}{
		{"1 + 2*3", nil, 7},
		{"(1 + 2)*3", nil, 9},
		{"2^3^2", nil, 512},
		{"-2^2", nil, -4},
		{"(-2)^2", nil, 4},
		{"2*-3", nil, -6},
		{"8/4/2", nil, 1},
		{"10-4-3", nil, 3},
		{"1.5e2 + .5", nil, 150.5},
		{"x^2 + y", []float64{3, 1}, 10},
		{"sqrt(x*x + y*y)", []float64{3, 4}, 5},
		{"pow(x, 0.5)", []float64{16}, 4},
		{"abs(-x)", []float64{2}, 2},
		{"exp(log(x))", []float64{2}, 2},
		{"+x", []float64{5}, 5},
		{"-x^2", []float64{3}, -9},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			got, err := n.Apply(tt.args...)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParse_FunctionNames(t *testing.T) {
	for _, name := range []string{"abs", "sqrt", "sin", "cos", "tan", "asin", "acos", "atan", "sinh", "cosh", "tanh", "exp", "log"} {
		n, err := Parse(name + "(x)")
		require.NoError(t, err, name)
		assert.Equal(t, name, n.Kind().String())
	}
}

func TestParse_VariableOrder(t *testing.T) {
	n, err := Parse("y*x + z - x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "z"}, n.Variables())

	n, err = ParseIn("y - x", "x", "y")
	require.NoError(t, err)
	v, err := n.Apply(1, 5)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = ParseIn("y - x", "x")
	assert.True(t, errors.Is(err, expr.ErrInconsistentBinding))
}

func TestParse_RoundTrip(t *testing.T) {
	for _, src := range []string{
		"2*x+y",
		"(x+y)*x",
		"x-(y-x)",
		"x/(y*x)",
		"x^y^2",
		"(x^y)^2",
		"x^(-0.5)",
		"-(x+y)",
		"-2*x",
		"sqrt(x+1)",
		"-x^2",
		"(-x)^2",
		"sin(x)*cos(y)/tan(x)",
		"0.5*x^(-0.5)*1",
	} {
		n, err := Parse(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, n.String())

		again, err := Parse(n.String())
		require.NoError(t, err)
		assert.Equal(t, n.String(), again.String())
	}
}

func TestParse_DerivativeRoundTrip(t *testing.T) {
	f := MustParse("x*sin(x) + y^3")
	df, err := expr.Diff(f, "x")
	require.NoError(t, err)

	back, err := ParseIn(df.String(), df.Variables()...)
	require.NoError(t, err)
	for _, x := range []float64{-1, 0.5, 2} {
		want := df.MustApply(x, 2)
		got := back.MustApply(x, 2)
		assert.InDelta(t, want, got, 1e-12)
	}
}

func TestParse_NegativeZeroLiteral(t *testing.T) {
	n := MustParse("-0")
	require.True(t, n.IsConst())
	assert.True(t, math.Signbit(n.Value()))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src    string
		offset int
	}{
		{"", 0},
		{"1 +", 3},
		{"(x", 2},
		{"x)", 1},
		{"x $ y", 2},
		{"foo(x)", 0},
		{"sqrt(x, y)", 0},
		{"pow(x)", 0},
		{"neg(x)", 0},
		{"2 x", 2},
		{"sin x", 4},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("(") })
}

func TestParseWith_Dependents(t *testing.T) {
	b, err := binding.Bind("r", "s", "t")
	require.NoError(t, err)
	b, err = b.WithDependent("t", map[string]float64{"r": -1, "s": -1})
	require.NoError(t, err)

	n, err := ParseWith("2*t + x", b)
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "s", "t", "x"}, n.Variables())

	dr, err := expr.Diff(n, "r")
	require.NoError(t, err)
	v, err := dr.Apply(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, -2.0, v)
}
