// Copyright 2026 The mathlib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package symbolic is the public API for building, differentiating and
// evaluating symbolic scalar functions.
//
// Expressions are immutable trees. Every node carries a binding that fixes
// its positional argument layout; combinators merge the layouts of their
// operands in order of first appearance.
//
// Example:
//
//	x := symbolic.Var("x")
//	f := symbolic.Sqrt(x.Mul(x).Add(1))
//	df, _ := symbolic.Diff(f, "x")
//	v, _ := df.Apply(2) // 2/sqrt(5)
//
// Derivatives are exact and not simplified. Composition substitutes one
// function for a variable of another, and differentiating a composition
// applies the multivariable chain rule.
package symbolic

import (
	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/library"
	"github.com/mathlib-go/mathlib/internal/parser"
)

// Node is an immutable expression.
type Node = expr.Node

// Kind identifies the operator of a Node.
type Kind = expr.Kind

// Substitution pairs an outer variable with the expression replacing it.
type Substitution = expr.Substitution

// Binding is an immutable variable layout.
type Binding = binding.Binding

// Error describes a failed expression operation.
type Error = expr.Error

// SyntaxError reports where parsing failed.
type SyntaxError = parser.SyntaxError

// Library is a set of named functions loaded from YAML.
type Library = library.Library

// Errors. Test with errors.Is.
var (
	ErrUnknownVariable     = expr.ErrUnknownVariable
	ErrInconsistentBinding = expr.ErrInconsistentBinding
	ErrUnsupportedOperator = expr.ErrUnsupportedOperator
	ErrSyntax              = parser.ErrSyntax
)

// Bind creates a binding with slots 0..len(names)-1.
func Bind(names ...string) (*Binding, error) { return binding.Bind(names...) }

// Const returns a constant leaf.
func Const(v float64) *Node { return expr.Const(v) }

// Var returns a variable leaf.
func Var(name string) *Node { return expr.Var(name) }

// VarIn returns a variable leaf that takes part in b's layout and dependent
// declarations.
func VarIn(name string, b *Binding) (*Node, error) { return expr.VarIn(name, b) }

// Vars returns variable leaves sharing one layout.
func Vars(names ...string) ([]*Node, error) { return expr.Vars(names...) }

// Lift promotes a numeric literal to a constant.
func Lift(v any) *Node { return expr.Lift(v) }

// Add returns f + g. Operands may be *Node or numeric literals.
func Add(f, g any) *Node { return expr.Add(expr.Lift(f), expr.Lift(g)) }

// Sub returns f - g.
func Sub(f, g any) *Node { return expr.Sub(expr.Lift(f), expr.Lift(g)) }

// Mul returns f * g.
func Mul(f, g any) *Node { return expr.Mul(expr.Lift(f), expr.Lift(g)) }

// Div returns f / g.
func Div(f, g any) *Node { return expr.Div(expr.Lift(f), expr.Lift(g)) }

// Pow returns f ^ g.
func Pow(f, g any) *Node { return expr.Pow(expr.Lift(f), expr.Lift(g)) }

// Neg returns -g.
func Neg(g *Node) *Node { return expr.Neg(g) }

// Abs returns |g|.
func Abs(g *Node) *Node { return expr.Abs(g) }

// Sqrt returns the square root of g.
func Sqrt(g *Node) *Node { return expr.Sqrt(g) }

// Sin returns sin(g).
func Sin(g *Node) *Node { return expr.Sin(g) }

// Cos returns cos(g).
func Cos(g *Node) *Node { return expr.Cos(g) }

// Tan returns tan(g).
func Tan(g *Node) *Node { return expr.Tan(g) }

// Asin returns asin(g).
func Asin(g *Node) *Node { return expr.Asin(g) }

// Acos returns acos(g).
func Acos(g *Node) *Node { return expr.Acos(g) }

// Atan returns atan(g).
func Atan(g *Node) *Node { return expr.Atan(g) }

// Sinh returns sinh(g).
func Sinh(g *Node) *Node { return expr.Sinh(g) }

// Cosh returns cosh(g).
func Cosh(g *Node) *Node { return expr.Cosh(g) }

// Tanh returns tanh(g).
func Tanh(g *Node) *Node { return expr.Tanh(g) }

// Exp returns e^g.
func Exp(g *Node) *Node { return expr.Exp(g) }

// Log returns the natural logarithm of g.
func Log(g *Node) *Node { return expr.Log(g) }

// Custom returns an opaque function of vars with user-supplied partials.
// Trees containing one are evaluated by the interpreter only.
func Custom(name string, vars []string, eval func(args []float64) float64, partials map[string]*Node) (*Node, error) {
	return expr.Custom(name, vars, eval, partials)
}

// Diff returns the exact derivative of n with respect to v.
func Diff(n *Node, v string) (*Node, error) { return expr.Diff(n, v) }

// Gradient returns the derivatives of n with respect to each name.
func Gradient(n *Node, names ...string) ([]*Node, error) { return expr.Gradient(n, names...) }

// Compose substitutes inner expressions for variables of outer.
func Compose(outer *Node, subs map[string]*Node) (*Node, error) { return expr.Compose(outer, subs) }

// Parse reads an infix expression such as "x*sin(y) + 1".
func Parse(src string) (*Node, error) { return parser.Parse(src) }

// ParseIn parses src with the argument layout vars.
func ParseIn(src string, vars ...string) (*Node, error) { return parser.ParseIn(src, vars...) }

// LoadLibrary reads YAML function definitions from path.
func LoadLibrary(path string) (*Library, error) { return library.LoadFile(path) }
