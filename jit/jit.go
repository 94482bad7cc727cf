// Copyright 2026 The mathlib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package jit compiles symbolic expressions into reentrant evaluators.
//
// Compilation is memoized per expression node in a Cache. Closed constant
// subexpressions are evaluated once and shared by every evaluator of the
// cache. Expressions the compiler cannot lower, such as custom functions,
// fall back to the interpreter through Function.
//
// Example:
//
//	f, _ := symbolic.Parse("sqrt(x^2 + y^2)")
//	ev, _ := jit.Compile(f)
//	v, _ := ev.Evaluate(3, 4) // 5
package jit

import (
	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/jit"
	"github.com/mathlib-go/mathlib/internal/parallel"
)

// Evaluator is a compiled expression.
type Evaluator = jit.Evaluator

// Function is a compiled evaluator or the interpreter fallback.
type Function = jit.Function

// Program is the lowered stack-machine form of an expression.
type Program = jit.Program

// Cache memoizes compiled evaluators by node.
type Cache = jit.Cache

// CacheConfig configures a Cache.
type CacheConfig = jit.CacheConfig

// Stats holds cache counters.
type Stats = jit.Stats

// State is the compilation state of a node.
type State = jit.State

// Compilation states.
const (
	NotCompiled   = jit.NotCompiled
	Compiling     = jit.Compiling
	Compiled      = jit.Compiled
	CompileFailed = jit.CompileFailed
)

// BatchConfig controls parallel batch evaluation.
type BatchConfig = parallel.Config

// NewCache creates an empty cache.
func NewCache(cfg CacheConfig) *Cache { return jit.NewCache(cfg) }

// DefaultCacheConfig enables compilation and hoisting.
func DefaultCacheConfig() CacheConfig { return jit.DefaultCacheConfig() }

// Default returns the process-wide cache.
func Default() *Cache { return jit.Default() }

// Compile compiles n with the process-wide cache.
func Compile(n *expr.Node) (*Evaluator, error) { return jit.Compile(n) }

// FunctionOf returns n compiled, or interpreted when it cannot be compiled.
func FunctionOf(n *expr.Node) Function { return jit.FunctionOf(n) }

// Interpreted returns the interpreter as a Function.
func Interpreted(n *expr.Node) Function { return jit.Interpreted(n) }

// DefaultBatchConfig sizes batch evaluation to the CPU count.
func DefaultBatchConfig() BatchConfig { return parallel.DefaultConfig() }

// EvaluateAll evaluates f at every point, in parallel when cfg allows.
func EvaluateAll(f Function, points [][]float64, cfg BatchConfig) ([]float64, error) {
	return parallel.EvaluateAll(f, points, cfg)
}

// EvaluateGrid evaluates every function at every point. Row p of the result
// holds the values at points[p].
func EvaluateGrid(fs []Function, points [][]float64, cfg BatchConfig) ([][]float64, error) {
	evs := make([]parallel.Evaluator, len(fs))
	for i, f := range fs {
		evs[i] = f
	}
	return parallel.EvaluateGrid(evs, points, cfg)
}
