package jit

import (
	"sync"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
)

// Function is anything that evaluates an expression: a compiled Evaluator or
// the interpreter fallback.
type Function interface {
	// Evaluate computes the value with positional arguments laid out as
	// Variables().
	Evaluate(args ...float64) (float64, error)
	// EvaluateNamed computes the value with arguments given by name.
	EvaluateNamed(values map[string]float64) (float64, error)
	// Variables returns the positional argument layout.
	Variables() []string
	// Compiled reports whether evaluation runs generated code.
	Compiled() bool
}

// Evaluator is a compiled expression. It is safe for concurrent use; every
// call gets its own register frame.
type Evaluator struct {
	node    *expr.Node
	binding *binding.Binding
	prog    *Program
	run     evalFn
	frames  sync.Pool
}

func newEvaluator(n *expr.Node, p *Program, run evalFn) *Evaluator {
	e := &Evaluator{node: n, binding: n.Binding(), prog: p, run: run}
	e.frames.New = func() any {
		regs := make([]float64, p.NumRegs)
		return &regs
	}
	return e
}

// Evaluate runs the compiled code.
func (e *Evaluator) Evaluate(args ...float64) (float64, error) {
	if err := e.binding.Check(args); err != nil {
		return 0, err
	}
	if e.prog.NumRegs == e.prog.NumArgs {
		// No temporaries: the code only reads its arguments.
		return e.run(args), nil
	}
	frame := e.frames.Get().(*[]float64)
	regs := *frame
	copy(regs, args)
	v := e.run(regs)
	e.frames.Put(frame)
	return v, nil
}

// EvaluateNamed resolves names through the expression's binding.
func (e *Evaluator) EvaluateNamed(values map[string]float64) (float64, error) {
	args, err := e.binding.Resolve(values)
	if err != nil {
		return 0, err
	}
	return e.Evaluate(args...)
}

// Variables returns the positional argument layout.
func (e *Evaluator) Variables() []string { return e.binding.Active() }

// Compiled always reports true.
func (e *Evaluator) Compiled() bool { return true }

// Program returns the lowered IR.
func (e *Evaluator) Program() *Program { return e.prog }

// Node returns the compiled expression.
func (e *Evaluator) Node() *expr.Node { return e.node }

// interpreted evaluates through the expression tree.
type interpreted struct {
	node *expr.Node
}

// Interpreted returns a Function that evaluates n with the interpreter.
func Interpreted(n *expr.Node) Function {
	return interpreted{node: n}
}

func (f interpreted) Evaluate(args ...float64) (float64, error) {
	return f.node.Apply(args...)
}

func (f interpreted) EvaluateNamed(values map[string]float64) (float64, error) {
	return f.node.ApplyNamed(values)
}

func (f interpreted) Variables() []string { return f.node.Variables() }

func (f interpreted) Compiled() bool { return false }
