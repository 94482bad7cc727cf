package jit

import (
	"fmt"
	"math"
)

// evalFn computes a value from a register frame.
type evalFn func(regs []float64) float64

// store writes a composition temporary before the result is computed.
type store struct {
	reg int
	fn  evalFn
}

// generate translates p into a single closure. Stores run in program order,
// which is a valid schedule because every temporary is written once and only
// read by instructions that follow its store.
func generate(p *Program) (evalFn, error) {
	stack := make([]evalFn, 0, 16)
	var stores []store

	pop := func() evalFn {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}

	for pc, in := range p.Code {
		need := 0
		switch {
		case in.Op == OpStore || in.Op.isUnary():
			need = 1
		case in.Op.isBinary():
			need = 2
		}
		if len(stack) < need {
			return nil, fmt.Errorf("jit: stack underflow at %04d %s", pc, in.Op)
		}

		switch {
		case in.Op == OpConst:
			v := p.Consts[in.Arg]
			stack = append(stack, func([]float64) float64 { return v })
		case in.Op == OpLoad:
			r := in.Arg
			stack = append(stack, func(regs []float64) float64 { return regs[r] })
		case in.Op == OpHoisted:
			s := p.Hoisted[in.Arg]
			stack = append(stack, func([]float64) float64 { return s.value })
		case in.Op == OpStore:
			stores = append(stores, store{reg: in.Arg, fn: pop()})
		case in.Op.isUnary():
			stack = append(stack, genUnary(in.Op, pop()))
		case in.Op.isBinary():
			b := pop()
			a := pop()
			stack = append(stack, genBinary(in.Op, a, b))
		default:
			return nil, fmt.Errorf("jit: unknown opcode %s at %04d", in.Op, pc)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("jit: program leaves %d values on the stack", len(stack))
	}
	result := stack[0]
	if len(stores) == 0 {
		return result, nil
	}
	return func(regs []float64) float64 {
		for _, s := range stores {
			regs[s.reg] = s.fn(regs)
		}
		return result(regs)
	}, nil
}

func genUnary(op Opcode, a evalFn) evalFn {
	switch op {
	case OpNeg:
		return func(r []float64) float64 { return -a(r) }
	case OpAbs:
		return func(r []float64) float64 { return math.Abs(a(r)) }
	case OpSqrt:
		return func(r []float64) float64 { return math.Sqrt(a(r)) }
	}
	f := unaryFuncs[op]
	return func(r []float64) float64 { return f(a(r)) }
}

func genBinary(op Opcode, a, b evalFn) evalFn {
	switch op {
	case OpAdd:
		return func(r []float64) float64 { return a(r) + b(r) }
	case OpSub:
		return func(r []float64) float64 { return a(r) - b(r) }
	case OpMul:
		return func(r []float64) float64 { return a(r) * b(r) }
	case OpDiv:
		return func(r []float64) float64 { return a(r) / b(r) }
	default:
		return func(r []float64) float64 { return math.Pow(a(r), b(r)) }
	}
}
