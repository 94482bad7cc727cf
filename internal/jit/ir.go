// Package jit compiles expression trees into directly executable evaluators.
//
// Compilation has two stages:
//   - Lowering: the tree is flattened into a Program, a linear stack-machine
//     IR. Registers 0..N-1 hold the arguments; each composition stores its
//     substituted values into fresh registers that are written exactly once.
//   - Code generation: the Program is translated into a tree of Go closures
//     over a register frame. There is one target; the interpreter in package
//     expr is the fallback for trees the lowering table does not cover.
//
// Compiled evaluators are memoized per node identity in a Cache.
package jit

import (
	"fmt"
	"math"
	"strings"

	"github.com/mathlib-go/mathlib/internal/expr"
)

// Opcode is a stack machine instruction.
type Opcode uint8

// Opcodes. Unary opcodes pop one value and push one; binary opcodes pop the
// right operand, then the left, and push the result.
const (
	OpConst   Opcode = iota // push Consts[Arg]
	OpLoad                  // push register Arg
	OpHoisted               // push the value of hoisted slot Arg
	OpStore                 // pop into register Arg

	OpNeg
	OpAbs
	OpSqrt
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpExp
	OpLog

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpConst: "const", OpLoad: "load", OpHoisted: "hoisted", OpStore: "store",
	OpNeg: "neg", OpAbs: "abs", OpSqrt: "sqrt", OpSin: "sin", OpCos: "cos",
	OpTan: "tan", OpAsin: "asin", OpAcos: "acos", OpAtan: "atan",
	OpSinh: "sinh", OpCosh: "cosh", OpTanh: "tanh", OpExp: "exp", OpLog: "log",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpPow: "pow",
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if op < numOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func (op Opcode) isUnary() bool  { return op >= OpNeg && op <= OpLog }
func (op Opcode) isBinary() bool { return op >= OpAdd && op <= OpPow }

// lowering maps expression kinds to opcodes. Kinds without an entry cannot be
// compiled and report ErrUnsupportedOperator.
var lowering = map[expr.Kind]Opcode{
	expr.KindNeg:  OpNeg,
	expr.KindAbs:  OpAbs,
	expr.KindSqrt: OpSqrt,
	expr.KindSin:  OpSin,
	expr.KindCos:  OpCos,
	expr.KindTan:  OpTan,
	expr.KindAsin: OpAsin,
	expr.KindAcos: OpAcos,
	expr.KindAtan: OpAtan,
	expr.KindSinh: OpSinh,
	expr.KindCosh: OpCosh,
	expr.KindTanh: OpTanh,
	expr.KindExp:  OpExp,
	expr.KindLog:  OpLog,
	expr.KindAdd:  OpAdd,
	expr.KindSub:  OpSub,
	expr.KindMul:  OpMul,
	expr.KindDiv:  OpDiv,
	expr.KindPow:  OpPow,
}

// unaryFuncs holds the float64 function of every unary opcode. They are the
// same functions the interpreter applies, so results are bit-identical.
var unaryFuncs [numOpcodes]func(float64) float64

func init() {
	for k, op := range lowering {
		if op.isUnary() {
			unaryFuncs[op] = k.UnaryFunc()
		}
	}
}

// Instr is one IR instruction.
type Instr struct {
	Op  Opcode
	Arg int
}

// Program is a lowered expression.
type Program struct {
	Code    []Instr
	Consts  []float64
	Hoisted []*slot
	NumArgs int // registers holding arguments
	NumRegs int // arguments plus composition temporaries
	Vars    []string
}

func (p *Program) emit(op Opcode, arg int) {
	p.Code = append(p.Code, Instr{Op: op, Arg: arg})
}

// constant returns the index of v in the constant pool, adding it if needed.
// Values are compared bitwise so that -0 and NaN payloads are preserved.
func (p *Program) constant(v float64) int {
	bits := math.Float64bits(v)
	for i, c := range p.Consts {
		if math.Float64bits(c) == bits {
			return i
		}
	}
	p.Consts = append(p.Consts, v)
	return len(p.Consts) - 1
}

func (p *Program) newReg() int {
	r := p.NumRegs
	p.NumRegs++
	return r
}

// String disassembles the program.
func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; args %v, registers %d, constants %d, hoisted %d\n",
		p.Vars, p.NumRegs, len(p.Consts), len(p.Hoisted))
	for i, in := range p.Code {
		fmt.Fprintf(&sb, "%04d  %-8s", i, in.Op)
		switch in.Op {
		case OpConst:
			fmt.Fprintf(&sb, " %g", p.Consts[in.Arg])
		case OpLoad, OpStore:
			fmt.Fprintf(&sb, " r%d", in.Arg)
			if in.Arg < len(p.Vars) {
				fmt.Fprintf(&sb, " (%s)", p.Vars[in.Arg])
			}
		case OpHoisted:
			fmt.Fprintf(&sb, " #%d = %g", in.Arg, p.Hoisted[in.Arg].value)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
