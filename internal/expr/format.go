package expr

import (
	"strconv"
	"strings"
)

// String renders n in infix notation, e.g. "0.5*sqrt(x)^-1".
// Compositions render as outer[name := inner, ...].
func (n *Node) String() string {
	var sb strings.Builder
	n.format(&sb)
	return sb.String()
}

func (n *Node) precedence() int {
	if n.kind == KindConst && (n.value < 0 || strings.HasPrefix(formatFloat(n.value), "-")) {
		return precNeg
	}
	return ops[n.kind].prec
}

func (n *Node) format(sb *strings.Builder) {
	switch n.kind {
	case KindConst:
		sb.WriteString(formatFloat(n.value))
	case KindVar:
		sb.WriteString(n.name)
	case KindCustom:
		sb.WriteString(n.name)
		sb.WriteByte('(')
		sb.WriteString(strings.Join(n.custom.vars, ", "))
		sb.WriteByte(')')
	case KindCompose:
		n.args[0].formatOperand(sb, precAtom, false)
		sb.WriteByte('[')
		for i, s := range n.subs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.Name)
			sb.WriteString(" := ")
			s.Inner.format(sb)
		}
		sb.WriteByte(']')
	case KindNeg:
		sb.WriteByte('-')
		n.args[0].formatOperand(sb, precNeg, true)
	default:
		op := &ops[n.kind]
		if op.arity == 1 {
			sb.WriteString(op.name)
			sb.WriteByte('(')
			n.args[0].format(sb)
			sb.WriteByte(')')
			return
		}
		// Operators group to the left except "^". Parenthesizing the other
		// side keeps the printed form parsing back to the same tree.
		right := n.kind == KindPow
		n.args[0].formatOperand(sb, op.prec, right)
		sb.WriteString(op.name)
		n.args[1].formatOperand(sb, op.prec, !right)
	}
}

// formatOperand wraps the operand in parentheses when its precedence is lower
// than the parent's, or equal on the non-associative side.
func (n *Node) formatOperand(sb *strings.Builder, parent int, strict bool) {
	p := n.precedence()
	if p < parent || (strict && p == parent) {
		sb.WriteByte('(')
		n.format(sb)
		sb.WriteByte(')')
		return
	}
	n.format(sb)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
