// Package parser reads infix expressions such as "sqrt(x^2 + y^2)" into
// expression trees.
//
// Grammar, loosest binding first:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | power
//	power  = atom [ "^" unary ]          right associative
//	atom   = number | ident | ident "(" args ")" | "(" expr ")"
//
// A minus sign directly before a numeric literal folds into a negative
// constant, so printed expressions parse back to the same tree.
package parser

import (
	"errors"
	"fmt"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
)

// ErrSyntax is returned (wrapped in a *SyntaxError) for malformed input.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports where parsing failed.
type SyntaxError struct {
	Offset int // byte offset into the source
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Offset: pos, Msg: fmt.Sprintf(format, args...)}
}

// Binding powers of the left-associative operators. "^" is handled by
// parsePower.
const (
	bpAdd = 1
	bpMul = 2
)

var binaryOps = map[string]struct {
	bp    int
	build func(f, g *expr.Node) *expr.Node
}{
	"+": {bpAdd, expr.Add},
	"-": {bpAdd, expr.Sub},
	"*": {bpMul, expr.Mul},
	"/": {bpMul, expr.Div},
}

type parser struct {
	toks  []token
	pos   int
	scope *binding.Binding // nil: every identifier is a free-standing variable
}

// Parse parses src. Variables are laid out in order of first appearance.
func Parse(src string) (*expr.Node, error) {
	return ParseWith(src, nil)
}

// ParseWith parses src with identifiers named in scope bound to it, so that
// they carry its layout and dependent declarations. Other identifiers are
// plain variables.
func ParseWith(src string, scope *binding.Binding) (*expr.Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, scope: scope}
	n, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.pos, "unexpected %s %q", t.kind, t.text)
	}
	return n, nil
}

// ParseIn parses src and lays its arguments out as vars, which must cover
// every variable of the expression.
func ParseIn(src string, vars ...string) (*expr.Node, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return n, nil
	}
	return n.Rebind(vars...)
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *expr.Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.next()
	if t.kind != k {
		if t.kind == tokEOF {
			return t, errorf(t.pos, "expected %s, got end of input", k)
		}
		return t, errorf(t.pos, "expected %s, got %q", k, t.text)
	}
	return t, nil
}

// parseExpr is precedence climbing over binary operators binding at least
// as tightly as minBP.
func (p *parser) parseExpr(minBP int) (*expr.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		op, ok := binaryOps[t.text]
		if !ok || op.bp < minBP {
			return left, nil
		}
		p.next()

		right, err := p.parseExpr(op.bp + 1)
		if err != nil {
			return nil, err
		}
		left = op.build(left, right)
	}
}

// parseUnary binds looser than "^" and tighter than "*".
func (p *parser) parseUnary() (*expr.Node, error) {
	t := p.peek()
	if t.kind == tokOp && t.text == "-" {
		p.next()
		literal := p.peek().kind == tokNumber
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if literal && operand.IsConst() {
			return expr.Const(-operand.Value()), nil
		}
		return expr.Neg(operand), nil
	}
	if t.kind == tokOp && t.text == "+" {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*expr.Node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		// Right associative; the exponent may carry its own sign.
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (*expr.Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return expr.Const(t.num), nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			p.next()
			return p.parseCall(t)
		}
		if p.scope != nil && p.scope.Contains(t.text) {
			return expr.VarIn(t.text, p.scope)
		}
		return expr.Var(t.text), nil
	case tokLParen:
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokEOF:
		return nil, errorf(t.pos, "unexpected end of input")
	}
	return nil, errorf(t.pos, "unexpected %s %q", t.kind, t.text)
}

func (p *parser) parseCall(name token) (*expr.Node, error) {
	var args []*expr.Node
	if p.peek().kind != tokRParen {
		for {
			a, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	if name.text == "pow" {
		if len(args) != 2 {
			return nil, errorf(name.pos, "pow takes 2 arguments, got %d", len(args))
		}
		return expr.Pow(args[0], args[1]), nil
	}
	build, ok := expr.UnaryByName(name.text)
	if !ok || name.text == "neg" {
		return nil, errorf(name.pos, "unknown function %q", name.text)
	}
	if len(args) != 1 {
		return nil, errorf(name.pos, "%s takes 1 argument, got %d", name.text, len(args))
	}
	return build(args[0]), nil
}
