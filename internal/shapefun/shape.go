package shapefun

import (
	"fmt"

	"github.com/mathlib-go/mathlib/internal/expr"
)

// Shape is one linear shape function of a triangle.
type Shape struct {
	id       int
	coef     float64
	tri      *Triangle
	local    *expr.Node
	physical *expr.Node
}

// NewTriangleLinear builds shape function id (1, 2 or 3) of the triangle v,
// scaled by coef. The vertices must be counter-clockwise.
func NewTriangleLinear(id int, v [3]Point, coef float64) (*Shape, error) {
	if id < 1 || id > 3 {
		return nil, fmt.Errorf("%w: got %d", ErrIndex, id)
	}
	t, err := NewTriangle(v)
	if err != nil {
		return nil, err
	}
	return t.newShape(id, coef)
}

func (t *Triangle) newShape(id int, coef float64) (*Shape, error) {
	if id < 1 || id > 3 {
		return nil, fmt.Errorf("%w: got %d", ErrIndex, id)
	}
	name := areaNames[id-1]
	outer, err := expr.VarIn(name, AreaBinding())
	if err != nil {
		return nil, err
	}
	inner, err := t.coordinate(id - 1)
	if err != nil {
		return nil, err
	}
	composed, err := expr.Compose(outer, map[string]*expr.Node{name: inner})
	if err != nil {
		return nil, err
	}
	local, err := composed.Restrict(areaNames[:]...)
	if err != nil {
		return nil, err
	}
	return &Shape{
		id:       id,
		coef:     coef,
		tri:      t,
		local:    expr.Mul(expr.Const(coef), local),
		physical: expr.Mul(expr.Const(coef), composed),
	}, nil
}

// ID returns the 1-based index.
func (s *Shape) ID() int { return s.id }

// Coef returns the scale factor.
func (s *Shape) Coef() float64 { return s.coef }

// Triangle returns the geometry the function was built on.
func (s *Shape) Triangle() *Triangle { return s.tri }

// Node returns the function of the area coordinates (r, s, t). Its
// derivatives with respect to x and y follow the chain rule and are constant.
func (s *Shape) Node() *expr.Node { return s.local }

// Physical returns the same function of (x, y).
func (s *Shape) Physical() *expr.Node { return s.physical }

// Evaluate returns the value at area coordinates (r, s, t).
func (s *Shape) Evaluate(r, sv, t float64) (float64, error) {
	return s.local.Apply(r, sv, t)
}

// Diff differentiates with respect to r, s, t, x or y. The result takes the
// area coordinates as arguments.
func (s *Shape) Diff(v string) (*expr.Node, error) {
	return expr.Diff(s.local, v)
}

func (s *Shape) String() string {
	return fmt.Sprintf("N%d(r, s, t) = %s", s.id, s.local)
}
