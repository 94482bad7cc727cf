// Package shapefun builds linear finite-element shape functions on
// triangles as symbolic expressions.
//
// A linear triangle has three shape functions N1 = r, N2 = s, N3 = t in area
// coordinates, with r + s + t = 1, so t depends on r and s. Each area
// coordinate is also a linear function of the physical coordinates x and y.
// The shape functions are compositions of the two views: evaluated on
// (r, s, t), differentiated with respect to either set.
package shapefun

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mathlib-go/mathlib/internal/binding"
	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/jit"
	"github.com/mathlib-go/mathlib/internal/parallel"
)

// Errors returned when constructing shape functions.
var (
	ErrIndex       = errors.New("shape function index must be 1, 2 or 3")
	ErrOrientation = errors.New("triangle vertices must be counter-clockwise with positive area")
)

// Area coordinate names, in shape function order.
var areaNames = [3]string{"r", "s", "t"}

// Physical coordinate names.
const (
	VarX = "x"
	VarY = "y"
)

// Point is a vertex in the physical plane.
type Point struct {
	X, Y float64
}

// Triangle holds the geometry coefficients of a linear triangle.
//
// Area coordinate i is L_i(x, y) = (a_i + b_i*x + c_i*y) / (2*area).
type Triangle struct {
	vertices [3]Point
	area     float64
	a, b, c  [3]float64

	// shape functions used by Tabulate, built on first use
	tabOnce   sync.Once
	tabShapes [3]*Shape
	tabErr    error
}

// NewTriangle computes the coefficients of the triangle v1 v2 v3.
func NewTriangle(v [3]Point) (*Triangle, error) {
	x1, y1 := v[0].X, v[0].Y
	x2, y2 := v[1].X, v[1].Y
	x3, y3 := v[2].X, v[2].Y

	t := &Triangle{vertices: v}
	t.area = ((x2*y3 - x3*y2) - (x1*y3 - x3*y1) + (x1*y2 - x2*y1)) / 2
	if !(t.area > 0) {
		return nil, fmt.Errorf("%w: area %g", ErrOrientation, t.area)
	}
	t.a[0], t.b[0], t.c[0] = x2*y3-x3*y2, y2-y3, x3-x2
	t.a[1], t.b[1], t.c[1] = x3*y1-x1*y3, y3-y1, x1-x3
	t.a[2], t.b[2], t.c[2] = x1*y2-x2*y1, y1-y2, x2-x1
	return t, nil
}

// Area returns the signed area, always positive for a valid triangle.
func (t *Triangle) Area() float64 { return t.area }

// Vertices returns the vertices.
func (t *Triangle) Vertices() [3]Point { return t.vertices }

// Local maps a physical point to area coordinates.
func (t *Triangle) Local(p Point) (r, s, u float64) {
	var l [3]float64
	for i := range l {
		l[i] = (t.a[i] + t.b[i]*p.X + t.c[i]*p.Y) / (2 * t.area)
	}
	return l[0], l[1], l[2]
}

// Physical maps area coordinates to a physical point.
func (t *Triangle) Physical(r, s, u float64) Point {
	v := t.vertices
	return Point{
		X: r*v[0].X + s*v[1].X + u*v[2].X,
		Y: r*v[0].Y + s*v[1].Y + u*v[2].Y,
	}
}

// Gradient returns the constant physical gradient of area coordinate i
// (1-based).
func (t *Triangle) Gradient(i int) (dx, dy float64, err error) {
	if i < 1 || i > 3 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrIndex, i)
	}
	return t.b[i-1] / (2 * t.area), t.c[i-1] / (2 * t.area), nil
}

// Shape returns shape function i (1-based) with coefficient 1.
func (t *Triangle) Shape(i int) (*Shape, error) {
	return t.newShape(i, 1)
}

// Shapes returns all three shape functions.
func (t *Triangle) Shapes() ([3]*Shape, error) {
	var out [3]*Shape
	for i := range out {
		s, err := t.Shape(i + 1)
		if err != nil {
			return out, err
		}
		out[i] = s
	}
	return out, nil
}

// Tabulate evaluates N1, N2 and N3 at each physical point. Row k holds the
// three values at points[k]. The local forms are compiled through the
// process-wide JIT cache and the points x shapes grid is spread over cfg's
// workers.
func (t *Triangle) Tabulate(points []Point, cfg parallel.Config) ([][3]float64, error) {
	t.tabOnce.Do(func() {
		t.tabShapes, t.tabErr = t.Shapes()
	})
	if t.tabErr != nil {
		return nil, t.tabErr
	}

	fs := make([]parallel.Evaluator, len(t.tabShapes))
	for i, s := range t.tabShapes {
		fs[i] = jit.FunctionOf(s.Node())
	}
	args := make([][]float64, len(points))
	for k, p := range points {
		r, s, u := t.Local(p)
		args[k] = []float64{r, s, u}
	}
	vals, err := parallel.EvaluateGrid(fs, args, cfg)
	if err != nil {
		return nil, err
	}
	out := make([][3]float64, len(vals))
	for k, row := range vals {
		copy(out[k][:], row)
	}
	return out, nil
}

// AreaBinding returns the (r, s, t) binding in which t depends on r and s
// with derivative -1.
func AreaBinding() *binding.Binding {
	b, err := binding.MustBind(areaNames[:]...).WithDependent("t", map[string]float64{"r": -1, "s": -1})
	if err != nil {
		panic(err)
	}
	return b
}

// coordinate returns area coordinate i as an opaque function of (x, y) with
// constant partials.
func (t *Triangle) coordinate(i int) (*expr.Node, error) {
	a, b, c := t.a[i], t.b[i], t.c[i]
	twoA := 2 * t.area
	return expr.Custom(areaNames[i], []string{VarX, VarY},
		func(args []float64) float64 {
			return (a + b*args[0] + c*args[1]) / twoA
		},
		map[string]*expr.Node{
			VarX: expr.Const(b / twoA),
			VarY: expr.Const(c / twoA),
		})
}
