package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mathlib-go/mathlib/internal/shapefun"
	"github.com/spf13/cobra"
)

// parsePoint reads "x,y".
func parsePoint(s string) (shapefun.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return shapefun.Point{}, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return shapefun.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return shapefun.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return shapefun.Point{X: x, Y: y}, nil
}

func newShapeCommand(a *app) *cobra.Command {
	var (
		vertices []float64
		points   []string
	)
	cmd := &cobra.Command{
		Use:     "shape",
		Short:   "Tabulate the linear shape functions of a triangle",
		Example: `  symfn shape --vertices 0,0,2,0,0,1 --point 0.5,0.25 --point 0,0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(vertices) != 6 {
				return fmt.Errorf("--vertices needs 6 numbers (x1,y1,x2,y2,x3,y3), got %d", len(vertices))
			}
			tri, err := shapefun.NewTriangle([3]shapefun.Point{
				{X: vertices[0], Y: vertices[1]},
				{X: vertices[2], Y: vertices[3]},
				{X: vertices[4], Y: vertices[5]},
			})
			if err != nil {
				return err
			}
			pts := make([]shapefun.Point, len(points))
			for i, p := range points {
				if pts[i], err = parsePoint(p); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			shapes, err := tri.Shapes()
			if err != nil {
				return err
			}
			for _, s := range shapes {
				fmt.Fprintln(out, s)
			}
			rows, err := tri.Tabulate(pts, a.parallel)
			if err != nil {
				return err
			}
			for k, p := range pts {
				fmt.Fprintf(out, "(%g, %g): N1=%g N2=%g N3=%g\n", p.X, p.Y, rows[k][0], rows[k][1], rows[k][2])
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&vertices, "vertices", nil, "counter-clockwise vertices x1,y1,x2,y2,x3,y3")
	cmd.Flags().StringArrayVar(&points, "point", nil, "physical point x,y; repeatable")
	return cmd
}
