package commands

import (
	"fmt"
	"time"

	"github.com/mathlib-go/mathlib/internal/jit"
	"github.com/mathlib-go/mathlib/internal/parallel"
	"github.com/mathlib-go/mathlib/internal/parser"
	"github.com/spf13/cobra"
)

func newBenchCommand(a *app) *cobra.Command {
	var (
		at []string
		n  int
	)
	cmd := &cobra.Command{
		Use:     "bench EXPR",
		Short:   "Compare interpreter, compiled and batch evaluation speed",
		Example: `  symfn bench "sqrt(x^2+y^2)*sin(x)" --at x=1,y=2 --n 1000000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("--n must be positive, got %d", n)
			}
			node, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			point, err := parseAssignments(at)
			if err != nil {
				return err
			}
			argv, err := node.Binding().Resolve(point)
			if err != nil {
				return err
			}

			start := time.Now()
			ev, err := a.cache.Compile(node)
			compileTime := time.Since(start)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			interp := jit.Interpreted(node)
			for _, f := range []struct {
				name string
				fn   jit.Function
			}{{"interpreter", interp}, {"compiled", ev}} {
				start := time.Now()
				for i := 0; i < n; i++ {
					if _, err := f.fn.Evaluate(argv...); err != nil {
						return err
					}
				}
				el := time.Since(start)
				fmt.Fprintf(out, "%-12s %10.1f ns/op\n", f.name, float64(el.Nanoseconds())/float64(n))
			}

			points := make([][]float64, n)
			for i := range points {
				points[i] = argv
			}
			start = time.Now()
			if _, err := parallel.EvaluateAll(ev, points, a.parallel); err != nil {
				return err
			}
			el := time.Since(start)
			fmt.Fprintf(out, "%-12s %10.1f ns/op (%d workers)\n", "batch", float64(el.Nanoseconds())/float64(n), a.parallel.NumWorkers)
			fmt.Fprintf(out, "compile      %v, %d instructions\n", compileTime, len(ev.Program().Code))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&at, "at", nil, "point, e.g. x=1,y=2")
	cmd.Flags().IntVar(&n, "n", 100000, "evaluations per mode")
	return cmd
}
