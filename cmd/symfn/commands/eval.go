package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/jit"
	"github.com/mathlib-go/mathlib/internal/parser"
	"github.com/spf13/cobra"
)

// parseAssignments reads "x=1,y=2" (possibly repeated) into a map.
func parseAssignments(items []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, item := range items {
		for _, kv := range strings.Split(item, ",") {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			name, val, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("expected name=value, got %q", kv)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("value of %s: %w", name, err)
			}
			out[strings.TrimSpace(name)] = v
		}
	}
	return out, nil
}

// function returns the evaluator for n according to the cache settings and
// the --interpret flag.
func (a *app) function(n *expr.Node, interpret bool) jit.Function {
	if interpret {
		return jit.Interpreted(n)
	}
	return a.cache.Function(n)
}

// evaluate prints the value of n at the given point.
func (a *app) evaluate(w io.Writer, n *expr.Node, at map[string]float64, interpret bool) error {
	f := a.function(n, interpret)
	v, err := f.EvaluateNamed(at)
	if err != nil {
		if errors.Is(err, expr.ErrUnknownVariable) {
			return fmt.Errorf("%w (arguments are %v)", err, f.Variables())
		}
		return err
	}
	mode := "interpreted"
	if f.Compiled() {
		mode = "compiled"
	}
	_, err = fmt.Fprintf(w, "%s = %s  [%s]\n", formatPoint(f.Variables(), at), strconv.FormatFloat(v, 'g', -1, 64), mode)
	return err
}

func formatPoint(vars []string, at map[string]float64) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v + "=" + strconv.FormatFloat(at[v], 'g', -1, 64)
	}
	return "f(" + strings.Join(parts, ", ") + ")"
}

func newEvalCommand(a *app) *cobra.Command {
	var (
		at        []string
		vars      []string
		interpret bool
		showIR    bool
	)
	cmd := &cobra.Command{
		Use:   "eval EXPR",
		Short: "Evaluate an expression",
		Example: `  symfn eval "sqrt(x^2 + y^2)" --at x=3,y=4
  symfn eval "sin(x)*exp(-x)" --at x=1 --ir`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parser.ParseIn(args[0], vars...)
			if err != nil {
				return err
			}
			point, err := parseAssignments(at)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showIR {
				ev, err := a.cache.Compile(n)
				if err != nil {
					return err
				}
				fmt.Fprint(out, ev.Program())
			}
			return a.evaluate(out, n, point, interpret)
		},
	}
	cmd.Flags().StringSliceVar(&at, "at", nil, "point, e.g. x=1,y=2")
	cmd.Flags().StringSliceVar(&vars, "vars", nil, "argument order, e.g. y,x")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "evaluate with the interpreter only")
	cmd.Flags().BoolVar(&showIR, "ir", false, "print the compiled program")
	return cmd
}

func newDiffCommand(a *app) *cobra.Command {
	var (
		at        []string
		wrt       []string
		interpret bool
	)
	cmd := &cobra.Command{
		Use:     "diff EXPR",
		Short:   "Differentiate an expression",
		Example: `  symfn diff "x*sin(x)" --wrt x --at x=0.5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(wrt) == 0 {
				return errors.New("--wrt is required")
			}
			n, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			point, err := parseAssignments(at)
			if err != nil {
				return err
			}
			return a.differentiate(cmd.OutOrStdout(), n, wrt, point, interpret)
		},
	}
	cmd.Flags().StringSliceVar(&at, "at", nil, "point, e.g. x=1,y=2")
	cmd.Flags().StringSliceVar(&wrt, "wrt", nil, "variables to differentiate by; repeated for higher order")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "evaluate with the interpreter only")
	return cmd
}

// differentiate prints d^k n / d wrt[0]..d wrt[k-1], and its value when a
// point is given.
func (a *app) differentiate(w io.Writer, n *expr.Node, wrt []string, at map[string]float64, interpret bool) error {
	d := n
	for _, v := range wrt {
		var err error
		if d, err = expr.Diff(d, v); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "d/d%s %s = %s\n", strings.Join(wrt, " d/d"), n, d)
	if len(at) == 0 {
		return nil
	}
	return a.evaluate(w, d, at, interpret)
}
