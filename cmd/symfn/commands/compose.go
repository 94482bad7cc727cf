package commands

import (
	"fmt"
	"strings"

	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/parser"
	"github.com/spf13/cobra"
)

func newComposeCommand(a *app) *cobra.Command {
	var (
		at        []string
		subs      []string
		wrt       []string
		active    []string
		interpret bool
	)
	cmd := &cobra.Command{
		Use:   "compose OUTER",
		Short: "Substitute expressions for variables of an outer expression",
		Example: `  symfn compose "sqrt(r)" --sub "r=x*x" --at x=3 --wrt x
  symfn compose "u*v" --sub "u=x+y" --sub "v=x-y" --at x=3,y=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outer, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			inner := make(map[string]*expr.Node, len(subs))
			for _, s := range subs {
				name, src, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("expected name=expr, got %q", s)
				}
				n, err := parser.Parse(src)
				if err != nil {
					return fmt.Errorf("substitution %s: %w", name, err)
				}
				inner[strings.TrimSpace(name)] = n
			}
			c, err := expr.Compose(outer, inner)
			if err != nil {
				return err
			}
			if len(active) > 0 {
				if c, err = c.Restrict(active...); err != nil {
					return err
				}
			}

			point, err := parseAssignments(at)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "f%v = %s\n", c.Variables(), c)
			if len(at) > 0 {
				if err := a.evaluate(out, c, point, interpret); err != nil {
					return err
				}
			}
			if len(wrt) > 0 {
				return a.differentiate(out, c, wrt, point, interpret)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&subs, "sub", nil, "substitution name=expr; repeatable")
	cmd.Flags().StringSliceVar(&at, "at", nil, "point, e.g. x=1,y=2")
	cmd.Flags().StringSliceVar(&wrt, "wrt", nil, "also differentiate by these variables")
	cmd.Flags().StringSliceVar(&active, "active", nil, "restrict the arguments; outer names switch to outer mode")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "evaluate with the interpreter only")
	return cmd
}
