package commands

import (
	"fmt"

	"github.com/mathlib-go/mathlib/internal/library"
	"github.com/spf13/cobra"
)

func newLibCommand(a *app) *cobra.Command {
	var (
		at        []string
		wrt       []string
		interpret bool
	)
	cmd := &cobra.Command{
		Use:   "lib FILE [NAME]",
		Short: "List or evaluate functions from a YAML library",
		Example: `  symfn lib functions.yaml
  symfn lib functions.yaml n3 --at r=0.2,s=0.3,t=0.5 --wrt r`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				for _, name := range lib.Names() {
					n, _ := lib.Get(name)
					fmt.Fprintf(out, "%s%v = %s\n", name, n.Variables(), n)
				}
				return nil
			}

			n, err := lib.Get(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s%v = %s\n", args[1], n.Variables(), n)
			point, err := parseAssignments(at)
			if err != nil {
				return err
			}
			if len(at) > 0 {
				if err := a.evaluate(out, n, point, interpret); err != nil {
					return err
				}
			}
			if len(wrt) > 0 {
				return a.differentiate(out, n, wrt, point, interpret)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&at, "at", nil, "point, e.g. x=1,y=2")
	cmd.Flags().StringSliceVar(&wrt, "wrt", nil, "also differentiate by these variables")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "evaluate with the interpreter only")
	return cmd
}
