// Package main provides the symfn command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/mathlib-go/mathlib/cmd/symfn/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
