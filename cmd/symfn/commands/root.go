// Package commands implements the symfn subcommands.
package commands

import (
	"fmt"

	"github.com/mathlib-go/mathlib/internal/config"
	"github.com/mathlib-go/mathlib/internal/jit"
	"github.com/mathlib-go/mathlib/internal/logging"
	"github.com/mathlib-go/mathlib/internal/parallel"
	"github.com/spf13/cobra"
)

// Version is the release version, overridden at link time.
var Version = "v0.1.0-dev"

// app is the state shared by subcommands after configuration is loaded.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	cache    *jit.Cache
	parallel parallel.Config
}

// setup loads configuration and applies it to the process logger and the
// default compilation cache.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logger.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logger.Format = a.logFormat
	}
	if err := logging.Init(cfg.Logger); err != nil {
		return err
	}

	a.cfg = cfg
	a.cache = jit.NewCache(jit.CacheConfig{
		Enabled: cfg.JIT.Enabled,
		Hoist:   cfg.JIT.Hoist,
		Logger:  logging.Component("jit"),
	})
	jit.SetDefault(a.cache)
	a.parallel = parallel.FromConfig(cfg.Parallel)

	logging.Component("cli").WithField("command", cmd.Name()).Debug("configured")
	return nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:               "symfn",
		Short:             "Evaluate, differentiate and compile symbolic functions",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: error, warn, info, debug, trace")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(
		newEvalCommand(a),
		newDiffCommand(a),
		newComposeCommand(a),
		newBenchCommand(a),
		newLibCommand(a),
		newShapeCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip configuration loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "symfn %s\n", Version)
		},
	}
}
