// Package cmd wires Hydra's single cobra command tree: a fat root
// command that runs the whole multiplexer with no arguments, plus a
// handful of small utility subcommands (version, init).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hydra/internal/app"
	"hydra/internal/compositor"
	"hydra/internal/config"
	"hydra/internal/hydralog"
	"hydra/internal/termcolor"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hydra",
		Short: "Run multiple long-lived interactive CLI agent sessions side by side",
		Long: `hydra is a terminal multiplexer purpose-built for running several
long-lived interactive CLI agents (one per git branch) in the same
terminal, each in its own isolated checkout and PTY, switchable with a
tmux-style CTRL_B prefix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHydra()
		},
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInitCmd())
	return rootCmd
}

func runHydra() error {
	pre, err := RunPreflight(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hydra: preflight failed:", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := hydralog.Default(cfg.DebugKeys)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	compositor.SetScheme(termcolor.Detect())

	cols, rows, err := terminalSize(os.Stdout)
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	a, err := app.New(cfg, log, pre.RepoRoot, pre.HomeDir, os.Stdin, os.Stdout, cols, rows)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	watchResize(a, os.Stdout)
	return a.Run()
}

// Execute runs the root command, exiting 1 on any returned error (0 for
// a graceful exit, 1 for preflight or any other fatal failure).
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hydra:", err)
		os.Exit(1)
	}
}
