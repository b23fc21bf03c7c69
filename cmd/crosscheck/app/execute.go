package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck/cmd/crosscheck/cmd"
)

// Execute runs the crosscheck CLI with the given arguments. This is the
// main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "crosscheck",
		Short:   "Reconcile workforce allocations between the roster and the planner",
		Version: a.version,
		Long: `Crosscheck reconciles workforce allocation records kept independently
by two systems: the roster, a staffing SaaS booking people onto client
projects in hours per day, and the planner, a scenario database
allocating people to projects in percentages.

It matches assignments across the two systems through a maintained
client-name mapping table, decomposes ambiguous multi-project matches
with explicit project rules, and reports the people, clients, and
projects each system is missing.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.flags.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().StringVar(&a.flags.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVarP(&a.flags.Format, "format", "o", "", "output format: table, markdown, csv, json, yaml")

	rootCmd.SetVersionTemplate("crosscheck {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand runs before any command: flags are parsed by now, so the
// logger is rebuilt with the final level.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	logger := NewLogger(a.config, a.flags)
	a.logger = &logger
	return nil
}

// registerCommands wires up all command handlers.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(cmd.NewRunCommand(a))
	rootCmd.AddCommand(cmd.NewDiffCommand(a))
	rootCmd.AddCommand(cmd.NewSnapshotCommand(a))
	rootCmd.AddCommand(cmd.NewSuggestCommand(a))
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
}

// ExitOnError prints an error to stderr and exits with status 1. Meant
// for top-level error handling in main.go.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// Ensure App satisfies the command dependency interface.
var _ cmd.AppContext = (*App)(nil)
