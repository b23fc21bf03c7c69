package cmd

import (
	"fmt"

	"github.com/agentstation/utc"
	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck/internal/sources/snapshot"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// NewSnapshotCommand creates the snapshot command, which fetches both
// live datasets and archives them to disk without reconciling.
func NewSnapshotCommand(app AppContext) *cobra.Command {
	var window string
	var dir string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch both systems and archive the datasets to disk",
		Long: `Snapshot fetches the current datasets from the live roster API and
planner database and writes them as CSV files, one directory per
system. A saved snapshot can replay any run or diff offline via
--snapshot.`,
		Example: `  crosscheck snapshot --dir snapshots/2025-07 --window "July 2025"
  crosscheck run --snapshot snapshots/2025-07`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.Config()
			if dir == "" {
				dir = cfg.Run.SnapshotDir
			}
			if dir == "" {
				return fmt.Errorf("no snapshot directory: set --dir or run.snapshot_dir")
			}

			w, err := resolveWindow(window, cfg)
			if err != nil {
				return err
			}
			if w.Start.IsZero() {
				now := utc.Now()
				w = records.MonthWindow(now.Year(), now.Month())
			}

			srcs, err := buildLiveSources(cfg)
			if err != nil {
				return err
			}

			for _, src := range srcs {
				set, err := src.Fetch(cmd.Context(), w)
				if err != nil {
					return err
				}
				if err := snapshot.Write(set, dir); err != nil {
					return err
				}
				if err := src.Cleanup(); err != nil {
					app.Logger().Warn().Err(err).Str("system", src.System().String()).Msg("source cleanup failed")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d allocations written\n", src.System(), len(set.Allocations))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "", "reporting window the planner query is scoped to (default: current month)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "snapshot directory to write")

	return cmd
}
