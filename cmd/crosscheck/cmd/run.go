package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck/internal/sources/snapshot"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

// NewRunCommand creates the run command, the full reconciliation pass.
func NewRunCommand(app AppContext) *cobra.Command {
	flags := &runFlags{}
	var saveSnapshot string
	var withAllocations bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full reconciliation pass",
		Long: `Run fetches allocations from both systems, matches them through the
client mapping table, decomposes ambiguous multi-project matches with
the project rules, and reports matches, unmatched keys, and entity gaps.

Live runs need roster credentials and a planner connection configured;
--snapshot replays a previously saved snapshot directory instead.`,
		Example: `  crosscheck run --window "July 2025" --mapping mapping.yaml
  crosscheck run --snapshot snapshots/2025-07 -o markdown
  crosscheck run --person "J. Doe" --save-snapshot snapshots/2025-07`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(app.Config(), flags)
			if err != nil {
				return err
			}
			opts, err := passOptions(app.Config(), flags)
			if err != nil {
				return err
			}

			result, err := runner.Run(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			if saveSnapshot != "" {
				if err := snapshot.Write(result.Roster, saveSnapshot); err != nil {
					return err
				}
				if err := snapshot.Write(result.Planner, saveSnapshot); err != nil {
					return err
				}
			}

			var reportOpts []report.Option
			if !withAllocations {
				reportOpts = append(reportOpts, report.WithSections(
					"summary", "matches", "one_way_candidates",
					"unmatched_roster", "unmatched_planner", "entity_gaps",
				))
			}
			return render(app, result.Report(reportOpts...))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&saveSnapshot, "save-snapshot", "", "write the fetched datasets to this snapshot directory")
	cmd.Flags().BoolVar(&withAllocations, "allocations", false, "include the raw allocation rows in the report")

	return cmd
}
