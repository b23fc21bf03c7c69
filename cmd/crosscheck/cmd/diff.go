package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck"
	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

// NewDiffCommand creates the diff command, entity gap reporting only.
func NewDiffCommand(app AppContext) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "diff [kind...]",
		Short: "Report entities present in one system but not the other",
		Long: `Diff compares the active people, clients, and projects of the two
systems and reports every entity present on one side with no
counterpart on the other, after client-name mapping.

Kinds may be given to limit the comparison: person, client, project.
Without arguments every kind is compared.`,
		Example: `  crosscheck diff --window "July 2025"
  crosscheck diff client --snapshot snapshots/2025-07
  crosscheck diff person project -o csv`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}

			runner, err := newRunner(app.Config(), flags)
			if err != nil {
				return err
			}
			opts, err := passOptions(app.Config(), flags)
			if err != nil {
				return err
			}
			if len(kinds) > 0 {
				opts = append(opts, crosscheck.RunWithKinds(kinds...))
			}

			result, err := runner.Run(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			return render(app, result.Report(report.WithSections("entity_gaps")))
		},
	}

	flags.register(cmd)

	return cmd
}

// parseKinds validates the kind arguments.
func parseKinds(args []string) ([]diff.Kind, error) {
	var kinds []diff.Kind
	for _, arg := range args {
		kind := diff.Kind(arg)
		if !kind.IsValid() {
			return nil, fmt.Errorf("unknown entity kind %q (want person, client, or project)", arg)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
