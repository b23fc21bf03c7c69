package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck"
	"github.com/nexa-labs/crosscheck/internal/config"
	"github.com/nexa-labs/crosscheck/internal/suggest"
	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/records"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

// NewSuggestCommand creates the suggest command, which proposes
// client-name mapping candidates for the clients a pass left unmatched.
func NewSuggestCommand(app AppContext) *cobra.Command {
	flags := &runFlags{}
	var model string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Propose client mapping candidates for unmatched clients",
		Long: `Suggest runs the entity comparison, collects the clients present on
only one side, and asks the Gemini API which names likely describe the
same companies. Suggestions are advisory: review them and add the ones
you accept to the mapping file by hand.

Requires GEMINI_API_KEY (or GOOGLE_API_KEY) to be set.`,
		Example: `  crosscheck suggest --window "July 2025" --mapping mapping.yaml
  crosscheck suggest --snapshot snapshots/2025-07 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiKey := config.GeminiAPIKey()
			if apiKey == "" {
				return fmt.Errorf("no Gemini API key: set GEMINI_API_KEY or GOOGLE_API_KEY")
			}

			runner, err := newRunner(app.Config(), flags)
			if err != nil {
				return err
			}
			opts, err := passOptions(app.Config(), flags)
			if err != nil {
				return err
			}
			opts = append(opts, crosscheck.RunWithKinds(diff.KindClient))

			result, err := runner.Run(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			rosterClients, plannerClients := gapClients(result.Gaps)
			if len(rosterClients) == 0 || len(plannerClients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unmatched clients on both sides; nothing to suggest.")
				return nil
			}

			suggester, err := suggest.New(cmd.Context(), suggest.Config{APIKey: apiKey, Model: model})
			if err != nil {
				return err
			}
			suggestions, err := suggester.Suggest(cmd.Context(), rosterClients, plannerClients)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plausible equivalences found.")
				return nil
			}

			return render(app, suggestionReport(suggestions))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&model, "model", "", "Gemini model to use (default: the helper's choice)")

	return cmd
}

// gapClients splits the client gap entries by the system they were
// found in.
func gapClients(gaps []diff.Entry) (rosterClients, plannerClients []string) {
	for _, e := range gaps {
		if e.Kind != diff.KindClient {
			continue
		}
		switch e.System {
		case records.SystemRoster:
			rosterClients = append(rosterClients, e.Name)
		case records.SystemPlanner:
			plannerClients = append(plannerClients, e.Name)
		}
	}
	return rosterClients, plannerClients
}

// suggestionReport shapes the suggestions as a one-section report so the
// standard renderers apply.
func suggestionReport(suggestions []suggest.Suggestion) *report.Report {
	section := report.Section{
		ID:      "mapping_suggestions",
		Title:   "Mapping Suggestions",
		Headers: []string{"Roster Client", "Planner Client", "Confidence", "Rationale"},
	}
	for _, s := range suggestions {
		section.Rows = append(section.Rows, []string{
			s.RosterClient, s.PlannerClient, s.Confidence, s.Rationale,
		})
	}
	return &report.Report{Sections: []report.Section{section}}
}
