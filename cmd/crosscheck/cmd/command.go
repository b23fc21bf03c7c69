// Package cmd implements the crosscheck CLI commands. Every command pulls
// its dependencies through the AppContext interface so commands stay
// testable without a full application.
package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nexa-labs/crosscheck"
	"github.com/nexa-labs/crosscheck/internal/config"
	"github.com/nexa-labs/crosscheck/internal/sources"
	"github.com/nexa-labs/crosscheck/internal/sources/planner"
	"github.com/nexa-labs/crosscheck/internal/sources/roster"
	"github.com/nexa-labs/crosscheck/internal/sources/snapshot"
	"github.com/nexa-labs/crosscheck/pkg/records"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

// AppContext defines what commands need from the application.
type AppContext interface {
	Config() *config.Config
	Logger() *zerolog.Logger
	Format() string
	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}

// runFlags holds the flags shared by the commands that execute a
// reconciliation pass.
type runFlags struct {
	window   string
	person   string
	mapping  string
	sentinel string
	snapshot string // replay from this snapshot directory instead of live sources
	timeout  time.Duration
}

// register adds the shared pass flags to a command.
func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.window, "window", "w", "", "reporting window, e.g. \"July 2025\" or \"2025-07\" (default: current month)")
	cmd.Flags().StringVarP(&f.person, "person", "p", "", "restrict the pass to one person")
	cmd.Flags().StringVarP(&f.mapping, "mapping", "m", "", "client mapping file (YAML)")
	cmd.Flags().StringVar(&f.sentinel, "sentinel", "", "administrative catch-all assignee to exclude from unmatched output")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "replay datasets from this snapshot directory instead of fetching live")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "bound on the whole pass including source fetches")
}

// resolveWindow picks the reporting window: flag first, then the
// configured default. A zero window means the current month and is
// resolved by the runner itself.
func resolveWindow(flagValue string, cfg *config.Config) (records.Window, error) {
	value := flagValue
	if value == "" {
		value = cfg.Run.Window
	}
	if value == "" {
		return records.Window{}, nil
	}
	return records.ParseWindow(value)
}

// buildSources constructs the source pair for a pass. A snapshot
// directory replays both systems from disk; otherwise live sources are
// built from configuration, erroring early when credentials are missing.
func buildSources(cfg *config.Config, snapshotDir string) ([]sources.Source, error) {
	if snapshotDir != "" {
		return []sources.Source{
			snapshot.New(snapshotDir, records.SystemRoster),
			snapshot.New(snapshotDir, records.SystemPlanner),
		}, nil
	}
	return buildLiveSources(cfg)
}

// buildLiveSources constructs the live roster and planner sources.
func buildLiveSources(cfg *config.Config) ([]sources.Source, error) {
	if err := cfg.Roster.CheckLive(); err != nil {
		return nil, err
	}
	if err := cfg.Planner.CheckLive(); err != nil {
		return nil, err
	}

	var rosterOpts []roster.Option
	if cfg.Roster.ClientDelimiter != "" {
		rosterOpts = append(rosterOpts, roster.WithClientFromProject(cfg.Roster.ClientDelimiter))
	}
	rosterSrc := roster.New(roster.Config{
		BaseURL:  cfg.Roster.BaseURL,
		AuthURL:  cfg.Roster.AuthURL,
		Origin:   cfg.Roster.Origin,
		Username: cfg.Roster.Username,
		Password: cfg.Roster.Password,
		Timezone: cfg.Roster.Timezone,
	}, rosterOpts...)

	plannerSrc, err := planner.New(planner.Config{
		DSN:      cfg.Planner.DSN(),
		Scenario: cfg.Planner.Scenario,
	})
	if err != nil {
		return nil, err
	}

	return []sources.Source{rosterSrc, plannerSrc}, nil
}

// newRunner builds a configured Runner from the pass flags.
func newRunner(cfg *config.Config, flags *runFlags) (crosscheck.Runner, error) {
	srcs, err := buildSources(cfg, flags.snapshot)
	if err != nil {
		return nil, err
	}

	mappingPath := flags.mapping
	if mappingPath == "" {
		mappingPath = cfg.Run.MappingFile
	}
	sentinel := flags.sentinel
	if sentinel == "" {
		sentinel = cfg.Run.Sentinel
	}

	opts := []crosscheck.Option{crosscheck.WithSources(srcs...)}
	if mappingPath != "" {
		opts = append(opts, crosscheck.WithMappingFile(mappingPath))
	}
	if sentinel != "" {
		opts = append(opts, crosscheck.WithSentinel(sentinel))
	}
	return crosscheck.New(opts...)
}

// passOptions converts the pass flags into run options.
func passOptions(cfg *config.Config, flags *runFlags) ([]crosscheck.RunOption, error) {
	window, err := resolveWindow(flags.window, cfg)
	if err != nil {
		return nil, err
	}

	person := flags.person
	if person == "" {
		person = cfg.Run.Person
	}

	var opts []crosscheck.RunOption
	if !window.Start.IsZero() {
		opts = append(opts, crosscheck.RunWithWindow(window))
	}
	if person != "" {
		opts = append(opts, crosscheck.RunWithPerson(person))
	}
	if flags.timeout > 0 {
		opts = append(opts, crosscheck.RunWithTimeout(flags.timeout))
	}
	return opts, nil
}

// render writes the report to stdout in the selected format. Without an
// explicit format, tables go to terminals and JSON to pipes.
func render(app AppContext, rep *report.Report) error {
	format, err := report.ParseFormat(app.Format())
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, rep, report.DetectFormat(format.String()))
}
