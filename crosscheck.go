// Package crosscheck reconciles workforce allocation records between two
// planning systems: the roster, a staffing SaaS that books people onto
// client projects in hours per day, and the planner, a scenario database
// that allocates people to projects in percentages of their time.
//
// The two systems spell client names differently and share no record IDs,
// so crosscheck matches on composite person.client keys translated through
// a maintained client name table, confirms pairs from both mapping
// directions, decomposes ambiguous multi-project matches with explicit
// project rules, and reports the entities each system is missing.
//
// Example usage:
//
//	// Build sources for both systems
//	rosterSrc := roster.New(rosterCfg)
//	plannerSrc, err := planner.New(plannerCfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create a runner with the mapping table
//	runner, err := crosscheck.New(
//	    crosscheck.WithSources(rosterSrc, plannerSrc),
//	    crosscheck.WithMappingFile("mapping.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Reconcile one reporting month
//	window, _ := records.ParseWindow("July 2025")
//	result, err := runner.Run(ctx, crosscheck.RunWithWindow(window))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Render the result
//	fmt.Println(result.Summary())
//	report.Render(os.Stdout, result.Report(), report.FormatTable)
package crosscheck

import (
	"context"
	"fmt"

	"github.com/nexa-labs/crosscheck/internal/sources"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Compile-time interface check to ensure proper implementation.
var _ Runner = (*runner)(nil)

// Runner executes reconciliation passes over a registered pair of sources.
type Runner interface {
	// Run executes one reconciliation pass and returns its result.
	Run(ctx context.Context, opts ...RunOption) (*Result, error)
}

// runner is the internal implementation of the Runner interface.
type runner struct {
	// config holds the construction-time settings
	config *config

	// sources holds one registered source per system
	sources *sources.Registry
}

// New creates a new Runner instance with the given options.
func New(opts ...Option) (Runner, error) {
	r := &runner{
		config:  defaultConfig(),
		sources: sources.NewRegistry(),
	}

	if err := r.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	for _, src := range r.config.sources {
		if err := r.sources.Set(src); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// options applies each option in order, stopping at the first failure.
func (r *runner) options(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r.config); err != nil {
			return err
		}
	}
	return nil
}

// pair returns the registered source for each system, erroring when either
// side is missing. Both are required before any remote work starts.
func (r *runner) pair() (roster, planner sources.Source, err error) {
	roster, ok := r.sources.Get(records.SystemRoster)
	if !ok {
		return nil, nil, fmt.Errorf("no %s source registered", records.SystemRoster)
	}
	planner, ok = r.sources.Get(records.SystemPlanner)
	if !ok {
		return nil, nil, fmt.Errorf("no %s source registered", records.SystemPlanner)
	}
	return roster, planner, nil
}
