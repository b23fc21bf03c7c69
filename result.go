package crosscheck

import (
	"fmt"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/match"
	"github.com/nexa-labs/crosscheck/pkg/records"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

// Result is everything one reconciliation pass produced.
type Result struct {
	// RunID identifies the pass in logs and report headers.
	RunID string `json:"run_id" yaml:"run_id"`

	// Window is the reporting period the pass covered.
	Window records.Window `json:"window" yaml:"window"`

	// GeneratedAt is when the result was assembled.
	GeneratedAt utc.Time `json:"generated_at" yaml:"generated_at"`

	// Person is set when the pass was scoped to a single person.
	Person string `json:"person,omitempty" yaml:"person,omitempty"`

	// Outcome holds the match entries, one-way candidates, unmatched keys,
	// and matching statistics.
	Outcome *match.Outcome `json:"outcome" yaml:"outcome"`

	// ResolveStats summarizes multimatch decomposition.
	ResolveStats match.ResolveStats `json:"resolve_stats" yaml:"resolve_stats"`

	// Gaps are the entity-level differences between the two systems.
	Gaps []diff.Entry `json:"gaps,omitempty" yaml:"gaps,omitempty"`

	// Roster and Planner are the datasets the pass consumed, carried for
	// report assembly. They are not serialized with the result.
	Roster  *records.Dataset `json:"-" yaml:"-"`
	Planner *records.Dataset `json:"-" yaml:"-"`
}

// newResult stamps a fresh run ID onto the assembled outcome.
func newResult(window records.Window, person string, roster, planner *records.Dataset, outcome *match.Outcome, resolveStats match.ResolveStats, gaps []diff.Entry) *Result {
	return &Result{
		RunID:        uuid.NewString(),
		Window:       window,
		GeneratedAt:  utc.Now(),
		Person:       person,
		Outcome:      outcome,
		ResolveStats: resolveStats,
		Gaps:         gaps,
		Roster:       roster,
		Planner:      planner,
	}
}

// Summary returns a one-line account of the pass for logs and CLI output.
func (r *Result) Summary() string {
	stats := r.Outcome.Stats
	return fmt.Sprintf("%s: %d matched (%d multimatch, %d resolved), %d roster / %d planner unmatched, %d entity gaps",
		r.Window.String(),
		stats.Bidirectional,
		len(r.Outcome.Multimatches()),
		r.ResolveStats.Resolved,
		len(r.Outcome.UnmatchedRoster),
		len(r.Outcome.UnmatchedPlanner),
		len(r.Gaps))
}

// Report assembles the renderable report for this result. Extra options
// are applied after the result's own, so callers can trim or restamp it.
func (r *Result) Report(opts ...report.Option) *report.Report {
	assembled := []report.Option{
		report.WithRunID(r.RunID),
		report.WithGeneratedAt(r.GeneratedAt),
		report.WithResolveStats(r.ResolveStats),
		report.WithAllocations(r.Roster, r.Planner),
	}
	return report.New(r.Window, r.Outcome, r.Gaps, append(assembled, opts...)...)
}
