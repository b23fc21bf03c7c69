package match

import (
	"context"

	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
)

// Resolver splits MULTIMATCH entries into single-project matches using
// the project rule table. Rules are keyed on the roster-side project
// name and looked up by exact string equality.
type Resolver struct {
	rules *mapping.ProjectRules
}

// NewResolver returns a Resolver over the given rule table. A nil table
// behaves like an empty one and leaves every entry untouched.
func NewResolver(rules *mapping.ProjectRules) *Resolver {
	if rules == nil {
		rules = mapping.NewProjectRules(nil)
	}
	return &Resolver{rules: rules}
}

// ResolveStats summarizes one resolution pass.
type ResolveStats struct {
	Multimatch int `json:"multimatch" yaml:"multimatch"` // MULTIMATCH entries examined
	Resolved   int `json:"resolved" yaml:"resolved"`     // MATCH_RESOLVED entries emitted
	Decomposed int `json:"decomposed" yaml:"decomposed"` // originals removed after full resolution
}

// Resolve applies the rule table to every MULTIMATCH entry in the list.
// Each roster-side project with a rule becomes its own MATCH_RESOLVED
// entry carrying the rule's planner project. When every roster project
// of an entry resolved, the original is dropped as fully decomposed;
// when any project remains without a rule, the original is kept
// unchanged next to the resolved pieces so the leftover ambiguity stays
// visible. Entries that are not MULTIMATCH pass through untouched.
//
// The input slice is never modified; the returned slice holds the kept
// originals in their input order followed by the resolved entries.
func (r *Resolver) Resolve(ctx context.Context, entries []Entry) ([]Entry, ResolveStats) {
	log := logging.Ctx(ctx)

	var stats ResolveStats
	kept := make([]Entry, 0, len(entries))
	var resolved []Entry

	for _, entry := range entries {
		if entry.Status != StatusMultimatch {
			kept = append(kept, entry)
			continue
		}
		stats.Multimatch++

		hits := 0
		for _, project := range entry.RosterProjects {
			rule, ok := r.rules.Lookup(project)
			if !ok {
				continue
			}
			hits++
			split := entry
			split.RosterProjects = []string{project}
			split.PlannerProjects = []string{rule.PlannerProject}
			split.Status = StatusResolved
			resolved = append(resolved, split)
		}

		if hits > 0 && hits == len(entry.RosterProjects) {
			stats.Decomposed++
			continue
		}
		kept = append(kept, entry)
	}

	stats.Resolved = len(resolved)
	if stats.Multimatch > 0 {
		log.Debug().
			Int("multimatch", stats.Multimatch).
			Int("resolved", stats.Resolved).
			Int("decomposed", stats.Decomposed).
			Msg("multimatch resolution pass complete")
	}

	return append(kept, resolved...), stats
}
