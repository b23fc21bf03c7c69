package match

import (
	"sort"
	"strings"
)

// Status classifies a confirmed match entry.
type Status string

const (
	// StatusMatch marks a confirmed pair with a single project on each
	// side.
	StatusMatch Status = "MATCH"
	// StatusMultimatch marks a confirmed pair where either side carries
	// more than one distinct project, so the project-level pairing is
	// ambiguous.
	StatusMultimatch Status = "MULTIMATCH"
	// StatusResolved marks a single-project entry split out of a
	// MULTIMATCH pair by an explicit project rule.
	StatusResolved Status = "MATCH_RESOLVED"
)

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusMatch, StatusMultimatch, StatusResolved:
		return true
	}
	return false
}

// Entry is one confirmed pairing between a roster engagement and a
// planner engagement, identified by mutually agreeing composite keys.
type Entry struct {
	RosterKey       Key      `json:"roster_key" yaml:"roster_key"`
	PlannerKey      Key      `json:"planner_key" yaml:"planner_key"`
	Person          string   `json:"person" yaml:"person"`
	RosterClient    string   `json:"roster_client" yaml:"roster_client"`
	PlannerClient   string   `json:"planner_client" yaml:"planner_client"`
	RosterProjects  []string `json:"roster_projects" yaml:"roster_projects"`   // distinct, sorted
	PlannerProjects []string `json:"planner_projects" yaml:"planner_projects"` // distinct, sorted
	Status          Status   `json:"status" yaml:"status"`
}

// Multimatch reports whether either side of the entry carries more than
// one distinct project.
func (e Entry) Multimatch() bool {
	return len(e.RosterProjects) > 1 || len(e.PlannerProjects) > 1
}

// Candidate is a pairing confirmed from only one mapping direction. The
// two keys agree when mapped in the producing direction but not when
// mapped back, so the pair is reported separately instead of being
// treated as a match.
type Candidate struct {
	RosterKey  Key       `json:"roster_key" yaml:"roster_key"`
	PlannerKey Key       `json:"planner_key" yaml:"planner_key"`
	Direction  Direction `json:"direction" yaml:"direction"`
}

// Stats summarizes a matching pass for logging and report summaries.
type Stats struct {
	RosterKeys       int `json:"roster_keys" yaml:"roster_keys"`             // distinct composite keys on the roster side
	PlannerKeys      int `json:"planner_keys" yaml:"planner_keys"`           // distinct composite keys on the planner side
	Bidirectional    int `json:"bidirectional" yaml:"bidirectional"`         // mutually confirmed pairs
	Multimatch       int `json:"multimatch" yaml:"multimatch"`               // confirmed pairs with project ambiguity
	ForwardOnly      int `json:"forward_only" yaml:"forward_only"`           // pairs confirmed from the roster direction only
	BackwardOnly     int `json:"backward_only" yaml:"backward_only"`         // pairs confirmed from the planner direction only
	UnmatchedRoster  int `json:"unmatched_roster" yaml:"unmatched_roster"`   // roster keys that appear in no pair
	UnmatchedPlanner int `json:"unmatched_planner" yaml:"unmatched_planner"` // planner keys that appear in no pair
	SentinelSkipped  int `json:"sentinel_skipped" yaml:"sentinel_skipped"`   // sentinel keys dropped from unmatched reporting
	NullCoercions    int `json:"null_coercions" yaml:"null_coercions"`       // records with a blank person or client field
}

// Outcome carries everything one matching pass produced. Matches,
// candidates, and unmatched keys are sorted, so identical inputs always
// produce identical outcomes.
type Outcome struct {
	Matches          []Entry     `json:"matches" yaml:"matches"`                     // confirmed pairs, MATCH and MULTIMATCH
	OneWay           []Candidate `json:"one_way" yaml:"one_way"`                     // pairs confirmed from a single direction
	UnmatchedRoster  []Key       `json:"unmatched_roster" yaml:"unmatched_roster"`   // roster keys that appear in no pair
	UnmatchedPlanner []Key       `json:"unmatched_planner" yaml:"unmatched_planner"` // planner keys that appear in no pair
	Stats            Stats       `json:"stats" yaml:"stats"`
}

// Multimatches returns the entries still marked MULTIMATCH.
func (o *Outcome) Multimatches() []Entry {
	var entries []Entry
	for _, e := range o.Matches {
		if e.Status == StatusMultimatch {
			entries = append(entries, e)
		}
	}
	return entries
}

// SortEntries orders entries by client, project list, then person, the
// stable presentation order used by reports. Resolved entries sort with
// their siblings because they share the original entry's client and
// person.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.RosterClient != b.RosterClient {
			return lessFold(a.RosterClient, b.RosterClient)
		}
		ap := strings.Join(a.RosterProjects, "\x00")
		bp := strings.Join(b.RosterProjects, "\x00")
		if ap != bp {
			return lessFold(ap, bp)
		}
		return lessFold(a.Person, b.Person)
	})
}

// SortCandidates orders one-directional candidates by roster key, then
// planner key, then direction.
func SortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RosterKey != b.RosterKey {
			return lessFold(string(a.RosterKey), string(b.RosterKey))
		}
		if a.PlannerKey != b.PlannerKey {
			return lessFold(string(a.PlannerKey), string(b.PlannerKey))
		}
		return a.Direction < b.Direction
	})
}

// SortKeys orders composite keys case-insensitively, falling back to a
// case-sensitive comparison for keys that differ only in case.
func SortKeys(keys []Key) {
	sort.SliceStable(keys, func(i, j int) bool {
		return lessFold(string(keys[i]), string(keys[j]))
	})
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
