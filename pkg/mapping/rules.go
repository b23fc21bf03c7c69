package mapping

// ProjectRule decomposes one roster project out of a multimatch. Lookups are
// exact string equality on the roster project name; there is no pattern
// matching.
type ProjectRule struct {
	RosterProject  string `json:"roster_project" yaml:"roster_project"`
	PlannerProject string `json:"planner_project" yaml:"planner_project"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Active         *bool  `json:"active,omitempty" yaml:"active,omitempty"` // nil means active
}

// enabled reports whether the rule participates in resolution.
func (r ProjectRule) enabled() bool {
	return r.RosterProject != "" && r.PlannerProject != "" && (r.Active == nil || *r.Active)
}

// ProjectRules is the rule table keyed by roster project name.
type ProjectRules struct {
	byRoster map[string]ProjectRule
}

// NewProjectRules builds the rule table, skipping disabled or incomplete
// rows. The first rule for a roster project wins.
func NewProjectRules(rules []ProjectRule) *ProjectRules {
	t := &ProjectRules{
		byRoster: make(map[string]ProjectRule, len(rules)),
	}
	for _, r := range rules {
		if !r.enabled() {
			continue
		}
		if _, seen := t.byRoster[r.RosterProject]; seen {
			continue
		}
		t.byRoster[r.RosterProject] = r
	}
	return t
}

// Lookup returns the rule for a roster project, if one exists.
func (t *ProjectRules) Lookup(rosterProject string) (ProjectRule, bool) {
	r, ok := t.byRoster[rosterProject]
	return r, ok
}

// Len returns the number of active rules.
func (t *ProjectRules) Len() int {
	return len(t.byRoster)
}
