// Package report assembles one reconciliation run into renderable
// documents.
//
// The assembler flattens the run's outputs into named sections of
// headers and rows, one section per concern: the run summary, the
// confirmed matches, the one-directional candidates, the unmatched keys
// per side, the entity gaps, and optionally the raw allocations that
// fed the run. Renderers then turn the sections into terminal tables,
// markdown, CSV, JSON, or YAML without knowing anything about the
// domain types.
package report

import (
	"strconv"
	"strings"

	"github.com/agentstation/utc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/match"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Section is one named block of tabular report content.
type Section struct {
	ID      string     `json:"id" yaml:"id"`
	Title   string     `json:"title" yaml:"title"`
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Empty reports whether the section has no rows.
func (s Section) Empty() bool {
	return len(s.Rows) == 0
}

// Report is the assembled document for one run.
type Report struct {
	RunID       string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Window      string    `json:"window" yaml:"window"`
	GeneratedAt utc.Time  `json:"generated_at" yaml:"generated_at"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// Option configures report assembly.
type Option func(*builder)

// WithRunID stamps the report with the run identifier.
func WithRunID(id string) Option {
	return func(b *builder) {
		b.runID = id
	}
}

// WithGeneratedAt overrides the generation timestamp.
func WithGeneratedAt(t utc.Time) Option {
	return func(b *builder) {
		b.generated = t
	}
}

// WithResolveStats includes the multimatch resolution counts in the
// summary section.
func WithResolveStats(stats match.ResolveStats) Option {
	return func(b *builder) {
		b.resolve = &stats
	}
}

// WithAllocations appends one raw-allocation section per system, in the
// order given.
func WithAllocations(datasets ...*records.Dataset) Option {
	return func(b *builder) {
		b.datasets = append(b.datasets, datasets...)
	}
}

// WithSections keeps only the named sections, in assembly order. Empty
// means every section.
func WithSections(ids ...string) Option {
	return func(b *builder) {
		b.sections = ids
	}
}

type builder struct {
	runID     string
	generated utc.Time
	resolve   *match.ResolveStats
	datasets  []*records.Dataset
	sections  []string
}

// New assembles the report for one run from the matching outcome and
// the entity gaps.
func New(window records.Window, outcome *match.Outcome, diffs []diff.Entry, opts ...Option) *Report {
	b := &builder{generated: utc.Now()}
	for _, opt := range opts {
		opt(b)
	}
	if outcome == nil {
		outcome = &match.Outcome{}
	}

	r := &Report{
		RunID:       b.runID,
		Window:      window.String(),
		GeneratedAt: b.generated,
	}
	r.Sections = append(r.Sections, summarySection(window, outcome, b.resolve, diffs))
	r.Sections = append(r.Sections, matchesSection(outcome.Matches))
	r.Sections = append(r.Sections, oneWaySection(outcome.OneWay))
	r.Sections = append(r.Sections, keysSection("unmatched_roster", outcome.UnmatchedRoster))
	r.Sections = append(r.Sections, keysSection("unmatched_planner", outcome.UnmatchedPlanner))
	r.Sections = append(r.Sections, gapsSection(diffs))
	for _, ds := range b.datasets {
		if ds != nil {
			r.Sections = append(r.Sections, allocationsSection(ds))
		}
	}
	if len(b.sections) > 0 {
		keep := make(map[string]struct{}, len(b.sections))
		for _, id := range b.sections {
			keep[id] = struct{}{}
		}
		kept := r.Sections[:0]
		for _, s := range r.Sections {
			if _, ok := keep[s.ID]; ok {
				kept = append(kept, s)
			}
		}
		r.Sections = kept
	}
	return r
}

// Section returns the section with the given ID, if present.
func (r *Report) Section(id string) (Section, bool) {
	for _, s := range r.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

var titleCaser = cases.Title(language.English)

// sectionTitle renders a section ID as display text.
func sectionTitle(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func newSection(id string, headers ...string) Section {
	return Section{ID: id, Title: sectionTitle(id), Headers: headers}
}

func summarySection(window records.Window, outcome *match.Outcome, resolve *match.ResolveStats, diffs []diff.Entry) Section {
	s := newSection("summary", "Metric", "Value")
	stats := outcome.Stats
	add := func(metric string, value int) {
		s.Rows = append(s.Rows, []string{metric, strconv.Itoa(value)})
	}

	s.Rows = append(s.Rows, []string{"reporting window", window.String()})
	add("roster keys", stats.RosterKeys)
	add("planner keys", stats.PlannerKeys)
	add("bidirectional matches", stats.Bidirectional)
	add("multimatch entries", stats.Multimatch)
	if resolve != nil {
		add("resolved entries", resolve.Resolved)
		add("fully decomposed", resolve.Decomposed)
	}
	add("one-way candidates", stats.ForwardOnly+stats.BackwardOnly)
	add("unmatched roster keys", stats.UnmatchedRoster)
	add("unmatched planner keys", stats.UnmatchedPlanner)
	add("entity gaps", len(diffs))
	if stats.SentinelSkipped > 0 {
		add("sentinel keys skipped", stats.SentinelSkipped)
	}
	if stats.NullCoercions > 0 {
		add("blank fields coerced", stats.NullCoercions)
	}
	return s
}

func matchesSection(entries []match.Entry) Section {
	s := newSection("matches", "Person", "Roster Client", "Planner Client", "Roster Projects", "Planner Projects", "Status")
	for _, e := range entries {
		s.Rows = append(s.Rows, []string{
			e.Person,
			e.RosterClient,
			e.PlannerClient,
			joinProjects(e.RosterProjects),
			joinProjects(e.PlannerProjects),
			e.Status.String(),
		})
	}
	return s
}

func oneWaySection(candidates []match.Candidate) Section {
	s := newSection("one_way_candidates", "Roster Key", "Planner Key", "Direction")
	for _, c := range candidates {
		s.Rows = append(s.Rows, []string{c.RosterKey.String(), c.PlannerKey.String(), c.Direction.String()})
	}
	return s
}

func keysSection(id string, keys []match.Key) Section {
	s := newSection(id, "Key")
	for _, k := range keys {
		s.Rows = append(s.Rows, []string{k.String()})
	}
	return s
}

func gapsSection(diffs []diff.Entry) Section {
	s := newSection("entity_gaps", "Kind", "System", "Name", "Mapped As", "Detail")
	for _, e := range diffs {
		s.Rows = append(s.Rows, []string{
			e.Kind.String(),
			e.System.String(),
			e.Name,
			e.Mapped,
			e.Description(),
		})
	}
	return s
}

func allocationsSection(ds *records.Dataset) Section {
	s := newSection("allocations_"+ds.System.String(), "Person", "Client", "Project", "Start", "End", "Quantity")
	for _, a := range ds.Allocations {
		s.Rows = append(s.Rows, []string{
			a.Person,
			a.Client,
			a.Project,
			dateCell(a.Start),
			dateCell(a.End),
			a.QuantityLabel(),
		})
	}
	return s
}

func joinProjects(projects []string) string {
	return strings.Join(projects, " - ")
}

func dateCell(t utc.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
