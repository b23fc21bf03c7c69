package crosscheck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentstation/utc"

	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
	"github.com/nexa-labs/crosscheck/pkg/match"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// stubSource feeds a canned dataset into a run and records the lifecycle
// calls it received.
type stubSource struct {
	system  records.System
	dataset *records.Dataset
	err     error
	block   bool // wait for cancellation instead of returning data

	mu       sync.Mutex
	fetched  bool
	canceled bool
	cleaned  bool
}

func (s *stubSource) System() records.System { return s.system }

func (s *stubSource) Fetch(ctx context.Context, _ records.Window) (*records.Dataset, error) {
	s.mu.Lock()
	s.fetched = true
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		s.mu.Lock()
		s.canceled = true
		s.mu.Unlock()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.dataset, nil
}

func (s *stubSource) Cleanup() error {
	s.mu.Lock()
	s.cleaned = true
	s.mu.Unlock()
	return nil
}

func (s *stubSource) state() (fetched, canceled, cleaned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched, s.canceled, s.cleaned
}

func day(y int, m time.Month, d int) utc.Time {
	return utc.New(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// july2025 is the reporting window every test reconciles.
func july2025() records.Window {
	return records.MonthWindow(2025, time.July)
}

func rosterAlloc(person, client, project string) records.AllocationRecord {
	return records.AllocationRecord{
		System:   records.SystemRoster,
		Person:   person,
		Client:   client,
		Project:  project,
		Start:    day(2025, time.July, 1),
		End:      day(2025, time.July, 31),
		Quantity: 8,
		Unit:     records.UnitHoursPerDay,
	}
}

func plannerAlloc(person, client, project string) records.AllocationRecord {
	return records.AllocationRecord{
		System:   records.SystemPlanner,
		Person:   person,
		Client:   client,
		Project:  project,
		Start:    day(2025, time.July, 1),
		End:      day(2025, time.July, 31),
		Quantity: 100,
		Unit:     records.UnitPercent,
		Scenario: "28",
	}
}

func testMapping() *mapping.File {
	return &mapping.File{
		Clients: []mapping.Entry{
			{Source: "Acme Corp", Target: "ACME"},
			{Source: "Globex LLC", Target: "GLX"},
		},
		Rules: []mapping.ProjectRule{
			{RosterProject: "Website. Phase 1", PlannerProject: "Website Build"},
			{RosterProject: "Mobile App. Phase 2", PlannerProject: "Mobile Build"},
		},
	}
}

func newTestRunner(t *testing.T, roster, planner *records.Dataset) (Runner, *stubSource, *stubSource) {
	t.Helper()

	rosterSrc := &stubSource{system: records.SystemRoster, dataset: roster}
	plannerSrc := &stubSource{system: records.SystemPlanner, dataset: planner}

	r, err := New(
		WithSources(rosterSrc, plannerSrc),
		WithMapping(testMapping()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r, rosterSrc, plannerSrc
}

func TestRunReconcilesBothSources(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			rosterAlloc("Jane Doe", "Acme Corp", "Website"),
			rosterAlloc("Ann Ray", "Beta LLC", "Internal Tooling"),
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Allocations: []records.AllocationRecord{
			plannerAlloc("Jane Doe", "ACME", "Website"),
		},
	}

	r, rosterSrc, plannerSrc := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(), RunWithWindow(july2025()))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if result.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
	if got := result.Window.Label; got != "July 2025" {
		t.Errorf("window label = %q, want %q", got, "July 2025")
	}

	if len(result.Outcome.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(result.Outcome.Matches))
	}
	entry := result.Outcome.Matches[0]
	if entry.Person != "Jane Doe" {
		t.Errorf("match person = %q, want %q", entry.Person, "Jane Doe")
	}
	if entry.RosterClient != "Acme Corp" || entry.PlannerClient != "ACME" {
		t.Errorf("match clients = %q / %q, want Acme Corp / ACME", entry.RosterClient, entry.PlannerClient)
	}
	if entry.Status != match.StatusMatch {
		t.Errorf("match status = %q, want %q", entry.Status, match.StatusMatch)
	}

	if len(result.Outcome.UnmatchedRoster) != 1 || result.Outcome.UnmatchedRoster[0] != match.KeyFor("Ann Ray", "Beta LLC") {
		t.Errorf("unmatched roster = %v, want [Ann Ray.Beta LLC]", result.Outcome.UnmatchedRoster)
	}
	if len(result.Outcome.UnmatchedPlanner) != 0 {
		t.Errorf("unmatched planner = %v, want none", result.Outcome.UnmatchedPlanner)
	}

	for name, src := range map[string]*stubSource{"roster": rosterSrc, "planner": plannerSrc} {
		fetched, _, cleaned := src.state()
		if !fetched {
			t.Errorf("%s source was never fetched", name)
		}
		if !cleaned {
			t.Errorf("%s source was never cleaned up", name)
		}
	}

	if summary := result.Summary(); !strings.Contains(summary, "July 2025") || !strings.Contains(summary, "1 matched") {
		t.Errorf("summary = %q, want window and match count", summary)
	}
}

func TestRunResolvesMultimatch(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			rosterAlloc("Jane Doe", "Acme Corp", "Website. Phase 1"),
			rosterAlloc("Jane Doe", "Acme Corp", "Mobile App. Phase 2"),
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Allocations: []records.AllocationRecord{
			plannerAlloc("Jane Doe", "ACME", "Website Build"),
			plannerAlloc("Jane Doe", "ACME", "Mobile Build"),
		},
	}

	r, _, _ := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(), RunWithWindow(july2025()))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.ResolveStats.Multimatch != 1 {
		t.Errorf("multimatch entries examined = %d, want 1", result.ResolveStats.Multimatch)
	}
	if result.ResolveStats.Resolved != 2 {
		t.Errorf("resolved entries = %d, want 2", result.ResolveStats.Resolved)
	}
	if result.ResolveStats.Decomposed != 1 {
		t.Errorf("decomposed entries = %d, want 1", result.ResolveStats.Decomposed)
	}

	if len(result.Outcome.Matches) != 2 {
		t.Fatalf("matches = %d, want 2 resolved entries", len(result.Outcome.Matches))
	}
	for _, entry := range result.Outcome.Matches {
		if entry.Status != match.StatusResolved {
			t.Errorf("entry %v status = %q, want %q", entry.RosterProjects, entry.Status, match.StatusResolved)
		}
	}
}

func TestRunPersonFilter(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			rosterAlloc("Jane Doe", "Acme Corp", "Website"),
			rosterAlloc("Ann Ray", "Acme Corp", "Website"),
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Allocations: []records.AllocationRecord{
			plannerAlloc("Jane Doe", "ACME", "Website"),
			plannerAlloc("Ann Ray", "ACME", "Website"),
		},
	}

	r, _, _ := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(),
		RunWithWindow(july2025()),
		RunWithPerson("jane doe"),
	)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Person != "jane doe" {
		t.Errorf("result person = %q, want the filter value", result.Person)
	}
	if len(result.Outcome.Matches) != 1 {
		t.Fatalf("matches = %d, want only the filtered person", len(result.Outcome.Matches))
	}
	if got := result.Outcome.Matches[0].Person; got != "Jane Doe" {
		t.Errorf("match person = %q, want %q", got, "Jane Doe")
	}
}

func TestRunScopesAllocationsToWindow(t *testing.T) {
	june := records.AllocationRecord{
		System:   records.SystemRoster,
		Person:   "Ann Ray",
		Client:   "Beta LLC",
		Project:  "Internal Tooling",
		Start:    day(2025, time.June, 1),
		End:      day(2025, time.June, 30),
		Quantity: 8,
		Unit:     records.UnitHoursPerDay,
	}
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			rosterAlloc("Jane Doe", "Acme Corp", "Website"),
			june,
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Allocations: []records.AllocationRecord{
			plannerAlloc("Jane Doe", "ACME", "Website"),
		},
	}

	r, _, _ := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(), RunWithWindow(july2025()))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Outcome.UnmatchedRoster) != 0 {
		t.Errorf("unmatched roster = %v, want the June row dropped before matching", result.Outcome.UnmatchedRoster)
	}
	if got := result.Outcome.Stats.RosterKeys; got != 1 {
		t.Errorf("roster keys = %d, want 1", got)
	}
}

func TestRunSourceFailureCancelsPeer(t *testing.T) {
	plannerErr := errors.New("planner down")

	rosterSrc := &stubSource{system: records.SystemRoster, block: true}
	plannerSrc := &stubSource{system: records.SystemPlanner, err: plannerErr}

	r, err := New(WithSources(rosterSrc, plannerSrc), WithMapping(testMapping()))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = r.Run(context.Background(), RunWithWindow(july2025()))
	if !errors.Is(err, plannerErr) {
		t.Fatalf("Run() error = %v, want the planner failure", err)
	}

	_, canceled, cleaned := rosterSrc.state()
	if !canceled {
		t.Error("roster fetch was not canceled after the planner failed")
	}
	if !cleaned {
		t.Error("roster source was not cleaned up after the failure")
	}
}

func TestRunRequiresBothSources(t *testing.T) {
	rosterSrc := &stubSource{system: records.SystemRoster, dataset: &records.Dataset{System: records.SystemRoster}}

	r, err := New(WithSource(rosterSrc))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = r.Run(context.Background(), RunWithWindow(july2025()))
	if err == nil || !strings.Contains(err.Error(), "planner") {
		t.Fatalf("Run() error = %v, want a missing planner source error", err)
	}
}

func TestRunKindsLimitGaps(t *testing.T) {
	roster := &records.Dataset{
		System:      records.SystemRoster,
		Allocations: []records.AllocationRecord{rosterAlloc("Jane Doe", "Acme Corp", "Website")},
		People: []records.Person{
			{Name: "Jane Doe", Licensed: true},
			{Name: "Only Roster", Licensed: true},
		},
		Clients: []records.Client{
			{Name: "Acme Corp"},
			{Name: "Beta LLC"},
		},
	}
	planner := &records.Dataset{
		System:      records.SystemPlanner,
		Allocations: []records.AllocationRecord{plannerAlloc("Jane Doe", "ACME", "Website")},
		People: []records.Person{
			{Name: "Jane Doe"},
		},
		Clients: []records.Client{
			{Name: "ACME"},
		},
	}

	r, _, _ := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(),
		RunWithWindow(july2025()),
		RunWithKinds(diff.KindPerson),
	)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Gaps) == 0 {
		t.Fatal("expected person gaps")
	}
	for _, gap := range result.Gaps {
		if gap.Kind != diff.KindPerson {
			t.Errorf("gap %q kind = %q, want only %q", gap.Name, gap.Kind, diff.KindPerson)
		}
	}

	var sawOnlyRoster bool
	for _, gap := range result.Gaps {
		if gap.Name == "Only Roster" && gap.System == records.SystemRoster {
			sawOnlyRoster = true
		}
	}
	if !sawOnlyRoster {
		t.Error("expected a gap for the person present only in the roster")
	}
}

func TestNewRejectsNilSource(t *testing.T) {
	if _, err := New(WithSource(nil)); err == nil {
		t.Error("New(WithSource(nil)) should fail")
	}
	if _, err := New(WithSources(nil)); err == nil {
		t.Error("New(WithSources(nil)) should fail")
	}
	if _, err := New(WithMapping(nil)); err == nil {
		t.Error("New(WithMapping(nil)) should fail")
	}
}

func TestRunOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []RunOption
		wantErr bool
	}{
		{name: "defaults", opts: nil, wantErr: false},
		{name: "all kinds", opts: []RunOption{RunWithKinds(diff.AllKinds()...)}, wantErr: false},
		{name: "unknown kind", opts: []RunOption{RunWithKinds(diff.Kind("budget"))}, wantErr: true},
		{
			name: "inverted window",
			opts: []RunOption{RunWithWindow(records.Window{
				Start: day(2025, time.July, 31),
				End:   day(2025, time.July, 1),
			})},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRunOptions(tt.opts...).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResultReport(t *testing.T) {
	roster := &records.Dataset{
		System:      records.SystemRoster,
		Allocations: []records.AllocationRecord{rosterAlloc("Jane Doe", "Acme Corp", "Website")},
	}
	planner := &records.Dataset{
		System:      records.SystemPlanner,
		Allocations: []records.AllocationRecord{plannerAlloc("Jane Doe", "ACME", "Website")},
	}

	r, _, _ := newTestRunner(t, roster, planner)

	result, err := r.Run(context.Background(), RunWithWindow(july2025()))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rep := result.Report()
	if rep.RunID != result.RunID {
		t.Errorf("report run ID = %q, want %q", rep.RunID, result.RunID)
	}
	for _, id := range []string{"summary", "matches", "allocations_roster", "allocations_planner"} {
		if _, ok := rep.Section(id); !ok {
			t.Errorf("report is missing section %q", id)
		}
	}
}
