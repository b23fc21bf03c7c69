package diff_test

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

func date(y int, m time.Month, d int) utc.Time {
	return utc.New(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func julyWindow() records.Window {
	return records.MonthWindow(2025, time.July)
}

func alloc(system records.System, person, client, project string, start, end utc.Time) records.AllocationRecord {
	return records.AllocationRecord{
		System:  system,
		Person:  person,
		Client:  client,
		Project: project,
		Start:   start,
		End:     end,
	}
}

func testClientMap() *mapping.ClientMap {
	return mapping.NewClientMap([]mapping.Entry{
		{Source: "Acme", Target: "ACM"},
	})
}

func TestDifferPeople(t *testing.T) {
	retired := date(2025, time.March, 31)
	roster := &records.Dataset{
		System: records.SystemRoster,
		People: []records.Person{
			{Name: "Ann Li", Licensed: true},
			{Name: "Bob Kay", Licensed: true, Archived: true},
			{Name: "Cara Okafor"}, // license revoked
			{Name: "Dan Roe", Licensed: true, EndDate: &retired},
			{Name: constants.DefaultSentinelPerson, Licensed: true},
			{Name: "Gus Fring", Licensed: true},
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		People: []records.Person{
			{Name: "Ann Li"},
			{Name: "Eve Tan", Deleted: true},
			{Name: "Frank Ro"},
		},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindPerson, roster, planner)

	require.Len(t, entries, 2)
	assert.Equal(t, diff.Entry{
		System: records.SystemRoster,
		Kind:   diff.KindPerson,
		Name:   "Gus Fring",
		Reason: diff.ReasonMissing,
	}, entries[0])
	assert.Equal(t, diff.Entry{
		System: records.SystemPlanner,
		Kind:   diff.KindPerson,
		Name:   "Frank Ro",
		Reason: diff.ReasonMissing,
	}, entries[1])
}

func TestDifferPersonEndDateInsideWindowStaysActive(t *testing.T) {
	leaving := date(2025, time.July, 15)
	roster := &records.Dataset{
		System: records.SystemRoster,
		People: []records.Person{{Name: "Ann Li", Licensed: true, EndDate: &leaving}},
	}
	planner := &records.Dataset{System: records.SystemPlanner}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindPerson, roster, planner)

	// Leaving mid-window still counts as active for the window.
	require.Len(t, entries, 1)
	assert.Equal(t, "Ann Li", entries[0].Name)
}

func TestDifferClientsMappedNamesAgree(t *testing.T) {
	roster := &records.Dataset{
		System:  records.SystemRoster,
		Clients: []records.Client{{Name: "Acme"}},
	}
	planner := &records.Dataset{
		System:  records.SystemPlanner,
		Clients: []records.Client{{Name: "ACM"}},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindClient, roster, planner)

	// Acme translates to ACM, so the spelling difference is not a gap.
	assert.Empty(t, entries)
}

func TestDifferClientSecondPass(t *testing.T) {
	w := julyWindow()
	roster := &records.Dataset{
		System: records.SystemRoster,
		Clients: []records.Client{
			{Name: "Hooli"},    // allocations inside the window
			{Name: "Vandelay"}, // projects, nothing booked in July
			{Name: "Initech"},  // no projects at all
		},
		Projects: []records.Project{
			{Name: "Pilot", Client: "Hooli"},
			{Name: "Archive Sweep", Client: "Vandelay"},
		},
		Allocations: []records.AllocationRecord{
			{
				System: records.SystemRoster, Person: "Ann Li", Client: "Hooli", Project: "Pilot",
				Start: date(2025, time.July, 7), End: date(2025, time.July, 18), Quantity: 8,
			},
			{
				System: records.SystemRoster, Person: "Ann Li", Client: "Vandelay", Project: "Archive Sweep",
				Start: date(2025, time.March, 3), End: date(2025, time.March, 28), Quantity: 4,
			},
		},
	}
	planner := &records.Dataset{
		System:  records.SystemPlanner,
		Clients: []records.Client{{Name: "Umbrella"}},
		Allocations: []records.AllocationRecord{
			{
				System: records.SystemPlanner, Person: "Eve Tan", Client: "Umbrella", Project: "Retainer",
				Start: date(2025, time.July, 1), End: date(2025, time.September, 30), Quantity: 50,
			},
		},
	}

	d := diff.NewDiffer(testClientMap(), w)
	entries := d.DiffKind(diff.KindClient, roster, planner)

	require.Len(t, entries, 4)

	byName := make(map[string]diff.Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	assert.Equal(t, diff.ReasonCreate, byName["Hooli"].Reason)
	assert.Equal(t, "create in planner", byName["Hooli"].Description())

	assert.Equal(t, diff.ReasonDormant, byName["Vandelay"].Reason)
	assert.Equal(t, "no projects currently running", byName["Vandelay"].Description())

	assert.Equal(t, diff.ReasonMissing, byName["Initech"].Reason)
	assert.Equal(t, "found in roster but not in planner (after mapping)", byName["Initech"].Description())

	// The second pass is symmetric: planner-only clients get it too.
	assert.Equal(t, records.SystemPlanner, byName["Umbrella"].System)
	assert.Equal(t, diff.ReasonCreate, byName["Umbrella"].Reason)
	assert.Equal(t, "create in roster", byName["Umbrella"].Description())
}

func TestDifferClientMappedFieldRecordsTranslation(t *testing.T) {
	roster := &records.Dataset{
		System:  records.SystemRoster,
		Clients: []records.Client{{Name: "Acme"}},
	}
	planner := &records.Dataset{System: records.SystemPlanner}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindClient, roster, planner)

	require.Len(t, entries, 1)
	assert.Equal(t, "Acme", entries[0].Name)
	assert.Equal(t, "ACM", entries[0].Mapped)
}

func TestDifferArchivedClientsExcluded(t *testing.T) {
	roster := &records.Dataset{
		System:  records.SystemRoster,
		Clients: []records.Client{{Name: "Ghost Corp", Archived: true}},
	}
	planner := &records.Dataset{
		System:  records.SystemPlanner,
		Clients: []records.Client{{Name: "Shell Inc", Deleted: true}},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	assert.Empty(t, d.DiffKind(diff.KindClient, roster, planner))
}

func TestDifferProjects(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			alloc(records.SystemRoster, "Ann Li", "Globex", "Rollout",
				date(2025, time.July, 1), date(2025, time.July, 31)),
			// Finished before July; never enters the window population.
			alloc(records.SystemRoster, "Bob Kay", "Globex", "Legacy Cleanup",
				date(2025, time.January, 1), date(2025, time.February, 28)),
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Allocations: []records.AllocationRecord{
			alloc(records.SystemPlanner, "Ann Li", "Globex", "Rollout",
				date(2025, time.July, 1), date(2025, time.July, 31)),
			alloc(records.SystemPlanner, "Cara Okafor", "Globex", "Expansion",
				date(2025, time.June, 1), date(2025, time.August, 31)),
		},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindProject, roster, planner)

	require.Len(t, entries, 1)
	assert.Equal(t, records.SystemPlanner, entries[0].System)
	assert.Equal(t, "Expansion", entries[0].Name)
	assert.Equal(t, diff.ReasonMissing, entries[0].Reason)
}

func TestDifferProjectsComeFromWindowAllocations(t *testing.T) {
	// The project population is the window-filtered allocations, not the
	// reference project list: a reference-only project with nothing
	// booked on it is not a gap, and a booked project missing from the
	// reference list still is.
	roster := &records.Dataset{System: records.SystemRoster}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		Projects: []records.Project{
			{Name: "Phantom", Client: "Globex"}, // no allocations at all
			{Name: "Expansion", Client: "Globex"},
		},
		Allocations: []records.AllocationRecord{
			alloc(records.SystemPlanner, "Ann Li", "Globex", "Expansion",
				date(2025, time.July, 1), date(2025, time.July, 31)),
			alloc(records.SystemPlanner, "Bob Kay", "Globex", "Skunkworks", // not in the reference list
				date(2025, time.July, 7), date(2025, time.July, 18)),
		},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindProject, roster, planner)

	require.Len(t, entries, 2)
	assert.Equal(t, "Expansion", entries[0].Name)
	assert.Equal(t, "Skunkworks", entries[1].Name)
	for _, e := range entries {
		assert.NotEqual(t, "Phantom", e.Name)
	}
}

func TestDifferBothDirectionsDisjoint(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		People: []records.Person{
			{Name: "Ann Li", Licensed: true},
			{Name: "Bob Kay", Licensed: true},
			{Name: "Dan Roe", Licensed: true},
		},
	}
	planner := &records.Dataset{
		System: records.SystemPlanner,
		People: []records.Person{
			{Name: "Ann Li"},
			{Name: "Eve Tan"},
		},
	}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.DiffKind(diff.KindPerson, roster, planner)

	rosterOnly := make(map[string]bool)
	plannerOnly := make(map[string]bool)
	for _, e := range entries {
		if e.System == records.SystemRoster {
			rosterOnly[e.Name] = true
		} else {
			plannerOnly[e.Name] = true
		}
	}

	for name := range rosterOnly {
		assert.False(t, plannerOnly[name], "%q reported on both sides", name)
	}
	// Names present on both sides never show up at all.
	assert.NotContains(t, rosterOnly, "Ann Li")
	assert.NotContains(t, plannerOnly, "Ann Li")
}

func TestDifferCombinedOutputOrder(t *testing.T) {
	roster := &records.Dataset{
		System:   records.SystemRoster,
		People:   []records.Person{{Name: "Zoe Park", Licensed: true}},
		Clients:  []records.Client{{Name: "Initech"}},
		Projects: []records.Project{{Name: "Apollo", Client: "Initech"}},
		Allocations: []records.AllocationRecord{
			alloc(records.SystemRoster, "Zoe Park", "Initech", "Apollo",
				date(2025, time.July, 1), date(2025, time.July, 31)),
		},
	}
	planner := &records.Dataset{System: records.SystemPlanner}

	d := diff.NewDiffer(testClientMap(), julyWindow())
	entries := d.Diff(context.Background(), roster, planner)

	require.Len(t, entries, 3)
	assert.Equal(t, diff.KindPerson, entries[0].Kind)
	assert.Equal(t, diff.KindClient, entries[1].Kind)
	assert.Equal(t, diff.KindProject, entries[2].Kind)
}

func TestDifferNilDatasets(t *testing.T) {
	d := diff.NewDiffer(testClientMap(), julyWindow())
	assert.Empty(t, d.Diff(context.Background(), nil, nil))
}

func TestKindAndReasonValues(t *testing.T) {
	for _, k := range diff.AllKinds() {
		assert.True(t, k.IsValid())
	}
	assert.False(t, diff.Kind("department").IsValid())
	assert.True(t, diff.ReasonCreate.IsValid())
	assert.False(t, diff.Reason("unknown").IsValid())
}
