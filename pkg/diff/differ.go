// Package diff reports entities present in one system but absent from
// the other.
//
// Matching (pkg/match) pairs individual allocations; this package works
// one level up, on entity populations. For each kind it builds the set
// of entities active inside the reporting window on each side, applying
// that system's activity filters, and reports the set differences both
// ways. Roster client names are translated through the client map
// before comparison so spelling differences between the systems do not
// surface as false gaps.
package diff

import (
	"context"
	"sort"
	"strings"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Differ computes per-kind presence differences between the two
// systems for one reporting window. The zero value is not usable;
// construct with NewDiffer.
type Differ struct {
	clients  *mapping.ClientMap
	window   records.Window
	sentinel string
}

// DifferOption configures a Differ.
type DifferOption func(*Differ)

// WithSentinel overrides the person name excluded from person-diff
// output.
func WithSentinel(person string) DifferOption {
	return func(d *Differ) {
		d.sentinel = person
	}
}

// NewDiffer returns a Differ that translates roster client names
// through the given map before comparing. A nil map compares names
// verbatim.
func NewDiffer(clients *mapping.ClientMap, window records.Window, opts ...DifferOption) *Differ {
	if clients == nil {
		clients = mapping.NewClientMap(nil)
	}
	d := &Differ{
		clients:  clients,
		window:   window,
		sentinel: constants.DefaultSentinelPerson,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff runs every entity kind and returns the combined entries in
// report order: people, then clients, then projects, each sorted by
// system and name.
func (d *Differ) Diff(ctx context.Context, roster, planner *records.Dataset) []Entry {
	log := logging.Ctx(ctx)

	var entries []Entry
	counts := make(map[Kind]int, len(AllKinds()))
	for _, kind := range AllKinds() {
		kindEntries := d.DiffKind(kind, roster, planner)
		counts[kind] = len(kindEntries)
		entries = append(entries, kindEntries...)
	}

	log.Debug().
		Str("window", d.window.String()).
		Int("people", counts[KindPerson]).
		Int("clients", counts[KindClient]).
		Int("projects", counts[KindProject]).
		Msg("entity diff complete")
	return entries
}

// DiffKind differences one entity kind between the two datasets. Both
// directions are computed in the same pass, so the roster-only and
// planner-only results are disjoint by construction.
func (d *Differ) DiffKind(kind Kind, roster, planner *records.Dataset) []Entry {
	if roster == nil {
		roster = &records.Dataset{System: records.SystemRoster}
	}
	if planner == nil {
		planner = &records.Dataset{System: records.SystemPlanner}
	}

	extract := d.extractorFor(kind)
	rosterNames := extract(roster)
	plannerNames := extract(planner)

	var entries []Entry
	entries = append(entries, d.onlyIn(kind, roster, rosterNames, plannerNames)...)
	entries = append(entries, d.onlyIn(kind, planner, plannerNames, rosterNames)...)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].System != entries[j].System {
			return entries[i].System == records.SystemRoster
		}
		return lessFold(entries[i].Name, entries[j].Name)
	})
	return entries
}

// onlyIn reports the entities of ds whose comparison names are absent
// from the other side's set.
func (d *Differ) onlyIn(kind Kind, ds *records.Dataset, own, other map[string]string) []Entry {
	var entries []Entry
	for compare, display := range own {
		if _, ok := other[compare]; ok {
			continue
		}
		entry := Entry{
			System: ds.System,
			Kind:   kind,
			Name:   display,
			Reason: ReasonMissing,
		}
		if compare != display {
			entry.Mapped = compare
		}
		if kind == KindClient {
			entry.Reason = d.clientReason(ds, display)
		}
		entries = append(entries, entry)
	}
	return entries
}

// extractorFor returns the active-set builder for one entity kind. The
// maps it builds key the comparison name to the display name; the two
// differ only for roster clients, which are translated before
// comparison.
func (d *Differ) extractorFor(kind Kind) func(*records.Dataset) map[string]string {
	switch kind {
	case KindPerson:
		return d.activePeople
	case KindClient:
		return d.activeClients
	case KindProject:
		return d.activeProjects
	default:
		return func(*records.Dataset) map[string]string { return nil }
	}
}

func (d *Differ) activePeople(ds *records.Dataset) map[string]string {
	names := make(map[string]string, len(ds.People))
	for _, p := range ds.People {
		if !d.activePerson(ds.System, p) {
			continue
		}
		if d.sentinel != "" && p.Name == d.sentinel {
			continue
		}
		names[p.Name] = p.Name
	}
	return names
}

// activePerson applies the per-system activity filters: roster people
// must be unarchived and licensed, planner people not soft-deleted, and
// on both sides an employment end date before the window start retires
// the person.
func (d *Differ) activePerson(system records.System, p records.Person) bool {
	switch system {
	case records.SystemRoster:
		if p.Archived || !p.Licensed {
			return false
		}
	default:
		if p.Deleted {
			return false
		}
	}
	if p.EndDate != nil && !d.window.Start.IsZero() && p.EndDate.Time.Before(d.window.Start.Time) {
		return false
	}
	return true
}

func (d *Differ) activeClients(ds *records.Dataset) map[string]string {
	names := make(map[string]string, len(ds.Clients))
	for _, c := range ds.Clients {
		if c.Archived || c.Deleted {
			continue
		}
		compare := c.Name
		if ds.System == records.SystemRoster {
			compare = d.clients.MapOrSelf(c.Name)
		}
		if _, seen := names[compare]; !seen {
			names[compare] = c.Name
		}
	}
	return names
}

// activeProjects builds the project population from the window-filtered
// allocations, not the reference project list: a project counts only
// when something is actually booked on it inside the window.
func (d *Differ) activeProjects(ds *records.Dataset) map[string]string {
	recs := ds.InWindow(d.window)
	names := make(map[string]string, len(recs))
	for _, a := range recs {
		if a.Project == "" {
			continue
		}
		names[a.Project] = a.Project
	}
	return names
}

// clientReason runs the second pass for a client found on one side
// only: allocations inside the window mean a counterpart should be
// created, projects without in-window allocations mean nothing is
// currently running, and a client with no projects at all is reported
// as plain missing.
func (d *Differ) clientReason(ds *records.Dataset, client string) Reason {
	for _, a := range ds.Allocations {
		if a.Client == client && a.Overlaps(d.window) {
			return ReasonCreate
		}
	}
	for _, p := range ds.Projects {
		if p.Client == client {
			return ReasonDormant
		}
	}
	return ReasonMissing
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
