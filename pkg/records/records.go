// Package records defines the shared data model for workforce-allocation
// reconciliation: allocation rows, the reference entities they refer to
// (people, clients, projects), per-system datasets, and reporting windows.
//
// Records are plain values. Sources build them once per run; the matching
// and diffing packages read them and never mutate them.
package records

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/utc"
)

// AllocationRecord is one person-to-project assignment row as reported by
// one system, normalized to the shared shape.
type AllocationRecord struct {
	System   System       `json:"system" yaml:"system"`                         // Originating system
	Person   string       `json:"person" yaml:"person"`                         // Full person name
	Client   string       `json:"client" yaml:"client"`                         // Client name in the originating system's vocabulary
	Project  string       `json:"project" yaml:"project"`                       // Project name
	Start    utc.Time     `json:"start" yaml:"start"`                           // Assignment start date
	End      utc.Time     `json:"end" yaml:"end"`                               // Assignment end date
	Quantity float64      `json:"quantity" yaml:"quantity"`                     // Allocated amount in the system's unit
	Unit     QuantityUnit `json:"unit,omitempty" yaml:"unit,omitempty"`         // Unit the quantity is expressed in
	Scenario string       `json:"scenario,omitempty" yaml:"scenario,omitempty"` // Planner scenario the row belongs to, if any
}

// QuantityLabel renders the quantity with its unit suffix for reports.
func (r AllocationRecord) QuantityLabel() string {
	if r.Unit == UnitPercent {
		return fmt.Sprintf("%.0f%%", r.Quantity)
	}
	return fmt.Sprintf("%.2g %s", r.Quantity, r.Unit.Label())
}

// Overlaps reports whether the assignment touches the given window.
func (r AllocationRecord) Overlaps(w Window) bool {
	return w.Overlaps(r.Start, r.End)
}

// Person is a reference entity describing one person known to a system.
type Person struct {
	Name     string    `json:"name" yaml:"name"`                             // Full name
	Archived bool      `json:"archived,omitempty" yaml:"archived,omitempty"` // Roster: archived accounts are inactive
	Licensed bool      `json:"licensed,omitempty" yaml:"licensed,omitempty"` // Roster: license revoked means no longer staffed
	Deleted  bool      `json:"deleted,omitempty" yaml:"deleted,omitempty"`   // Planner: soft-deleted rows
	EndDate  *utc.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"` // Employment end date, when known
}

// Client is a reference entity describing one client known to a system.
type Client struct {
	Name     string `json:"name" yaml:"name"`
	Archived bool   `json:"archived,omitempty" yaml:"archived,omitempty"`
	Deleted  bool   `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// Project is a reference entity describing one project known to a system.
type Project struct {
	Name    string    `json:"name" yaml:"name"`
	Client  string    `json:"client,omitempty" yaml:"client,omitempty"` // Owning client name
	Start   *utc.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End     *utc.Time `json:"end,omitempty" yaml:"end,omitempty"`
	Deleted bool      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// RunningIn reports whether the project is active during the window.
// Projects with no dates are treated as always running.
func (p Project) RunningIn(w Window) bool {
	if p.Deleted {
		return false
	}
	if p.Start != nil && p.Start.Time.After(w.End.Time) {
		return false
	}
	if p.End != nil && p.End.Time.Before(w.Start.Time) {
		return false
	}
	return true
}

// Dataset is everything one system reported for a run: the allocation rows
// plus the reference entities needed for activity filtering.
type Dataset struct {
	System      System             `json:"system" yaml:"system"`
	Allocations []AllocationRecord `json:"allocations" yaml:"allocations"`
	People      []Person           `json:"people,omitempty" yaml:"people,omitempty"`
	Clients     []Client           `json:"clients,omitempty" yaml:"clients,omitempty"`
	Projects    []Project          `json:"projects,omitempty" yaml:"projects,omitempty"`
	FetchedAt   utc.Time           `json:"fetched_at" yaml:"fetched_at"`
}

// InWindow returns the allocation rows that overlap the window, preserving
// input order.
func (d *Dataset) InWindow(w Window) []AllocationRecord {
	out := make([]AllocationRecord, 0, len(d.Allocations))
	for _, r := range d.Allocations {
		if r.Overlaps(w) {
			out = append(out, r)
		}
	}
	return out
}

// ProjectsByClient groups the reference projects by owning client name.
func (d *Dataset) ProjectsByClient() map[string][]Project {
	grouped := make(map[string][]Project)
	for _, p := range d.Projects {
		grouped[p.Client] = append(grouped[p.Client], p)
	}
	return grouped
}

// Validate checks the dataset is usable for a run.
func (d *Dataset) Validate() error {
	if !d.System.IsValid() {
		return fmt.Errorf("unknown system %q", d.System)
	}
	for i, r := range d.Allocations {
		if r.System != d.System {
			return fmt.Errorf("allocation %d tagged %q inside %q dataset", i, r.System, d.System)
		}
	}
	return nil
}

// SortAllocations orders rows by client, then project, then person, the
// presentation order shared by all report sections.
func SortAllocations(recs []AllocationRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Client != recs[j].Client {
			return lessFold(recs[i].Client, recs[j].Client)
		}
		if recs[i].Project != recs[j].Project {
			return lessFold(recs[i].Project, recs[j].Project)
		}
		return lessFold(recs[i].Person, recs[j].Person)
	})
}

// lessFold compares case-insensitively, falling back to case-sensitive
// comparison for ties so the order is total.
func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
