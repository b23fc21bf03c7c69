package roster

import (
	"context"
	"strings"

	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// dupKey is the business key duplicate assignment rows collapse on.
// The API occasionally reports the same assignment twice under
// different row ids; the first occurrence wins.
type dupKey struct {
	start   string
	end     string
	person  string
	project string
}

// normalize joins the fetched collections into allocation records and
// carries the reference entities the entity diff needs.
//
// Allocation rows are kept only when they join to an unarchived,
// licensed person and an unarchived project; archived rows describe
// work that was cancelled or entered in error. Reference entity lists
// keep everything, flags intact, so downstream filters can make their
// own activity decisions.
func (s *Source) normalize(ctx context.Context, people []apiPerson, clients []apiClient, projects []apiProject, allocations []apiAllocation) *records.Dataset {
	log := logging.Ctx(ctx)
	unit := records.SystemRoster.DefaultUnit()

	activePeople := make(map[int]apiPerson, len(people))
	for _, p := range people {
		if !p.IsArchived && p.HasLicense {
			activePeople[p.ID] = p
		}
	}
	activeProjects := make(map[int]apiProject, len(projects))
	for _, p := range projects {
		if !p.IsArchived {
			activeProjects[p.ID] = p
		}
	}
	clientsByID := make(map[int]apiClient, len(clients))
	for _, c := range clients {
		clientsByID[c.ID] = c
	}

	var droppedInactive, droppedUnjoined, droppedDuplicate int
	seen := make(map[dupKey]struct{}, len(allocations))
	rows := make([]records.AllocationRecord, 0, len(allocations))
	for _, a := range allocations {
		if a.IsArchived {
			droppedInactive++
			continue
		}
		person, ok := activePeople[a.PersonID]
		if !ok {
			droppedUnjoined++
			continue
		}
		project, ok := activeProjects[a.ProjectID]
		if !ok {
			droppedUnjoined++
			continue
		}

		row := records.AllocationRecord{
			System:   records.SystemRoster,
			Person:   person.FullName(),
			Client:   s.clientName(project, clientsByID),
			Project:  project.Name,
			Start:    parseDate(a.StartDate),
			End:      parseDate(a.EndDate),
			Quantity: a.HoursPerDay,
			Unit:     unit,
		}

		key := dupKey{
			start:   row.Start.Format("2006-01-02"),
			end:     row.End.Format("2006-01-02"),
			person:  row.Person,
			project: row.Project,
		}
		if _, dup := seen[key]; dup {
			droppedDuplicate++
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	if droppedInactive+droppedUnjoined+droppedDuplicate > 0 {
		log.Debug().
			Int("archived", droppedInactive).
			Int("unjoined", droppedUnjoined).
			Int("duplicates", droppedDuplicate).
			Msg("roster allocation rows dropped during normalization")
	}

	return &records.Dataset{
		System:      records.SystemRoster,
		Allocations: rows,
		People:      normalizePeople(people),
		Clients:     normalizeClients(clients),
		Projects:    s.normalizeProjects(projects, clientsByID),
	}
}

// clientName resolves an allocation's client, either through the
// project's client id or from the project naming convention when the
// delimiter option is set.
func (s *Source) clientName(project apiProject, clientsByID map[int]apiClient) string {
	if s.clientDelimiter != "" {
		segment, _, _ := strings.Cut(project.Name, s.clientDelimiter)
		return strings.TrimSpace(segment)
	}
	return clientsByID[project.ClientID].Name
}

func normalizePeople(people []apiPerson) []records.Person {
	out := make([]records.Person, 0, len(people))
	for _, p := range people {
		out = append(out, records.Person{
			Name:     p.FullName(),
			Archived: p.IsArchived,
			Licensed: p.HasLicense,
			EndDate:  parseDatePtr(p.EndDate),
		})
	}
	return out
}

func normalizeClients(clients []apiClient) []records.Client {
	out := make([]records.Client, 0, len(clients))
	for _, c := range clients {
		out = append(out, records.Client{
			Name:     c.Name,
			Archived: c.IsArchived,
		})
	}
	return out
}

func (s *Source) normalizeProjects(projects []apiProject, clientsByID map[int]apiClient) []records.Project {
	out := make([]records.Project, 0, len(projects))
	for _, p := range projects {
		client := clientsByID[p.ClientID].Name
		if s.clientDelimiter != "" {
			segment, _, _ := strings.Cut(p.Name, s.clientDelimiter)
			client = strings.TrimSpace(segment)
		}
		out = append(out, records.Project{
			Name:    p.Name,
			Client:  client,
			Start:   parseDatePtr(p.StartDate),
			End:     parseDatePtr(p.EndDate),
			Deleted: p.IsArchived,
		})
	}
	return out
}
