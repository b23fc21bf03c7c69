// Package snapshot reads and writes dataset snapshots as CSV files, so a
// reconciliation run can be replayed offline and fetched data can be kept
// for audit.
//
// A snapshot directory holds one subdirectory per system:
//
//	<dir>/roster/meta.yaml
//	<dir>/roster/allocations.csv
//	<dir>/roster/people.csv
//	<dir>/roster/clients.csv
//	<dir>/roster/projects.csv
package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

const (
	metaFile        = "meta.yaml"
	allocationsFile = "allocations.csv"
	peopleFile      = "people.csv"
	clientsFile     = "clients.csv"
	projectsFile    = "projects.csv"

	timeLayout = "2006-01-02T15:04:05Z07:00"
)

var (
	allocationHeader = []string{"person", "client", "project", "start", "end", "quantity", "unit", "scenario"}
	peopleHeader     = []string{"name", "archived", "licensed", "deleted", "end_date"}
	clientsHeader    = []string{"name", "archived", "deleted"}
	projectsHeader   = []string{"name", "client", "start", "end", "deleted"}
)

// meta records which system a snapshot belongs to and when its data was
// originally fetched.
type meta struct {
	System    records.System `yaml:"system"`
	FetchedAt utc.Time       `yaml:"fetched_at"`
	WrittenAt utc.Time       `yaml:"written_at"`
}

// Source loads a previously written snapshot from disk.
type Source struct {
	dir    string
	system records.System
}

// New creates a snapshot source reading dir/<system>/.
func New(dir string, system records.System) *Source {
	return &Source{dir: dir, system: system}
}

// System returns the system this snapshot stands in for.
func (s *Source) System() records.System {
	return s.system
}

// Fetch reads the snapshot back into a dataset. The window is ignored;
// snapshots hold whatever the original fetch returned and the caller
// scopes rows the same way it would for a live source.
func (s *Source) Fetch(_ context.Context, _ records.Window) (*records.Dataset, error) {
	base := filepath.Join(s.dir, s.system.String())

	m, err := readMeta(filepath.Join(base, metaFile))
	if err != nil {
		return nil, err
	}
	if m.System != s.system {
		return nil, &errors.ValidationError{
			Field:   "system",
			Value:   m.System.String(),
			Message: fmt.Sprintf("snapshot in %s belongs to %q", base, m.System),
		}
	}

	dataset := &records.Dataset{System: s.system, FetchedAt: m.FetchedAt}

	rows, err := readCSV(filepath.Join(base, allocationsFile), allocationHeader)
	if err != nil {
		return nil, err
	}
	if dataset.Allocations, err = decodeAllocations(rows, s.system); err != nil {
		return nil, err
	}

	if rows, err = readCSV(filepath.Join(base, peopleFile), peopleHeader); err != nil {
		return nil, err
	}
	if dataset.People, err = decodePeople(rows); err != nil {
		return nil, err
	}

	if rows, err = readCSV(filepath.Join(base, clientsFile), clientsHeader); err != nil {
		return nil, err
	}
	if dataset.Clients, err = decodeClients(rows); err != nil {
		return nil, err
	}

	if rows, err = readCSV(filepath.Join(base, projectsFile), projectsHeader); err != nil {
		return nil, err
	}
	if dataset.Projects, err = decodeProjects(rows); err != nil {
		return nil, err
	}

	logging.Info().
		Str("system", s.system.String()).
		Str("dir", base).
		Int("allocations", len(dataset.Allocations)).
		Int("people", len(dataset.People)).
		Int("clients", len(dataset.Clients)).
		Int("projects", len(dataset.Projects)).
		Msg("snapshot loaded")
	return dataset, nil
}

// Cleanup releases nothing; snapshot directories hold no open resources.
func (s *Source) Cleanup() error {
	return nil
}

func readMeta(path string) (meta, error) {
	var m meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.WrapIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, errors.WrapParse("yaml", path, err)
	}
	return m, nil
}

// readCSV loads every data row of the file, verifying the header matches
// the layout this package writes.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	if len(rows) == 0 {
		return nil, errors.WrapParse("csv", path, fmt.Errorf("missing header row"))
	}
	for i, name := range header {
		if rows[0][i] != name {
			return nil, errors.WrapParse("csv", path,
				fmt.Errorf("header column %d is %q, want %q", i, rows[0][i], name))
		}
	}
	return rows[1:], nil
}

func decodeAllocations(rows [][]string, system records.System) ([]records.AllocationRecord, error) {
	recs := make([]records.AllocationRecord, 0, len(rows))
	for i, row := range rows {
		start, err := parseTime(row[3])
		if err != nil {
			return nil, rowErr(allocationsFile, i, err)
		}
		end, err := parseTime(row[4])
		if err != nil {
			return nil, rowErr(allocationsFile, i, err)
		}
		quantity, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, rowErr(allocationsFile, i, err)
		}
		recs = append(recs, records.AllocationRecord{
			System:   system,
			Person:   row[0],
			Client:   row[1],
			Project:  row[2],
			Start:    start,
			End:      end,
			Quantity: quantity,
			Unit:     records.QuantityUnit(row[6]),
			Scenario: row[7],
		})
	}
	return recs, nil
}

func decodePeople(rows [][]string) ([]records.Person, error) {
	people := make([]records.Person, 0, len(rows))
	for i, row := range rows {
		archived, err := strconv.ParseBool(row[1])
		if err != nil {
			return nil, rowErr(peopleFile, i, err)
		}
		licensed, err := strconv.ParseBool(row[2])
		if err != nil {
			return nil, rowErr(peopleFile, i, err)
		}
		deleted, err := strconv.ParseBool(row[3])
		if err != nil {
			return nil, rowErr(peopleFile, i, err)
		}
		endDate, err := parseTimePtr(row[4])
		if err != nil {
			return nil, rowErr(peopleFile, i, err)
		}
		people = append(people, records.Person{
			Name:     row[0],
			Archived: archived,
			Licensed: licensed,
			Deleted:  deleted,
			EndDate:  endDate,
		})
	}
	return people, nil
}

func decodeClients(rows [][]string) ([]records.Client, error) {
	clients := make([]records.Client, 0, len(rows))
	for i, row := range rows {
		archived, err := strconv.ParseBool(row[1])
		if err != nil {
			return nil, rowErr(clientsFile, i, err)
		}
		deleted, err := strconv.ParseBool(row[2])
		if err != nil {
			return nil, rowErr(clientsFile, i, err)
		}
		clients = append(clients, records.Client{Name: row[0], Archived: archived, Deleted: deleted})
	}
	return clients, nil
}

func decodeProjects(rows [][]string) ([]records.Project, error) {
	projects := make([]records.Project, 0, len(rows))
	for i, row := range rows {
		start, err := parseTimePtr(row[2])
		if err != nil {
			return nil, rowErr(projectsFile, i, err)
		}
		end, err := parseTimePtr(row[3])
		if err != nil {
			return nil, rowErr(projectsFile, i, err)
		}
		deleted, err := strconv.ParseBool(row[4])
		if err != nil {
			return nil, rowErr(projectsFile, i, err)
		}
		projects = append(projects, records.Project{
			Name:    row[0],
			Client:  row[1],
			Start:   start,
			End:     end,
			Deleted: deleted,
		})
	}
	return projects, nil
}

func rowErr(file string, row int, err error) error {
	return errors.WrapParse("csv", file, fmt.Errorf("row %d: %w", row+1, err))
}

// parseTime reads a CSV cell written by formatTime. Empty cells come back
// as the zero time, which the window logic treats as open-ended.
func parseTime(s string) (utc.Time, error) {
	if s == "" {
		return utc.Time{}, nil
	}
	return utc.Parse(timeLayout, s)
}

func parseTimePtr(s string) (*utc.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := utc.Parse(timeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
