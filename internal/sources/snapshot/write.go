package snapshot

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Write stores the dataset under dir/<system>/ as one meta file and one
// CSV file per record kind. An existing snapshot for the same system is
// overwritten.
func Write(set *records.Dataset, dir string) error {
	if set == nil {
		return &errors.ValidationError{Field: "dataset", Message: "cannot be nil"}
	}
	if err := set.Validate(); err != nil {
		return errors.WrapValidation("dataset", err)
	}

	base := filepath.Join(dir, set.System.String())
	if err := os.MkdirAll(base, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", base, err)
	}

	if err := writeMeta(base, set); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(base, allocationsFile), allocationHeader, encodeAllocations(set.Allocations)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(base, peopleFile), peopleHeader, encodePeople(set.People)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(base, clientsFile), clientsHeader, encodeClients(set.Clients)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(base, projectsFile), projectsHeader, encodeProjects(set.Projects)); err != nil {
		return err
	}

	logging.Info().
		Str("system", set.System.String()).
		Str("dir", base).
		Int("allocations", len(set.Allocations)).
		Int("people", len(set.People)).
		Int("clients", len(set.Clients)).
		Int("projects", len(set.Projects)).
		Msg("snapshot written")
	return nil
}

func writeMeta(base string, set *records.Dataset) error {
	m := meta{
		System:    set.System,
		FetchedAt: set.FetchedAt,
		WrittenAt: utc.Now(),
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.WrapParse("yaml", metaFile, err)
	}
	path := filepath.Join(base, metaFile)
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// writeCSV builds the file in memory and writes it in one call, so a
// failure anywhere (encoding or the write itself) surfaces instead of
// leaving a silently truncated file behind.
func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return errors.WrapIO("encode", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.WrapIO("encode", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("encode", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func encodeAllocations(recs []records.AllocationRecord) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.Person,
			r.Client,
			r.Project,
			formatTime(r.Start),
			formatTime(r.End),
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			string(r.Unit),
			r.Scenario,
		})
	}
	return rows
}

func encodePeople(people []records.Person) [][]string {
	rows := make([][]string, 0, len(people))
	for _, p := range people {
		rows = append(rows, []string{
			p.Name,
			strconv.FormatBool(p.Archived),
			strconv.FormatBool(p.Licensed),
			strconv.FormatBool(p.Deleted),
			formatTimePtr(p.EndDate),
		})
	}
	return rows
}

func encodeClients(clients []records.Client) [][]string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			c.Name,
			strconv.FormatBool(c.Archived),
			strconv.FormatBool(c.Deleted),
		})
	}
	return rows
}

func encodeProjects(projects []records.Project) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.Name,
			p.Client,
			formatTimePtr(p.Start),
			formatTimePtr(p.End),
			strconv.FormatBool(p.Deleted),
		})
	}
	return rows
}

// formatTime renders a timestamp for the CSV cell. Zero times become empty
// cells so open-ended assignments survive the round trip.
func formatTime(t utc.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatTimePtr(t *utc.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
