package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/go-cmp/cmp"

	pkgerrors "github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

func testDataset() *records.Dataset {
	endDate := utc.New(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	projectStart := utc.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			{
				System:   records.SystemRoster,
				Person:   "Jane Doe",
				Client:   "Acme",
				Project:  "Website Redesign",
				Start:    utc.New(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
				End:      utc.New(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)),
				Quantity: 8,
				Unit:     records.UnitHoursPerDay,
			},
			{
				// Open-ended assignment: zero end date must survive the
				// round trip as zero.
				System:   records.SystemRoster,
				Person:   "Ann Ray",
				Client:   "Hooli",
				Project:  "Data Platform",
				Start:    utc.New(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)),
				Quantity: 4.5,
				Unit:     records.UnitHoursPerDay,
			},
		},
		People: []records.Person{
			{Name: "Jane Doe", Licensed: true},
			{Name: "Gus Fring", Archived: true, Licensed: true, EndDate: &endDate},
		},
		Clients: []records.Client{
			{Name: "Acme"},
			{Name: "Hooli", Archived: true},
		},
		Projects: []records.Project{
			{Name: "Website Redesign", Client: "Acme", Start: &projectStart},
			{Name: "Old Thing", Client: "Hooli", Deleted: true},
		},
		FetchedAt: utc.New(time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC)),
	}
}

func TestWriteAndFetchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testDataset()

	if err := Write(want, dir); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	source := New(dir, records.SystemRoster)
	if source.System() != records.SystemRoster {
		t.Errorf("Expected system roster, got %s", source.System())
	}

	got, err := source.Fetch(context.Background(), records.MonthWindow(2025, time.July))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Expected valid dataset, got %v", err)
	}
}

func TestWriteOverwritesExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	first := testDataset()
	if err := Write(first, dir); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}

	second := testDataset()
	second.Allocations = second.Allocations[:1]
	if err := Write(second, dir); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, err := New(dir, records.SystemRoster).Fetch(context.Background(), records.Window{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got.Allocations) != 1 {
		t.Errorf("Expected 1 allocation after overwrite, got %d", len(got.Allocations))
	}
}

func TestWriteNilDataset(t *testing.T) {
	err := Write(nil, t.TempDir())
	if err == nil {
		t.Fatal("Expected error for nil dataset")
	}

	var validationErr *pkgerrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestWriteCSVUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "allocations.csv")

	err := writeCSV(path, allocationHeader, nil)
	if err == nil {
		t.Fatal("Expected error for unwritable path")
	}

	var ioErr *pkgerrors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError, got %T", err)
	}
	if ioErr.Operation != "write" {
		t.Errorf("Expected operation %q, got %q", "write", ioErr.Operation)
	}
}

func TestWriteMistaggedDataset(t *testing.T) {
	set := testDataset()
	set.Allocations[0].System = records.SystemPlanner

	if err := Write(set, t.TempDir()); err == nil {
		t.Fatal("Expected error for mistagged allocation")
	}
}

func TestFetchMissingSnapshot(t *testing.T) {
	_, err := New(t.TempDir(), records.SystemPlanner).Fetch(context.Background(), records.Window{})
	if err == nil {
		t.Fatal("Expected error for missing snapshot")
	}

	var ioErr *pkgerrors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected IOError, got %T", err)
	}
}

func TestFetchMismatchedMeta(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "planner")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, metaFile), []byte("system: roster\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(dir, records.SystemPlanner).Fetch(context.Background(), records.Window{})
	if err == nil {
		t.Fatal("Expected error for mismatched snapshot system")
	}

	var validationErr *pkgerrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestFetchRejectsUnknownHeader(t *testing.T) {
	dir := t.TempDir()
	set := testDataset()
	if err := Write(set, dir); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Corrupt one header column.
	path := filepath.Join(dir, "roster", allocationsFile)
	if err := os.WriteFile(path, []byte("person,client,project,begin,end,quantity,unit,scenario\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(dir, records.SystemRoster).Fetch(context.Background(), records.Window{})
	if err == nil {
		t.Fatal("Expected error for unknown header")
	}

	var parseErr *pkgerrors.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected ParseError, got %T", err)
	}
}

func TestFetchRejectsBadQuantity(t *testing.T) {
	dir := t.TempDir()
	if err := Write(testDataset(), dir); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	path := filepath.Join(dir, "roster", allocationsFile)
	content := "person,client,project,start,end,quantity,unit,scenario\n" +
		"Jane Doe,Acme,Website Redesign,,,not-a-number,hours_per_day,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(dir, records.SystemRoster).Fetch(context.Background(), records.Window{})
	if err == nil {
		t.Fatal("Expected error for unparseable quantity")
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   utc.Time
	}{
		{"zero", utc.Time{}},
		{"date", utc.New(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))},
		{"timestamp", utc.New(time.Date(2025, 7, 1, 9, 30, 15, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(formatTime(tt.in))
			if err != nil {
				t.Fatalf("parseTime failed: %v", err)
			}
			if !got.Equal(tt.in) {
				t.Errorf("Expected %v, got %v", tt.in, got)
			}
		})
	}
}

func TestCleanup(t *testing.T) {
	if err := New(t.TempDir(), records.SystemRoster).Cleanup(); err != nil {
		t.Errorf("Expected nil from Cleanup, got %v", err)
	}
}
