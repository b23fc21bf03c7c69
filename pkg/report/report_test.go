package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/match"
	"github.com/nexa-labs/crosscheck/pkg/records"
	"github.com/nexa-labs/crosscheck/pkg/report"
)

func date(y int, m time.Month, d int) utc.Time {
	return utc.New(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func sampleOutcome() *match.Outcome {
	return &match.Outcome{
		Matches: []match.Entry{
			{
				RosterKey:       "J. Doe.Acme",
				PlannerKey:      "J. Doe.ACM",
				Person:          "J. Doe",
				RosterClient:    "Acme",
				PlannerClient:   "ACM",
				RosterProjects:  []string{"P1", "P2"},
				PlannerProjects: []string{"P1"},
				Status:          match.StatusMultimatch,
			},
		},
		OneWay: []match.Candidate{
			{RosterKey: "Bob Kay.Globex", PlannerKey: "Bob Kay.Globex", Direction: match.DirectionForward},
		},
		UnmatchedRoster:  []match.Key{"Dan Roe.Hooli"},
		UnmatchedPlanner: []match.Key{"Eve Tan.Umbrella"},
		Stats: match.Stats{
			RosterKeys:       4,
			PlannerKeys:      3,
			Bidirectional:    1,
			Multimatch:       1,
			ForwardOnly:      1,
			UnmatchedRoster:  1,
			UnmatchedPlanner: 1,
		},
	}
}

func sampleDiffs() []diff.Entry {
	return []diff.Entry{
		{System: records.SystemRoster, Kind: diff.KindClient, Name: "Hooli", Reason: diff.ReasonCreate},
	}
}

func sampleReport() *report.Report {
	return report.New(
		records.MonthWindow(2025, time.July),
		sampleOutcome(),
		sampleDiffs(),
		report.WithRunID("b2c3"),
		report.WithGeneratedAt(date(2025, time.August, 1)),
		report.WithResolveStats(match.ResolveStats{Multimatch: 1, Resolved: 1}),
	)
}

func TestNewAssemblesSections(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, "July 2025", r.Window)
	assert.Equal(t, "b2c3", r.RunID)

	var ids []string
	for _, s := range r.Sections {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{
		"summary",
		"matches",
		"one_way_candidates",
		"unmatched_roster",
		"unmatched_planner",
		"entity_gaps",
	}, ids)

	matches, ok := r.Section("matches")
	require.True(t, ok)
	require.Len(t, matches.Rows, 1)
	assert.Equal(t, []string{"J. Doe", "Acme", "ACM", "P1 - P2", "P1", "MULTIMATCH"}, matches.Rows[0])

	oneWay, ok := r.Section("one_way_candidates")
	require.True(t, ok)
	assert.Equal(t, "One Way Candidates", oneWay.Title)
	require.Len(t, oneWay.Rows, 1)
	assert.Equal(t, "forward", oneWay.Rows[0][2])

	gaps, ok := r.Section("entity_gaps")
	require.True(t, ok)
	require.Len(t, gaps.Rows, 1)
	assert.Equal(t, "create in planner", gaps.Rows[0][4])
}

func TestSummaryRows(t *testing.T) {
	r := sampleReport()

	summary, ok := r.Section("summary")
	require.True(t, ok)

	values := make(map[string]string, len(summary.Rows))
	for _, row := range summary.Rows {
		values[row[0]] = row[1]
	}
	assert.Equal(t, "July 2025", values["reporting window"])
	assert.Equal(t, "4", values["roster keys"])
	assert.Equal(t, "1", values["bidirectional matches"])
	assert.Equal(t, "1", values["resolved entries"])
	assert.Equal(t, "1", values["one-way candidates"])
	assert.Equal(t, "1", values["entity gaps"])

	// Zero-noise runs do not report noise rows.
	assert.NotContains(t, values, "blank fields coerced")
	assert.NotContains(t, values, "sentinel keys skipped")
}

func TestWithAllocationsAppendsSections(t *testing.T) {
	roster := &records.Dataset{
		System: records.SystemRoster,
		Allocations: []records.AllocationRecord{
			{
				System: records.SystemRoster, Person: "J. Doe", Client: "Acme", Project: "P1",
				Start: date(2025, time.July, 1), End: date(2025, time.July, 31),
				Quantity: 8, Unit: records.UnitHoursPerDay,
			},
		},
	}

	r := report.New(records.MonthWindow(2025, time.July), sampleOutcome(), nil,
		report.WithAllocations(roster))

	section, ok := r.Section("allocations_roster")
	require.True(t, ok)
	assert.Equal(t, "Allocations Roster", section.Title)
	require.Len(t, section.Rows, 1)
	assert.Equal(t, "2025-07-01", section.Rows[0][3])
	assert.Equal(t, "2025-07-31", section.Rows[0][4])
	assert.Equal(t, "8 h/day", section.Rows[0][5])
}

func TestWithSectionsFilters(t *testing.T) {
	r := report.New(records.MonthWindow(2025, time.July), sampleOutcome(), sampleDiffs(),
		report.WithSections("summary", "entity_gaps"))

	var ids []string
	for _, s := range r.Sections {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"summary", "entity_gaps"}, ids)

	_, ok := r.Section("matches")
	assert.False(t, ok, "filtered sections should be gone")
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := report.Render(&buf, sampleReport(), report.FormatTable)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "crosscheck report for July 2025 (run b2c3)")
	assert.Contains(t, out, "Matches")
	assert.Contains(t, out, "J. Doe")
	assert.Contains(t, out, "MULTIMATCH")
	assert.Contains(t, out, "Dan Roe.Hooli")
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := report.Render(&buf, sampleReport(), report.FormatMarkdown)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "# crosscheck report for July 2025")
	assert.Contains(t, out, "## Matches")
	assert.Contains(t, out, "## Entity Gaps")
	assert.Contains(t, out, "P1 - P2")
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := report.Render(&buf, sampleReport(), report.FormatCSV)
	require.NoError(t, err)

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	var sawMatches bool
	for i, row := range rows {
		if len(row) == 1 && row[0] == "Matches" {
			sawMatches = true
			require.Greater(t, len(rows), i+2)
			assert.Equal(t, "Person", rows[i+1][0])
			assert.Equal(t, "J. Doe", rows[i+2][0])
		}
	}
	assert.True(t, sawMatches, "matches block missing from CSV output")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := report.Render(&buf, sampleReport(), report.FormatJSON)
	require.NoError(t, err)

	var decoded report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "b2c3", decoded.RunID)
	assert.Equal(t, "July 2025", decoded.Window)
	assert.Len(t, decoded.Sections, 6)
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := report.Render(&buf, sampleReport(), report.FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "run_id: b2c3")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{"table", report.FormatTable, false},
		{"MARKDOWN", report.FormatMarkdown, false},
		{"csv", report.FormatCSV, false},
		{"", "", false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := report.ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestEmptySectionsRenderAsNone(t *testing.T) {
	r := report.New(records.MonthWindow(2025, time.July), &match.Outcome{}, nil)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, r, report.FormatTable))
	assert.Contains(t, buf.String(), "(none)")

	buf.Reset()
	require.NoError(t, report.Render(&buf, r, report.FormatCSV))
	// Only non-empty sections are written; the summary always has rows.
	assert.Contains(t, buf.String(), "Summary")
	assert.NotContains(t, buf.String(), "Matches")
}