package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"
)

// Window is the reporting period a run is scoped to. Start and End are
// inclusive day bounds.
type Window struct {
	Start utc.Time `json:"start" yaml:"start"`
	End   utc.Time `json:"end" yaml:"end"`
	Label string   `json:"label,omitempty" yaml:"label,omitempty"` // e.g. "July 2025"
}

// Overlaps reports whether [start, end] touches the window. Zero start or
// end dates are treated as open-ended on that side.
func (w Window) Overlaps(start, end utc.Time) bool {
	if !start.IsZero() && start.Time.After(w.End.Time) {
		return false
	}
	if !end.IsZero() && end.Time.Before(w.Start.Time) {
		return false
	}
	return true
}

// Contains reports whether a single date falls inside the window.
func (w Window) Contains(t utc.Time) bool {
	return !t.Time.Before(w.Start.Time) && !t.Time.After(w.End.Time)
}

// String returns the window label, or the date range when unlabeled.
func (w Window) String() string {
	if w.Label != "" {
		return w.Label
	}
	return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// MonthWindow builds the inclusive window covering one calendar month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Window{
		Start: utc.New(start),
		End:   utc.New(end),
		Label: fmt.Sprintf("%s %d", month.String(), year),
	}
}

// months maps lowercase month names and three-letter abbreviations to
// time.Month values.
var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// ParseWindow parses a reporting window from its textual form. Accepted
// forms: "July 2025", "jul 2025", and "2025-07".
func ParseWindow(s string) (Window, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Window{}, fmt.Errorf("empty window")
	}

	if t, err := utc.Parse("2006-01", trimmed); err == nil {
		return MonthWindow(t.Year(), t.Month()), nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) != 2 {
		return Window{}, fmt.Errorf("unrecognized window %q (want \"July 2025\" or \"2025-07\")", s)
	}

	month, ok := months[strings.ToLower(fields[0])]
	if !ok {
		return Window{}, fmt.Errorf("unrecognized month %q", fields[0])
	}

	year, err := strconv.Atoi(fields[1])
	if err != nil || year < 1900 || year > 3000 {
		return Window{}, fmt.Errorf("unrecognized year %q", fields[1])
	}

	return MonthWindow(year, month), nil
}
