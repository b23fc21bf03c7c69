package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer writes the report as aligned terminal tables, one per
// section. Sections with no rows are reduced to a "(none)" line so the
// reader can tell an empty result from a missing one.
type TableRenderer struct{}

// Render implements the Renderer interface for terminal output.
func (f *TableRenderer) Render(w io.Writer, r *Report) error {
	if _, err := fmt.Fprintf(w, "%s\n", headline(r)); err != nil {
		return err
	}

	for _, section := range r.Sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", section.Title); err != nil {
			return err
		}
		if section.Empty() {
			if _, err := fmt.Fprintln(w, "(none)"); err != nil {
				return err
			}
			continue
		}
		if err := renderTable(w, section); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, section Section) error {
	table := tablewriter.NewTable(w)

	headers := make([]any, len(section.Headers))
	for i, h := range section.Headers {
		headers[i] = h
	}
	table.Header(headers...)

	for _, row := range section.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func headline(r *Report) string {
	line := fmt.Sprintf("crosscheck report for %s", r.Window)
	if r.RunID != "" {
		line += fmt.Sprintf(" (run %s)", r.RunID)
	}
	return line
}
