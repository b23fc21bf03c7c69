package report

import (
	"encoding/csv"
	"io"
)

// CSVRenderer writes the report as one CSV stream: each non-empty
// section is a block of section name, header row, and data rows, with a
// blank line between blocks. Sections carry different columns, so a
// single flat table would lose the structure.
type CSVRenderer struct{}

// Render implements the Renderer interface for CSV output.
func (f *CSVRenderer) Render(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	first := true
	for _, section := range r.Sections {
		if section.Empty() {
			continue
		}
		if !first {
			// csv.Writer has no blank-line concept; write a single
			// empty field which round-trips as an empty record.
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		first = false

		if err := cw.Write([]string{section.Title}); err != nil {
			return err
		}
		if err := cw.Write(section.Headers); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
