package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
)

// Format selects the output rendering for a report.
type Format string

const (
	// FormatTable renders aligned terminal tables.
	FormatTable Format = "table"
	// FormatMarkdown renders a markdown document.
	FormatMarkdown Format = "markdown"
	// FormatCSV renders comma-separated sections.
	FormatCSV Format = "csv"
	// FormatJSON renders the report as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders the report as YAML.
	FormatYAML Format = "yaml"
)

// String returns the format as a string.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is a known value.
func (f Format) IsValid() bool {
	switch f {
	case FormatTable, FormatMarkdown, FormatCSV, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// ParseFormat converts a string to a Format with validation. The empty
// string is accepted and means "detect".
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatMarkdown, FormatCSV, FormatJSON, FormatYAML, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, markdown, csv, json, yaml", s)
	}
}

// DetectFormat picks the output format: the explicit choice when given,
// tables on a terminal, JSON for pipes and redirects.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// Renderer turns an assembled report into output.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// RendererFunc allows functions to implement Renderer.
type RendererFunc func(io.Writer, *Report) error

// Render implements the Renderer interface.
func (f RendererFunc) Render(w io.Writer, r *Report) error {
	return f(w, r)
}

// NewRenderer returns the renderer for a format. Unknown formats fall
// back to the table renderer.
func NewRenderer(format Format) Renderer {
	switch format {
	case FormatMarkdown:
		return &MarkdownRenderer{}
	case FormatCSV:
		return &CSVRenderer{}
	case FormatJSON:
		return &JSONRenderer{Indent: "  "}
	case FormatYAML:
		return &YAMLRenderer{}
	default:
		return &TableRenderer{}
	}
}

// Render assembles nothing; it renders an already assembled report in
// the given format.
func Render(w io.Writer, r *Report, format Format) error {
	return NewRenderer(format).Render(w, r)
}

// JSONRenderer writes the report as JSON.
type JSONRenderer struct {
	Indent string
}

// Render implements the Renderer interface for JSON output.
func (f *JSONRenderer) Render(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(r)
}

// YAMLRenderer writes the report as YAML.
type YAMLRenderer struct{}

// Render implements the Renderer interface for YAML output.
func (f *YAMLRenderer) Render(w io.Writer, r *Report) error {
	data, err := yaml.MarshalWithOptions(r,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
