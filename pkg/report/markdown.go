package report

import (
	"io"

	md "github.com/nao1215/markdown"
)

// MarkdownRenderer writes the report as a markdown document with one
// heading and table per section.
type MarkdownRenderer struct{}

// Render implements the Renderer interface for markdown output.
func (f *MarkdownRenderer) Render(w io.Writer, r *Report) error {
	doc := md.NewMarkdown(w).
		H1(headline(r)).
		PlainTextf("Generated at %s.", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")).
		LF()

	for _, section := range r.Sections {
		doc.H2(section.Title)
		if section.Empty() {
			doc.PlainText("(none)").LF()
			continue
		}
		doc.Table(md.TableSet{
			Header: section.Headers,
			Rows:   section.Rows,
		})
		doc.LF()
	}

	return doc.Build()
}
