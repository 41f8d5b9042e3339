package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/replaysheet/internal/export"
	"github.com/nao1215/replaysheet/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, for example as a
// comment on an issue that tracks a shared sheet.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, GitHub alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter

	// previewRows is the number of data rows shown in the table preview.
	previewRows int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownPreviewRows sets how many data rows are previewed.
func WithMarkdownPreviewRows(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.previewRows = max(n, 0)
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:  newBaseWriter(output),
		previewRows: DefaultPreviewRows,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the extraction summary in Markdown format.
func (w *MarkdownWriter) Write(e *model.Extraction) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sheet Extraction")
	md.PlainText("")

	rows := [][]string{
		{"Document", "`" + e.URL + "`"},
		{"Extracted", e.DateExtracted.Format("2006-01-02 15:04:05 MST")},
		{"Fragments", strconv.Itoa(e.FragmentCount)},
		{"Dropped Commands", strconv.Itoa(len(e.Diagnostics))},
		{"Status", statusText(e)},
	}
	if e.Table != nil {
		rows = append(rows,
			[]string{"Columns", strconv.Itoa(e.Table.Width())},
			[]string{"Rows", strconv.Itoa(e.Table.RowCount())},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, e)
	w.writeDiagnostics(md, e.Diagnostics)
	w.writePreview(md, e.Table)

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeAlert writes an alert matching the extraction outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, e *model.Extraction) {
	switch {
	case e.TimedOut:
		md.Warningf("Extraction timed out: %s", e.ErrorMessage)
	case e.Failed():
		md.Cautionf("Extraction failed: %s", e.ErrorMessage)
	case e.Table == nil || e.Table.IsEmpty():
		md.Importantf("No table data was found in %s.", e.URL)
	case len(e.Diagnostics) > 0:
		md.Note("Some placement commands could not be replayed. See the details below.")
	default:
		md.Tip("Every placement command was replayed.")
	}
	md.PlainText("")
}

// writeDiagnostics lists dropped commands in a collapsible block.
func (w *MarkdownWriter) writeDiagnostics(md *markdown.Markdown, diagnostics []model.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}

	lines := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		lines[i] = "- " + d.String()
	}
	md.Details("Dropped commands ("+strconv.Itoa(len(diagnostics))+")", strings.Join(lines, "\n"))
	md.PlainText("")
}

// writePreview writes the first rows of the table.
func (w *MarkdownWriter) writePreview(md *markdown.Markdown, t *model.Table) {
	if w.previewRows == 0 || t == nil || t.IsEmpty() {
		return
	}

	md.H2("Preview")
	md.PlainText("")

	shown := t.Rows[:min(len(t.Rows), w.previewRows)]
	md.Table(export.MarkdownTable(&model.Table{Headers: t.Headers, Rows: shown}))
	md.PlainText("")

	if hidden := len(t.Rows) - len(shown); hidden > 0 {
		md.PlainTextf("*%d more row(s) not shown.*", hidden)
		md.PlainText("")
	}
}

// WriteDiff outputs the snapshot diff in Markdown format.
func (w *MarkdownWriter) WriteDiff(d *DiffReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sheet Changes")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current"},
		Rows: [][]string{
			{"Snapshot", "#" + strconv.FormatInt(d.Previous.ID, 10), "#" + strconv.FormatInt(d.Current.ID, 10)},
			{"Date", d.Previous.Timestamp.Format("2006-01-02 15:04"), d.Current.Timestamp.Format("2006-01-02 15:04")},
			{"Rows", strconv.Itoa(d.Previous.RowCount), strconv.Itoa(d.Current.RowCount)},
			{"Columns", strconv.Itoa(d.Previous.ColumnCount), strconv.Itoa(d.Current.ColumnCount)},
		},
	})
	md.PlainText("")

	if !d.Changes.HasChanges() {
		md.Tip("The table has not changed.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	if d.Changes.HeadersChanged {
		md.Warningf("Headers changed from `%s` to `%s`.",
			strings.Join(d.Changes.OldHeaders, " | "), strings.Join(d.Changes.NewHeaders, " | "))
		md.PlainText("")
	}

	w.writePieChart(md, d)

	w.writeRowTable(md, "Added Rows", d.Headers, d.Changes.Added)
	w.writeRowTable(md, "Removed Rows", d.PreviousHeaders, d.Changes.Removed)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of row changes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, d *DiffReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Row Changes"),
		piechart.WithShowData(true),
	)

	if n := len(d.Changes.Added); n > 0 {
		chart.LabelAndIntValue("Added", uint64(n))
	}
	if n := len(d.Changes.Removed); n > 0 {
		chart.LabelAndIntValue("Removed", uint64(n))
	}
	if n := d.Unchanged(); n > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(n))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRowTable writes one group of changed rows. Without headers the
// columns are numbered.
func (w *MarkdownWriter) writeRowTable(md *markdown.Markdown, title string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	md.H2(title)
	md.PlainText("")

	width := len(headers)
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	for i := range header {
		if i < len(headers) {
			header[i] = headers[i]
		} else {
			header[i] = "#" + strconv.Itoa(i+1)
		}
	}

	padded := make([][]string, len(rows))
	for i, row := range rows {
		padded[i] = make([]string, width)
		copy(padded[i], row)
	}

	md.Table(export.MarkdownTable(&model.Table{Headers: header, Rows: padded}))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [replaysheet](https://github.com/nao1215/replaysheet)*")
}
