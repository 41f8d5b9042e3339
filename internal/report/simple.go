package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nao1215/replaysheet/internal/model"
)

const (
	// DefaultPreviewRows is how many data rows the terminal preview shows.
	DefaultPreviewRows = 10

	// maxCellWidth caps the display width of one preview column.
	maxCellWidth = 24

	// ruleWidth is the width of section separators.
	ruleWidth = 70
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII separators rather than ANSI
// colors, so the output pipes cleanly to files. Column alignment uses
// display width (go-runewidth) because sheet cells are often CJK text,
// which takes two terminal cells per rune.
type SimpleWriter struct {
	baseWriter

	// previewRows is the number of data rows shown. Zero hides the preview.
	previewRows int

	// verbose lists every dropped placement command.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithPreviewRows sets how many data rows are previewed.
func WithPreviewRows(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.previewRows = max(n, 0)
	}
}

// WithVerbose enables additional detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		previewRows: DefaultPreviewRows,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the extraction summary in human-readable format.
func (w *SimpleWriter) Write(e *model.Extraction) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "REPLAYSHEET EXTRACTION")

	fmt.Fprintf(&sb, "Document:       %s\n", e.URL)
	fmt.Fprintf(&sb, "Extracted:      %s\n", e.DateExtracted.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Page Size:      %d bytes\n", e.PageSize)
	fmt.Fprintf(&sb, "Fragments:      %d\n", e.FragmentCount)
	if e.ExcludedStyle != "" {
		fmt.Fprintf(&sb, "Label Style:    %s (removed)\n", e.ExcludedStyle)
	}
	if e.Table != nil {
		fmt.Fprintf(&sb, "Table:          %d columns x %d rows\n", e.Table.Width(), e.Table.RowCount())
	}
	fmt.Fprintf(&sb, "Status:         %s\n\n", statusText(e))

	w.writeDiagnostics(&sb, e.Diagnostics)
	w.writePreview(&sb, e.Table)

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// writeDiagnostics writes the dropped command section.
func (w *SimpleWriter) writeDiagnostics(sb *strings.Builder, diagnostics []model.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}

	writeSection(sb, "DROPPED COMMANDS")
	fmt.Fprintf(sb, "  %d placement command(s) could not be replayed\n", len(diagnostics))

	if w.verbose {
		for _, d := range diagnostics {
			fmt.Fprintf(sb, "  [-] %s\n", d.String())
		}
	} else {
		sb.WriteString("  Use --verbose to list them\n")
	}
	sb.WriteString("\n")
}

// writePreview writes the first rows of the table, column-aligned.
func (w *SimpleWriter) writePreview(sb *strings.Builder, t *model.Table) {
	if w.previewRows == 0 || t == nil || t.IsEmpty() {
		return
	}

	writeSection(sb, "TABLE PREVIEW")

	shown := t.Rows[:min(len(t.Rows), w.previewRows)]
	lines := append([][]string{t.Headers}, shown...)
	widths := columnWidths(lines)

	writeAligned(sb, t.Headers, widths)
	separators := make([]string, len(widths))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	writeAligned(sb, separators, widths)
	for _, row := range shown {
		writeAligned(sb, row, widths)
	}

	if hidden := len(t.Rows) - len(shown); hidden > 0 {
		fmt.Fprintf(sb, "  ... %d more row(s)\n", hidden)
	}
	sb.WriteString("\n")
}

// WriteDiff outputs the snapshot diff in human-readable format.
func (w *SimpleWriter) WriteDiff(d *DiffReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "REPLAYSHEET SNAPSHOT DIFF")

	fmt.Fprintf(&sb, "Document:       %s\n", d.URL)
	fmt.Fprintf(&sb, "Previous:       #%d  %s  (%d rows)\n",
		d.Previous.ID, d.Previous.Timestamp.Format("2006-01-02 15:04:05"), d.Previous.RowCount)
	fmt.Fprintf(&sb, "Current:        #%d  %s  (%d rows)\n\n",
		d.Current.ID, d.Current.Timestamp.Format("2006-01-02 15:04:05"), d.Current.RowCount)

	if !d.Changes.HasChanges() {
		sb.WriteString("  No changes.\n\n")
	} else {
		if d.Changes.HeadersChanged {
			writeSection(&sb, "HEADERS CHANGED")
			fmt.Fprintf(&sb, "  - %s\n", strings.Join(d.Changes.OldHeaders, " | "))
			fmt.Fprintf(&sb, "  + %s\n\n", strings.Join(d.Changes.NewHeaders, " | "))
		}

		writeRowChanges(&sb, "ADDED ROWS", "+", d.Changes.Added)
		writeRowChanges(&sb, "REMOVED ROWS", "-", d.Changes.Removed)

		fmt.Fprintf(&sb, "  Summary: +%d  -%d  =%d\n\n",
			len(d.Changes.Added), len(d.Changes.Removed), d.Unchanged())
	}

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func writeRowChanges(sb *strings.Builder, title, marker string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	writeSection(sb, title)
	for _, row := range rows {
		fmt.Fprintf(sb, "  %s %s\n", marker, strings.Join(row, " | "))
	}
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// columnWidths returns the display width of each column, capped at
// maxCellWidth.
func columnWidths(lines [][]string) []int {
	widths := make([]int, len(lines[0]))
	for _, line := range lines {
		for i, cell := range line {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxCellWidth))
		}
	}
	return widths
}

// writeAligned writes one preview line, padding or truncating every cell
// to its column's display width.
func writeAligned(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString(" ")
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = strings.ReplaceAll(cell, "\n", " ")
		cell = runewidth.Truncate(cell, width, "…")
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(cell, width))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}
