package export

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/replaysheet/internal/model"
)

// cellEscaper keeps cell text from breaking the table layout.
var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

// MarkdownExporter writes the table as a GitHub-flavored Markdown table.
type MarkdownExporter struct {
	opts options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts ...Option) *MarkdownExporter {
	return &MarkdownExporter{opts: newOptions(opts)}
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(w io.Writer, t *model.Table) error {
	t, err := e.opts.prepare(t)
	if err != nil {
		return err
	}

	return markdown.NewMarkdown(w).
		Table(MarkdownTable(t)).
		Build()
}

// MarkdownTable converts t to a markdown.TableSet with escaped cells.
func MarkdownTable(t *model.Table) markdown.TableSet {
	set := markdown.TableSet{
		Header: escapeCells(t.Headers),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		set.Rows[i] = escapeCells(row)
	}
	return set
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cellEscaper.Replace(c)
	}
	return out
}
