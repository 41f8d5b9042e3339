package export

import (
	"encoding/json"
	"io"

	"github.com/nao1215/replaysheet/internal/model"
)

// jsonDocument is the JSON export layout. Headers keep the column order,
// which a JSON object cannot carry.
type jsonDocument struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// JSONExporter writes {"headers": [...], "rows": [{header: cell}, ...]}.
//
// Design decision: We use standard encoding/json because map keys are
// written in sorted order, giving stable output, and the layout needs no
// custom marshaling. When two columns share a header the later cell wins
// in the row object; headers still lists every column.
type JSONExporter struct {
	opts options
}

// NewJSONExporter creates a JSON exporter. Output is indented unless
// WithIndent(false) is given.
func NewJSONExporter(opts ...Option) *JSONExporter {
	return &JSONExporter{opts: newOptions(opts)}
}

// Export implements Exporter.
func (e *JSONExporter) Export(w io.Writer, t *model.Table) error {
	t, err := e.opts.prepare(t)
	if err != nil {
		return err
	}

	doc := jsonDocument{
		Headers: t.Headers,
		Rows:    make([]map[string]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			obj[h] = row[i]
		}
		doc.Rows = append(doc.Rows, obj)
	}

	enc := json.NewEncoder(w)
	if e.opts.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
