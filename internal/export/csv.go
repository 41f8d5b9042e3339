package export

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/replaysheet/internal/model"
)

// CSVExporter writes the header row followed by the data rows.
type CSVExporter struct {
	opts options
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(opts ...Option) *CSVExporter {
	return &CSVExporter{opts: newOptions(opts)}
}

// Export implements Exporter.
func (e *CSVExporter) Export(w io.Writer, t *model.Table) error {
	t, err := e.opts.prepare(t)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return err
	}
	return cw.Error()
}
