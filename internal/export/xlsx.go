package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/replaysheet/internal/model"
)

// DefaultSheetName is the worksheet name of new workbooks.
const DefaultSheetName = "Sheet1"

// XLSXExporter writes an Excel workbook with one worksheet: a bold header
// row followed by the data rows. Every cell is written as text.
type XLSXExporter struct {
	opts options
}

// NewXLSXExporter creates an XLSX exporter.
func NewXLSXExporter(opts ...Option) *XLSXExporter {
	return &XLSXExporter{opts: newOptions(opts)}
}

// Export implements Exporter.
func (e *XLSXExporter) Export(w io.Writer, t *model.Table) error {
	t, err := e.opts.prepare(t)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook, nothing to flush

	sheet := DefaultSheetName
	if e.opts.sheetName != "" && e.opts.sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, e.opts.sheetName); err != nil {
			return fmt.Errorf("failed to name worksheet: %w", err)
		}
		sheet = e.opts.sheetName
	}

	for r, record := range t.Records() {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
