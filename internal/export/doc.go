// Package export writes reconstructed tables to files and streams.
//
// This package contains exporters for the supported formats:
//   - CSVExporter: comma-separated values with a header row
//   - XLSXExporter: an Excel workbook with a single sheet
//   - JSONExporter: header order plus one object per row
//   - MarkdownExporter: a GitHub-flavored Markdown table
//
// Design decision: Exporters only see *model.Table, never the extraction
// that produced it, so the same table can be written in several formats
// and the formats can be tested without a network round trip.
//
// Tables without data rows are never written, even when they have headers:
// every exporter returns ErrEmptyTable.
package export
