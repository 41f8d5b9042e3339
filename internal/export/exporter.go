package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/replaysheet/internal/model"
)

// ErrEmptyTable is returned when asked to export a table that has no
// headers or no data rows. A header-only table is refused as well.
var ErrEmptyTable = errors.New("no table data to export")

// UnsupportedFormatError is returned for an unknown format name.
type UnsupportedFormatError struct {
	Format string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q (supported: %s)", e.Format, strings.Join(FormatNames(), ", "))
}

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// formatAliases maps accepted spellings to formats.
var formatAliases = map[string]Format{
	"csv":      FormatCSV,
	"xlsx":     FormatXLSX,
	"excel":    FormatXLSX,
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
}

// extensions maps file extensions to formats.
var extensions = map[string]Format{
	".csv":      FormatCSV,
	".xlsx":     FormatXLSX,
	".json":     FormatJSON,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// FormatNames returns the canonical format names, sorted.
func FormatNames() []string {
	return []string{string(FormatCSV), string(FormatJSON), string(FormatMarkdown), string(FormatXLSX)}
}

// ParseFormat resolves a format name. Matching is case-insensitive and
// "excel" and "md" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedFormatError{Format: name}
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Exporter writes a table in one format.
type Exporter interface {
	// Export writes t to w. It returns ErrEmptyTable when t has no data rows.
	Export(w io.Writer, t *model.Table) error
}

// options holds settings shared by all exporters.
type options struct {
	normalize bool
	sheetName string
	indent    bool
}

// Option configures an exporter.
type Option func(*options)

// WithNormalize applies Unicode NFC normalization to every cell before
// writing. Canvas text can mix composed and decomposed forms of the same
// character.
func WithNormalize(enabled bool) Option {
	return func(o *options) {
		o.normalize = enabled
	}
}

// WithSheetName sets the worksheet name used by the XLSX exporter.
func WithSheetName(name string) Option {
	return func(o *options) {
		o.sheetName = name
	}
}

// WithIndent enables indented output for the JSON exporter.
func WithIndent(enabled bool) Option {
	return func(o *options) {
		o.indent = enabled
	}
}

func newOptions(opts []Option) options {
	o := options{sheetName: DefaultSheetName, indent: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// hasNoData reports whether t has nothing worth writing: no headers, or
// headers without a single data row.
func hasNoData(t *model.Table) bool {
	return t.IsEmpty() || t.RowCount() == 0
}

// prepare validates t and applies the shared options.
func (o options) prepare(t *model.Table) (*model.Table, error) {
	if hasNoData(t) {
		return nil, ErrEmptyTable
	}
	if !o.normalize {
		return t, nil
	}
	return Normalize(t), nil
}

// Normalize returns a copy of t with every cell in Unicode NFC.
func Normalize(t *model.Table) *model.Table {
	c := t.Clone()
	for i, h := range c.Headers {
		c.Headers[i] = norm.NFC.String(h)
	}
	for _, row := range c.Rows {
		for j, cell := range row {
			row[j] = norm.NFC.String(cell)
		}
	}
	return c
}

// ForFormat returns the exporter for format, which may be any name
// accepted by ParseFormat.
func ForFormat(format string, opts ...Option) (Exporter, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return New(f, opts...), nil
}

// New returns the exporter for a parsed format.
func New(f Format, opts ...Option) Exporter {
	switch f {
	case FormatXLSX:
		return NewXLSXExporter(opts...)
	case FormatJSON:
		return NewJSONExporter(opts...)
	case FormatMarkdown:
		return NewMarkdownExporter(opts...)
	default:
		return NewCSVExporter(opts...)
	}
}

// WriteFile exports t to path in the given format.
//
// An empty format is inferred from the path extension, falling back to CSV.
// Parent directories are created. The file is written with 0600 permissions
// because sheets fetched with a session cookie may be private. Nothing is
// created for a table without data rows.
func WriteFile(path, format string, t *model.Table, opts ...Option) (Format, error) {
	var f Format
	if format == "" {
		inferred, ok := FormatFromPath(path)
		if !ok {
			inferred = FormatCSV
		}
		f = inferred
	} else {
		parsed, err := ParseFormat(format)
		if err != nil {
			return "", err
		}
		f = parsed
	}

	if hasNoData(t) {
		return f, ErrEmptyTable
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return f, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return f, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := New(f, opts...).Export(file, t); err != nil {
		_ = file.Close()
		return f, fmt.Errorf("failed to write %s output: %w", f, err)
	}

	if err := file.Close(); err != nil {
		return f, fmt.Errorf("failed to close output file: %w", err)
	}

	return f, nil
}
