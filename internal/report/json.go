package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/replaysheet/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json. The report types carry
// json tags already and nothing in the output needs more than Marshal.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in extraction reports when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in extraction reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// ExtractionReport wraps an extraction with output metadata.
//
// Design decision: We wrap the extraction rather than adding fields to
// model.Extraction, so output-only data stays out of the core type.
type ExtractionReport struct {
	// Version is the replaysheet version that produced the report.
	Version string `json:"version,omitempty"`

	// Status is a short human-readable outcome.
	Status string `json:"status"`

	// Extraction is the full run result including the table.
	Extraction *model.Extraction `json:"extraction"`
}

// Write outputs the extraction in JSON format.
func (w *JSONWriter) Write(extraction *model.Extraction) (int, error) {
	return w.writeJSON(&ExtractionReport{
		Version:    w.version,
		Status:     statusText(extraction),
		Extraction: extraction,
	})
}

// WriteDiff outputs the diff in JSON format.
func (w *JSONWriter) WriteDiff(diff *DiffReport) (int, error) {
	return w.writeJSON(diff)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
