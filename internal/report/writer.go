package report

import (
	"io"

	"github.com/nao1215/replaysheet/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface so the extract and diff commands can
// pick an output format with one flag and share the same calling code.
type Writer interface {
	// Write outputs a summary of one extraction.
	// Returns the number of bytes written and any error encountered.
	Write(extraction *model.Extraction) (int, error)

	// WriteDiff outputs the changes between two snapshots of a document.
	WriteDiff(diff *DiffReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the extraction summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(extraction *model.Extraction) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(extraction)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiff outputs the diff to all configured Writers.
func (m *MultiWriter) WriteDiff(diff *DiffReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiff(diff)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how an extraction ended.
func statusText(e *model.Extraction) string {
	switch {
	case e.TimedOut:
		return "TIMED OUT"
	case e.Failed():
		return "ERROR - " + e.ErrorMessage
	case e.Table == nil || e.Table.IsEmpty():
		return "Complete (no table data)"
	default:
		return "Complete"
	}
}
