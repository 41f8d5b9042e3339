package model

import "fmt"

// DiagnosticKind classifies a recoverable problem found while decoding an
// action log. Diagnostics never abort reconstruction; the offending item is
// dropped and processing continues.
type DiagnosticKind int

const (
	// DiagnosticIndexOutOfRange means a placement command referenced a
	// text-pool index that does not exist. This happens when the pool and
	// the action log of an export are out of sync.
	DiagnosticIndexOutOfRange DiagnosticKind = iota

	// DiagnosticBadCoordinate means an x or y field could not be parsed as a
	// finite float (huge exponents, stray locale characters).
	DiagnosticBadCoordinate

	// DiagnosticBadIndex means the index field did not fit in an int.
	DiagnosticBadIndex
)

// String returns a short machine-friendly name for the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticIndexOutOfRange:
		return "index_out_of_range"
	case DiagnosticBadCoordinate:
		return "bad_coordinate"
	case DiagnosticBadIndex:
		return "bad_index"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diagnostic describes one dropped placement command.
type Diagnostic struct {
	// Kind classifies the problem.
	Kind DiagnosticKind `json:"kind"`

	// Position is the zero-based position of the command in the action log.
	Position int `json:"position"`

	// Index is the text-pool index named by the command, or -1 if unknown.
	Index int `json:"index"`

	// Token is the raw command text.
	Token string `json:"token"`
}

// String returns a human-readable description.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at command %d (index %d): %q", d.Kind, d.Position, d.Index, d.Token)
}
