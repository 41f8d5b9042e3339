// Package replay rebuilds a table from a canvas replay action log.
//
// The document service does not store a sheet as rows and columns. Instead it
// records how the sheet was drawn: a semicolon-delimited log in which style
// group commands ("g...") switch the active style and placement commands
// ("q[index,x,y]") draw text-pool entry index at canvas position (x, y).
// This package turns that log back into a table in five stages:
//
//  1. Commands splits the log and classifies each token, threading the
//     active style through the pass as an explicit accumulator.
//  2. Extract resolves placement commands against the text pool, dropping
//     commands with an out-of-range index or unparsable coordinate and
//     reporting them as diagnostics.
//  3. FilterHeaderLabels finds the topmost fragment and removes every
//     fragment sharing its style. On these canvases the topmost element is
//     the corner cell of the row/column gutter, and the whole gutter shares
//     one dedicated style.
//  4. GroupRows sorts fragments by (y, x) and starts a new row whenever y
//     jumps by more than the tolerance from the previous fragment's y.
//  5. Materialize takes the first row as headers and pads or truncates every
//     other row to the header width.
//
// Every stage reads its input and allocates fresh output, so a Reconstructor
// is safe for concurrent use on independent inputs. The package performs no
// I/O.
//
// # Usage
//
//	table, err := replay.ReconstructTable(record.Flyweight.Texts, record.Actions, 5)
//	if err != nil {
//	    return err // only for invalid tolerance
//	}
//	if table.IsEmpty() {
//	    // nothing to export
//	}
package replay
