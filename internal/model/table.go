package model

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Table is the reconstructed tabular data set.
// After materialization every row has exactly len(Headers) cells.
type Table struct {
	// Headers are the column names taken from the first reconstructed row.
	Headers []string `json:"headers"`

	// Rows are the data rows, each normalized to len(Headers) cells.
	Rows [][]string `json:"rows"`
}

// NewEmptyTable returns a table with no headers and no rows.
// Callers should prefer it over nil so that a result is always present.
func NewEmptyTable() *Table {
	return &Table{
		Headers: []string{},
		Rows:    [][]string{},
	}
}

// IsEmpty reports whether the table has no headers.
// A table with headers but zero data rows is not empty by this definition;
// exporters also refuse it, by checking RowCount.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Headers) == 0
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Headers)
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Records returns the header row followed by all data rows.
// This is the shape expected by delimited-text writers.
func (t *Table) Records() [][]string {
	if t.IsEmpty() {
		return [][]string{}
	}
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Headers)
	records = append(records, t.Rows...)
	return records
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return NewEmptyTable()
	}
	c := &Table{
		Headers: append([]string{}, t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		c.Rows[i] = append([]string{}, row...)
	}
	return c
}

// Fingerprint returns a hex SHA3-256 digest of the table content.
// Two tables have the same fingerprint exactly when their headers and rows
// are equal cell by cell. Every cell is length-prefixed so that
// ["ab","c"] and ["a","bc"] hash differently.
func (t *Table) Fingerprint() string {
	h := sha3.New256()
	if t == nil {
		t = NewEmptyTable()
	}

	writeCells(h, t.Headers)
	writeLength(h, len(t.Rows))
	for _, row := range t.Rows {
		writeCells(h, row)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeCells(h hash.Hash, cells []string) {
	writeLength(h, len(cells))
	for _, c := range cells {
		writeLength(h, len(c))
		h.Write([]byte(c)) //nolint:errcheck // hash.Hash.Write never fails
	}
}

func writeLength(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n)) //nolint:gosec // lengths are non-negative
	h.Write(buf[:])                               //nolint:errcheck // hash.Hash.Write never fails
}
