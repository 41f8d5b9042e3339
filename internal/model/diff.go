package model

import (
	"slices"
	"strings"
)

// TableDiff describes how a table changed between two snapshots.
//
// Rows are compared as whole records: a row whose cells changed shows up as
// one removal and one addition. Duplicate rows are matched by count, so a
// row that appears twice before and once after is reported as removed once.
type TableDiff struct {
	// HeadersChanged is true when the header rows differ.
	HeadersChanged bool `json:"headers_changed"`

	// OldHeaders and NewHeaders are set only when HeadersChanged is true.
	OldHeaders []string `json:"old_headers,omitempty"`
	NewHeaders []string `json:"new_headers,omitempty"`

	// Added are rows present only in the newer table, in its order.
	Added [][]string `json:"added"`

	// Removed are rows present only in the older table, in its order.
	Removed [][]string `json:"removed"`
}

// HasChanges reports whether the diff is non-empty.
func (d *TableDiff) HasChanges() bool {
	return d.HeadersChanged || len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffTables compares an older and a newer table.
func DiffTables(older, newer *Table) *TableDiff {
	if older == nil {
		older = NewEmptyTable()
	}
	if newer == nil {
		newer = NewEmptyTable()
	}

	d := &TableDiff{
		Added:   [][]string{},
		Removed: [][]string{},
	}

	if !slices.Equal(older.Headers, newer.Headers) {
		d.HeadersChanged = true
		d.OldHeaders = older.Headers
		d.NewHeaders = newer.Headers
	}

	d.Removed = rowsNotIn(older.Rows, newer.Rows)
	d.Added = rowsNotIn(newer.Rows, older.Rows)

	return d
}

// rowsNotIn returns the rows of a that have no remaining match in b.
func rowsNotIn(a, b [][]string) [][]string {
	remaining := make(map[string]int, len(b))
	for _, row := range b {
		remaining[rowKey(row)]++
	}

	out := [][]string{}
	for _, row := range a {
		key := rowKey(row)
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		out = append(out, row)
	}
	return out
}

// rowKey joins cells with a unit separator, which does not occur in sheet text.
func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
