package report

import (
	"time"

	"github.com/nao1215/replaysheet/internal/model"
)

// SnapshotInfo identifies one side of a diff.
type SnapshotInfo struct {
	// ID is the snapshot's database identifier.
	ID int64 `json:"id"`

	// Timestamp is when the snapshot was extracted.
	Timestamp time.Time `json:"timestamp"`

	// Fingerprint is the table content hash.
	Fingerprint string `json:"fingerprint"`

	// RowCount is the number of data rows.
	RowCount int `json:"row_count"`

	// ColumnCount is the number of columns.
	ColumnCount int `json:"column_count"`
}

// DiffReport is the result of comparing two snapshots of one document.
type DiffReport struct {
	// URL is the document URL.
	URL string `json:"url"`

	// Previous is the older snapshot.
	Previous SnapshotInfo `json:"previous"`

	// Current is the newer snapshot.
	Current SnapshotInfo `json:"current"`

	// Headers are the current table's headers, used to label added rows.
	Headers []string `json:"headers"`

	// PreviousHeaders label removed rows.
	PreviousHeaders []string `json:"previous_headers"`

	// Changes lists header, added and removed rows.
	Changes *model.TableDiff `json:"changes"`
}

// NewDiffReport compares two tables and wraps the result.
func NewDiffReport(url string, previous, current SnapshotInfo, older, newer *model.Table) *DiffReport {
	d := &DiffReport{
		URL:      url,
		Previous: previous,
		Current:  current,
		Changes:  model.DiffTables(older, newer),
	}
	if newer != nil {
		d.Headers = newer.Headers
	}
	if older != nil {
		d.PreviousHeaders = older.Headers
	}
	return d
}

// Unchanged returns the number of current rows also present before.
func (d *DiffReport) Unchanged() int {
	if n := d.Current.RowCount - len(d.Changes.Added); n > 0 {
		return n
	}
	return 0
}
