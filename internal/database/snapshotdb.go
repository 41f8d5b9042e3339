package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/replaysheet/internal/model"
)

// DatabaseFileName is the file created inside the database directory.
const DatabaseFileName = "replaysheet.db"

// timestampLayout is how snapshot times are stored. It sorts lexically.
const timestampLayout = "2006-01-02 15:04:05.000"

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotDB stores extraction snapshots in SQLite.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapshotDB in dbDir.
// With CreateIfNotExists false a missing database is an error; this lets
// read-only commands fail clearly instead of creating an empty history.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, DatabaseFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run extract first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	// Readers such as history and diff may open the file while extract
	// is writing.
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SnapshotDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		headers_json TEXT NOT NULL,
		rows_json TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		column_count INTEGER NOT NULL,
		fragment_count INTEGER NOT NULL DEFAULT 0,
		diagnostic_count INTEGER NOT NULL DEFAULT 0,
		excluded_style TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_url ON snapshots(url);
	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SnapshotMetadata summarizes a stored snapshot without its table.
type SnapshotMetadata struct {
	// ID is the unique identifier of the snapshot.
	ID int64 `json:"id"`

	// URL is the document URL.
	URL string `json:"url"`

	// Timestamp is when the extraction started.
	Timestamp time.Time `json:"timestamp"`

	// Fingerprint is the table content hash.
	Fingerprint string `json:"fingerprint"`

	// RowCount and ColumnCount describe the table shape.
	RowCount    int `json:"row_count"`
	ColumnCount int `json:"column_count"`

	// FragmentCount is the number of fragments decoded from the action log.
	FragmentCount int `json:"fragment_count"`

	// DiagnosticCount is the number of dropped placement commands.
	DiagnosticCount int `json:"diagnostic_count"`

	// ExcludedStyle is the style group removed as canvas labels.
	ExcludedStyle string `json:"excluded_style,omitempty"`
}

// Snapshot is a stored snapshot including its table.
type Snapshot struct {
	SnapshotMetadata

	// Table is the stored table.
	Table *model.Table `json:"table"`
}

// SaveResult reports the outcome of SaveSnapshot.
type SaveResult struct {
	// ID is the new snapshot's identifier.
	ID int64

	// Changed is true when the table differs from the previous snapshot of
	// the same URL, or when there was none.
	Changed bool

	// PreviousID is the previous snapshot's identifier, or 0.
	PreviousID int64
}

// SaveSnapshot stores the extraction's table as a new snapshot.
func (sdb *SnapshotDB) SaveSnapshot(ctx context.Context, extraction *model.Extraction) (*SaveResult, error) {
	table := extraction.Table
	if table == nil {
		table = model.NewEmptyTable()
	}

	fingerprint := extraction.Fingerprint
	if fingerprint == "" {
		fingerprint = table.Fingerprint()
	}

	headersJSON, err := json.Marshal(table.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize headers: %w", err)
	}
	rowsJSON, err := json.Marshal(table.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize rows: %w", err)
	}

	result := &SaveResult{Changed: true}

	var prevID int64
	var prevFingerprint string
	err = sdb.db.QueryRowContext(ctx, `
	SELECT id, fingerprint FROM snapshots
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`, extraction.URL).Scan(&prevID, &prevFingerprint)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to look up previous snapshot: %w", err)
	default:
		result.PreviousID = prevID
		result.Changed = prevFingerprint != fingerprint
	}

	res, err := sdb.db.ExecContext(ctx, `
	INSERT INTO snapshots (url, timestamp, fingerprint, headers_json, rows_json,
		row_count, column_count, fragment_count, diagnostic_count, excluded_style)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		extraction.URL,
		extraction.DateExtracted.UTC().Format(timestampLayout),
		fingerprint,
		string(headersJSON),
		string(rowsJSON),
		table.RowCount(),
		table.Width(),
		extraction.FragmentCount,
		len(extraction.Diagnostics),
		extraction.ExcludedStyle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	result.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	return result, nil
}

// DocumentSummary describes one document with stored snapshots.
type DocumentSummary struct {
	URL           string    `json:"url"`
	Snapshots     int       `json:"snapshots"`
	LastExtracted time.Time `json:"last_extracted"`
}

// ListDocuments returns every document URL with snapshots, sorted by URL.
func (sdb *SnapshotDB) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT url, COUNT(*), MAX(timestamp) FROM snapshots
	GROUP BY url
	ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentSummary
	for rows.Next() {
		var doc DocumentSummary
		var last string
		if err := rows.Scan(&doc.URL, &doc.Snapshots, &last); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.LastExtracted = parseTimestamp(last)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

const metadataColumns = `id, url, timestamp, fingerprint, row_count, column_count,
	fragment_count, diagnostic_count, excluded_style`

// History returns snapshot metadata for url, newest first.
func (sdb *SnapshotDB) History(ctx context.Context, url string) ([]SnapshotMetadata, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT `+metadataColumns+` FROM snapshots
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	var results []SnapshotMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// Latest returns up to n full snapshots for url, newest first.
func (sdb *SnapshotDB) Latest(ctx context.Context, url string, n int) ([]*Snapshot, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT `+metadataColumns+`, headers_json, rows_json FROM snapshots
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, url, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshots: %w", err)
	}
	defer rows.Close()

	var results []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, snap)
	}

	return results, rows.Err()
}

// GetSnapshot returns the snapshot with the given id, or ErrNotFound.
func (sdb *SnapshotDB) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	row := sdb.db.QueryRowContext(ctx, `
	SELECT `+metadataColumns+`, headers_json, rows_json FROM snapshots
	WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return snap, err
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(r rowScanner) (SnapshotMetadata, error) {
	var meta SnapshotMetadata
	var timestamp string
	var excluded sql.NullString

	if err := r.Scan(&meta.ID, &meta.URL, &timestamp, &meta.Fingerprint,
		&meta.RowCount, &meta.ColumnCount, &meta.FragmentCount,
		&meta.DiagnosticCount, &excluded); err != nil {
		return meta, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	meta.Timestamp = parseTimestamp(timestamp)
	meta.ExcludedStyle = excluded.String
	return meta, nil
}

func scanSnapshot(r rowScanner) (*Snapshot, error) {
	snap := &Snapshot{Table: model.NewEmptyTable()}
	var timestamp, headersJSON, rowsJSON string
	var excluded sql.NullString

	if err := r.Scan(&snap.ID, &snap.URL, &timestamp, &snap.Fingerprint,
		&snap.RowCount, &snap.ColumnCount, &snap.FragmentCount,
		&snap.DiagnosticCount, &excluded, &headersJSON, &rowsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.Timestamp = parseTimestamp(timestamp)
	snap.ExcludedStyle = excluded.String

	if err := json.Unmarshal([]byte(headersJSON), &snap.Table.Headers); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot headers: %w", err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &snap.Table.Rows); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot rows: %w", err)
	}

	return snap, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: the format this package writes comes first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp as UTC, returning the zero time
// when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
