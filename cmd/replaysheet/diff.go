package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/replaysheet/internal/config"
	"github.com/nao1215/replaysheet/internal/database"
	"github.com/nao1215/replaysheet/internal/report"
)

// ErrNotEnoughSnapshots is returned when a document has fewer than two
// snapshots and no explicit comparison target was given.
var ErrNotEnoughSnapshots = errors.New("at least 2 snapshots are required for comparison")

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <sheet-url>",
		Short: "Show how a table changed between snapshots",
		Long: `Diff compares two stored snapshots of a document and shows:
- Header changes
- Rows that were added
- Rows that were removed

By default the latest two snapshots are compared. With --with-id the latest
snapshot is compared with the given one. Rows are compared as whole rows,
so an edited cell shows up as one removed and one added row.

Examples:
  # Compare the latest two snapshots
  replaysheet diff https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Compare with snapshot 5 (see "replaysheet history <url>")
  replaysheet diff --with-id 5 https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Output as JSON
  replaysheet diff --json https://docs.qq.com/sheet/DUnRhbGVzYXVy`,
		Args: cobra.ExactArgs(1),
		RunE: runDiffCmd,
	}

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the latest snapshot with the snapshot of this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output the diff in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the diff in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the snapshot database")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runDiffCmd executes the diff command.
func runDiffCmd(cmd *cobra.Command, args []string) error {
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	if withID < 0 {
		return fmt.Errorf("invalid snapshot ID %d", withID)
	}

	db, err := openExistingDB(dbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	diff, err := buildDiff(cmd.Context(), db, args[0], withID)
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		w = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	_, err = w.WriteDiff(diff)
	return err
}

// buildDiff loads the snapshots to compare and diffs their tables.
// The latest snapshot is always the current side.
func buildDiff(ctx context.Context, db *database.SnapshotDB, url string, withID int64) (*report.DiffReport, error) {
	latest, err := db.Latest(ctx, url, 2)
	if err != nil {
		return nil, err
	}

	if len(latest) == 0 {
		return nil, fmt.Errorf("no snapshots found for %s", url)
	}

	current := latest[0]
	var previous *database.Snapshot

	if withID > 0 {
		previous, err = db.GetSnapshot(ctx, withID)
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot %d: %w", withID, err)
		}
		if previous.URL != url {
			return nil, fmt.Errorf("snapshot %d belongs to %s, not %s", withID, previous.URL, url)
		}
	} else {
		if len(latest) < 2 {
			return nil, fmt.Errorf("%w (found %d for %s)", ErrNotEnoughSnapshots, len(latest), url)
		}
		previous = latest[1]
	}

	return report.NewDiffReport(url,
		snapshotInfo(previous),
		snapshotInfo(current),
		previous.Table,
		current.Table,
	), nil
}

// snapshotInfo converts stored metadata to the report's summary form.
func snapshotInfo(s *database.Snapshot) report.SnapshotInfo {
	return report.SnapshotInfo{
		ID:          s.ID,
		Timestamp:   s.Timestamp,
		Fingerprint: s.Fingerprint,
		RowCount:    s.RowCount,
		ColumnCount: s.ColumnCount,
	}
}
