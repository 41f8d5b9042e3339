package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/replaysheet/internal/config"
	"github.com/nao1215/replaysheet/internal/database"
)

// historyTimeLayout is how snapshot times are shown in listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [sheet-url]",
		Short: "List stored snapshots",
		Long: `History lists the snapshots stored by "replaysheet extract".

Without a URL (or with --list-documents) it lists every document in the
database. With a URL it lists that document's snapshots, newest first.
The snapshot IDs can be passed to "replaysheet diff --with-id".

Examples:
  # List all documents
  replaysheet history

  # List snapshots of one document
  replaysheet history https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Machine-readable output
  replaysheet history --json https://docs.qq.com/sheet/DUnRhbGVzYXVy`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-documents", "L", false,
		"List all documents in the database")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the snapshot database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listDocuments, err := cmd.Flags().GetBool("list-documents")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	if listDocuments && len(args) > 0 {
		return fmt.Errorf("--list-documents does not take a URL (got %q)", args[0])
	}

	db, err := openExistingDB(dbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listStoredDocuments(cmd, db, out, jsonOutput)
	}
	return listSnapshotHistory(cmd, db, out, args[0], jsonOutput)
}

// openExistingDB opens the snapshot database without creating it.
func openExistingDB(dbDir string) (*database.SnapshotDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listStoredDocuments lists all documents that have snapshots.
func listStoredDocuments(cmd *cobra.Command, db *database.SnapshotDB, out io.Writer, jsonOutput bool) error {
	docs, err := db.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		if docs == nil {
			docs = []database.DocumentSummary{}
		}
		return writeJSON(out, docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found in the database.")
		fmt.Fprintln(out, "\nUse 'replaysheet extract <url>' to extract a sheet.")
		return nil
	}

	fmt.Fprintf(out, "Stored documents (%d):\n\n", len(docs))
	fmt.Fprintf(out, "  %-9s  %-19s  %s\n", "Snapshots", "Last extracted", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, doc := range docs {
		fmt.Fprintf(out, "  %-9d  %-19s  %s\n",
			doc.Snapshots,
			doc.LastExtracted.Local().Format(historyTimeLayout),
			doc.URL,
		)
	}
	fmt.Fprintln(out, "\nUse 'replaysheet history <url>' to see the snapshots of a document.")

	return nil
}

// listSnapshotHistory lists all snapshots of one document.
func listSnapshotHistory(cmd *cobra.Command, db *database.SnapshotDB, out io.Writer, url string, jsonOutput bool) error {
	snapshots, err := db.History(cmd.Context(), url)
	if err != nil {
		return err
	}

	if jsonOutput {
		if snapshots == nil {
			snapshots = []database.SnapshotMetadata{}
		}
		return writeJSON(out, snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Fprintf(out, "No snapshots found for %s\n", url)
		fmt.Fprintln(out, "\nUse 'replaysheet extract' to extract this document.")
		return nil
	}

	fmt.Fprintf(out, "Snapshot history for %s (%d snapshots):\n\n", url, len(snapshots))
	fmt.Fprintf(out, "  %-6s  %-19s  %-5s  %-7s  %-7s  %s\n",
		"ID", "Date", "Rows", "Columns", "Dropped", "Fingerprint")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, s := range snapshots {
		fmt.Fprintf(out, "  %-6d  %-19s  %-5d  %-7d  %-7d  %s\n",
			s.ID,
			s.Timestamp.Local().Format(historyTimeLayout),
			s.RowCount,
			s.ColumnCount,
			s.DiagnosticCount,
			shortFingerprint(s.Fingerprint),
		)
	}

	fmt.Fprintln(out, "\nUse 'replaysheet diff <url>' to compare the latest two snapshots.")
	fmt.Fprintln(out, "Use 'replaysheet diff --with-id <id> <url>' to compare with a specific snapshot.")

	return nil
}

// shortFingerprint returns the first 12 characters of a fingerprint.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
