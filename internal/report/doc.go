// Package report renders extraction summaries and snapshot diffs.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text with a table preview for the terminal
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown for sharing
//
// Design decision: Report writers describe a run (status, counts, dropped
// commands, changes since the last snapshot). Writing the table itself in a
// data format is the export package's job.
package report
