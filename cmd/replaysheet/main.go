// Package main provides the entry point for the replaysheet CLI.
//
// replaysheet rebuilds the table behind a shared online sheet from the
// canvas drawing commands embedded in its page, and exports it as CSV,
// XLSX, JSON or Markdown.
//
// Usage:
//
//	replaysheet extract <sheet-url>
//	replaysheet extract -o sales.xlsx <sheet-url>
//	replaysheet diff <sheet-url>
//
// See --help for all available options.
package main

// main is the entry point for replaysheet.
func main() {
	Execute()
}
