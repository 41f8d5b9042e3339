// Package locate finds the serialized canvas record inside a sheet page.
//
// The record is assigned in an inline script as
//
//	const record=<payload>,replayRecord
//
// Locate returns the payload text between those markers. Inline scripts are
// searched first; when none contains the marker the raw page is searched, so
// pages that embed the record outside a well-formed script element still
// work.
package locate
