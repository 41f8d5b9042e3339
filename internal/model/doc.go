// Package model defines the data structures shared by replaysheet packages.
//
// This package contains the following main types:
//   - Fragment: One positioned piece of text decoded from a canvas replay log
//   - Row: Fragments that belong to the same visual table row
//   - Table: The reconstructed header row plus data rows
//   - Record: The decoded script payload (text pool and action log)
//   - Extraction: The result of processing one document URL end to end
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The replay core, the pipeline, the exporters and the snapshot
// database all use these types, so centralizing them prevents import cycles.
//
// Tables and extractions are serializable to JSON for export and database
// storage.
package model
