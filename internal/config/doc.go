// Package config provides configuration structures and utilities for
// replaysheet. It defines the options for fetching sheet pages, rebuilding
// tables, exporting them, and the optional per-document YAML file.
package config
