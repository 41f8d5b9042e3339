package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). Callers use errors.Is() for
// programmatic handling, and Validate wraps them with the offending value.
var (
	// ErrNoTarget is returned when no document URL is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one sheet URL")

	// ErrInvalidURL is returned when a target is not a sheet URL.
	// Use --allow-any-host to accept other hosts such as local mirrors.
	ErrInvalidURL = errors.New("invalid sheet URL: must start with " + SheetURLPrefix)

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrNegativeTolerance is returned when the y tolerance is negative or NaN.
	ErrNegativeTolerance = errors.New("invalid y tolerance: must be a non-negative number")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrUnsupportedFormat is returned when the output format is unknown.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrConflictingProxy is returned when both --proxy and --tor are given.
	ErrConflictingProxy = errors.New("conflicting proxy options: --proxy and --tor cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
