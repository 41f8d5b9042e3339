package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nao1215/replaysheet/internal/model"
)

// ErrInvalidTolerance is returned when the y tolerance is negative or NaN.
// The value is never clamped: a bad tolerance is a caller bug.
var ErrInvalidTolerance = errors.New("invalid y tolerance: must be a non-negative number")

// Reconstructor turns a text pool and an action log into a table.
// A Reconstructor holds only configuration and may be shared between
// goroutines.
type Reconstructor struct {
	// yTolerance is the row-splitting threshold passed to GroupRows.
	yTolerance float64

	// headerFilter enables FilterHeaderLabels.
	headerFilter bool

	// logger receives diagnostics and progress messages.
	logger *slog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithYTolerance sets the maximum vertical distance between consecutive
// fragments of one row. Validity is checked by Reconstruct.
func WithYTolerance(tolerance float64) Option {
	return func(r *Reconstructor) {
		r.yTolerance = tolerance
	}
}

// WithHeaderFilter enables or disables removal of the canvas gutter.
// It is enabled by default.
func WithHeaderFilter(enabled bool) Option {
	return func(r *Reconstructor) {
		r.headerFilter = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = logger
	}
}

// New creates a Reconstructor with the given options.
func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		yTolerance:   DefaultYTolerance,
		headerFilter: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Result is the outcome of one reconstruction.
type Result struct {
	// Table is the reconstructed table. Never nil.
	Table *model.Table

	// Diagnostics lists placement commands that were dropped.
	Diagnostics []model.Diagnostic

	// FragmentCount is the number of fragments extracted from the log.
	FragmentCount int

	// KeptCount is the number of fragments left after header filtering.
	KeptCount int

	// ExcludedStyle is the style removed by the header filter.
	// It is the absent style when the filter is disabled or did not run.
	ExcludedStyle model.StyleTag

	// Topmost is the fragment that selected ExcludedStyle.
	Topmost *model.Fragment
}

// Validate checks the configuration.
func (r *Reconstructor) Validate() error {
	if r.yTolerance < 0 || math.IsNaN(r.yTolerance) {
		return fmt.Errorf("%w (got %v)", ErrInvalidTolerance, r.yTolerance)
	}
	return nil
}

// Reconstruct runs the full pipeline on one action log.
//
// It returns an error only for invalid configuration. Malformed commands
// become diagnostics, and inputs without usable fragments give an empty table.
func (r *Reconstructor) Reconstruct(pool model.TextPool, actions string) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Table: model.NewEmptyTable()}

	fragments, diagnostics := Extract(pool, actions, r.logger)
	result.Diagnostics = diagnostics
	result.FragmentCount = len(fragments)

	if len(fragments) == 0 {
		r.logger.Warn("no parsable text placements found in action log",
			"dropped", len(diagnostics),
		)
		return result, nil
	}

	kept := fragments
	if r.headerFilter {
		top, _ := Topmost(fragments)
		kept, result.ExcludedStyle = FilterHeaderLabels(fragments)
		result.Topmost = &top

		r.logger.Info("detected topmost canvas element",
			"text", top.Text,
			"style", result.ExcludedStyle.String(),
		)
		if len(kept) == 0 {
			r.logger.Warn("no table data left after removing header labels",
				"style", result.ExcludedStyle.String(),
			)
		}
	}
	result.KeptCount = len(kept)

	rows := GroupRows(kept, r.yTolerance)
	result.Table = Materialize(rows)

	if result.Table.IsEmpty() {
		r.logger.Warn("no table data available after reconstruction")
		return result, nil
	}

	r.logger.Info("table reconstructed",
		"columns", result.Table.Width(),
		"rows", result.Table.RowCount(),
		"dropped", len(diagnostics),
	)

	return result, nil
}

// ReconstructTable is a convenience wrapper around New and Reconstruct.
// It always returns a non-nil table when err is nil.
func ReconstructTable(textPool []string, actions string, yTolerance float64) (*model.Table, error) {
	result, err := New(WithYTolerance(yTolerance)).Reconstruct(textPool, actions)
	if err != nil {
		return nil, err
	}
	return result.Table, nil
}
