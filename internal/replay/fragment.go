package replay

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/nao1215/replaysheet/internal/model"
)

// ExtractFragment resolves one placement command against the text pool.
// On failure it returns a diagnostic instead of a fragment; the caller is
// expected to drop the command and continue.
func ExtractFragment(cmd Command, pool model.TextPool) (model.Fragment, *model.Diagnostic) {
	diag := func(kind model.DiagnosticKind, index int) *model.Diagnostic {
		return &model.Diagnostic{
			Kind:     kind,
			Position: cmd.Position,
			Index:    index,
			Token:    cmd.Raw,
		}
	}

	index, err := strconv.Atoi(cmd.Placement.Index)
	if err != nil {
		return model.Fragment{}, diag(model.DiagnosticBadIndex, -1)
	}

	text, ok := pool.Lookup(index)
	if !ok {
		return model.Fragment{}, diag(model.DiagnosticIndexOutOfRange, index)
	}

	x, ok := parseCoordinate(cmd.Placement.X)
	if !ok {
		return model.Fragment{}, diag(model.DiagnosticBadCoordinate, index)
	}
	y, ok := parseCoordinate(cmd.Placement.Y)
	if !ok {
		return model.Fragment{}, diag(model.DiagnosticBadCoordinate, index)
	}

	return model.Fragment{Text: text, X: x, Y: y, Style: cmd.Style}, nil
}

// parseCoordinate parses a finite float. Values like "1.2.3" or ones that
// overflow to infinity are rejected.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Extract returns the fragments of every valid placement command in log
// order, plus one diagnostic per dropped command. Dropped commands are logged
// at warn level.
func Extract(pool model.TextPool, actions string, logger *slog.Logger) ([]model.Fragment, []model.Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}

	fragments := make([]model.Fragment, 0)
	var diagnostics []model.Diagnostic

	for cmd := range Placements(actions) {
		frag, d := ExtractFragment(cmd, pool)
		if d != nil {
			logger.Warn("dropping placement command",
				"kind", d.Kind.String(),
				"index", d.Index,
				"position", d.Position,
				"poolSize", len(pool),
			)
			diagnostics = append(diagnostics, *d)
			continue
		}
		fragments = append(fragments, frag)
	}

	return fragments, diagnostics
}
