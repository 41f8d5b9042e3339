package replay

import (
	"math"
	"sort"

	"github.com/nao1215/replaysheet/internal/model"
)

// DefaultYTolerance is the default maximum vertical distance between
// consecutive fragments of one row, in canvas units.
const DefaultYTolerance = 5.0

// GroupRows clusters fragments into rows, top to bottom.
//
// Fragments are stably sorted by (y, x). Walking that order, a fragment
// starts a new row when |y - lastY| > tolerance, where lastY is the y of the
// previous fragment, not of the row's first fragment. A row can therefore
// drift downwards across many closely spaced fragments. Each closed row is
// sorted by x.
func GroupRows(fragments []model.Fragment, tolerance float64) []model.Row {
	if len(fragments) == 0 {
		return []model.Row{}
	}

	sorted := make([]model.Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	rows := make([]model.Row, 0)
	current := model.Row{sorted[0]}
	lastY := sorted[0].Y

	for _, f := range sorted[1:] {
		if math.Abs(f.Y-lastY) > tolerance {
			current.SortByX()
			rows = append(rows, current)
			current = model.Row{f}
		} else {
			current = append(current, f)
		}
		lastY = f.Y
	}

	current.SortByX()
	rows = append(rows, current)

	return rows
}
