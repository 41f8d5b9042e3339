package model

import (
	"fmt"
	"sort"
)

// TextPool is the ordered list of distinct strings referenced by index from
// placement commands. It is read-only once decoded from the payload.
type TextPool []string

// Lookup returns the string at index i.
// The second return value is false when i is outside the pool.
func (p TextPool) Lookup(i int) (string, bool) {
	if i < 0 || i >= len(p) {
		return "", false
	}
	return p[i], true
}

// StyleTag identifies the style group that was active when a fragment was
// placed. The zero value is the absent (null) style.
//
// Design decision: We use a struct with a Valid flag instead of *string so
// that tags compare with == and an absent style never equals a present one,
// including a present style whose name is the empty string.
type StyleTag struct {
	// Name is the literal text of the style-group command.
	Name string `json:"name"`

	// Valid is false when no style-group command preceded the placement.
	Valid bool `json:"valid"`
}

// NewStyleTag returns a present style tag with the given name.
func NewStyleTag(name string) StyleTag {
	return StyleTag{Name: name, Valid: true}
}

// String returns the tag name, or "<none>" for the absent style.
func (s StyleTag) String() string {
	if !s.Valid {
		return "<none>"
	}
	return s.Name
}

// Fragment is one visible text fragment placed at an absolute canvas position.
type Fragment struct {
	// Text is the string taken from the text pool.
	Text string `json:"text"`

	// X is the horizontal canvas coordinate.
	X float64 `json:"x"`

	// Y is the vertical canvas coordinate. Larger values are lower on the canvas.
	Y float64 `json:"y"`

	// Style is the style group active when the fragment was placed.
	Style StyleTag `json:"style"`
}

// String returns a compact description used in log output.
func (f Fragment) String() string {
	return fmt.Sprintf("%q@(%g,%g)[%s]", f.Text, f.X, f.Y, f.Style)
}

// Row is an ordered sequence of fragments sorted by ascending X.
type Row []Fragment

// Texts returns the text of each fragment in row order.
func (r Row) Texts() []string {
	texts := make([]string, len(r))
	for i, f := range r {
		texts[i] = f.Text
	}
	return texts
}

// MinY returns the smallest Y in the row, or 0 for an empty row.
func (r Row) MinY() float64 {
	if len(r) == 0 {
		return 0
	}
	minY := r[0].Y
	for _, f := range r[1:] {
		if f.Y < minY {
			minY = f.Y
		}
	}
	return minY
}

// SortByX sorts the row in place by ascending X, keeping input order for ties.
func (r Row) SortByX() {
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].X < r[j].X
	})
}
