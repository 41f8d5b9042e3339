package replay

import "github.com/nao1215/replaysheet/internal/model"

// Topmost returns the fragment with the smallest Y.
// Ties go to the fragment that appears first in the input.
// The second return value is false for empty input.
func Topmost(fragments []model.Fragment) (model.Fragment, bool) {
	if len(fragments) == 0 {
		return model.Fragment{}, false
	}
	top := fragments[0]
	for _, f := range fragments[1:] {
		if f.Y < top.Y {
			top = f
		}
	}
	return top, true
}

// FilterHeaderLabels removes the canvas's own row/column gutter.
//
// The topmost fragment is taken to be the gutter's corner label, and every
// fragment sharing its style is dropped. Fragments with the absent style are
// only dropped when the topmost fragment itself has the absent style.
// The returned slice is newly allocated; the input is not modified.
//
// This is a heuristic: if a real header cell shares the gutter's style it is
// dropped too. Use WithHeaderFilter(false) to turn the filter off.
func FilterHeaderLabels(fragments []model.Fragment) (kept []model.Fragment, excluded model.StyleTag) {
	top, ok := Topmost(fragments)
	if !ok {
		return []model.Fragment{}, model.StyleTag{}
	}

	kept = make([]model.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Style != top.Style {
			kept = append(kept, f)
		}
	}
	return kept, top.Style
}
