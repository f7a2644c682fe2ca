package markdown

import (
	"sort"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End exclusive.
// Replacement replaces source[Start:End].
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// ApplyEdits applies a set of byte-range edits to source and returns the updated content.
//
// Edits must be non-overlapping and refer to offsets in the original source.
// ApplyEdits sorts edits and applies them from the end of the text toward the beginning
// so earlier edits do not invalidate offsets for later edits. Without edits the
// source is returned as is.
func ApplyEdits(source string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < 0:
			return "", invalidEdit(i, e, "negative range")
		case e.End < e.Start:
			return "", invalidEdit(i, e, "end before start")
		case e.End > len(source):
			return "", invalidEdit(i, e, "range out of bounds")
		}
		// Sorted by Start descending, so each edit must end at or before the
		// previous edit's start.
		if i > 0 && e.End > sorted[i-1].Start {
			return "", invalidEdit(i, e, "overlapping ranges")
		}
	}

	out := source
	for _, e := range sorted {
		out = out[:e.Start] + e.Replacement + out[e.End:]
	}
	return out, nil
}

func invalidEdit(i int, e Edit, reason string) error {
	return errors.NewError(errors.CategoryOffset, "invalid edit: "+reason).
		WithContext("index", i).
		WithContext("start", e.Start).
		WithContext("end", e.End).
		Build()
}
