// Package patch computes the minimal differing region between a buffer
// snapshot and the formatter's output, so that applying a fix touches
// only the bytes that actually changed. Replacing the whole buffer is
// never acceptable: it destroys the caret position, undo granularity
// and change-tracking of whatever host owns the buffer.
package patch

import "github.com/rivo/uniseg"

// Edit describes a single replacement of original[Start:End] with Text.
// Offsets are byte offsets into the original string.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Compute returns the minimal Edit that turns original into formatted.
// The second return value is false when the two strings are equal and
// there is nothing to apply.
//
// The edit spans the region between the longest common prefix and the
// longest common suffix of the two strings, with the suffix bounded so
// the two never overlap (the prefix wins the overlap). Applying the
// returned edit to original always yields exactly formatted; this holds
// for every input pair, including empty strings and strings differing
// only in trailing whitespace or line endings.
func Compute(original, formatted string) (Edit, bool) {
	if original == formatted {
		return Edit{}, false
	}

	shorter := len(original)
	if len(formatted) < shorter {
		shorter = len(formatted)
	}

	prefix := 0
	for prefix < shorter && original[prefix] == formatted[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < shorter-prefix &&
		original[len(original)-1-suffix] == formatted[len(formatted)-1-suffix] {
		suffix++
	}

	return Edit{
		Start: prefix,
		End:   len(original) - suffix,
		Text:  formatted[prefix : len(formatted)-suffix],
	}, true
}

// Apply splices the edit into original.
func (e Edit) Apply(original string) string {
	return original[:e.Start] + e.Text + original[e.End:]
}

// SpanLen is the number of bytes the edit removes from the original.
func (e Edit) SpanLen() int {
	return e.End - e.Start
}

// Delta is the buffer length change the edit causes.
func (e Edit) Delta() int {
	return len(e.Text) - e.SpanLen()
}

// MapCaret maps a byte-offset caret position through the edit. Carets
// before the edited region are untouched; carets after it shift by the
// length delta; carets inside it are clamped to the end of the inserted
// text and snapped back to a grapheme cluster boundary so the caret
// never lands inside a combined character.
func MapCaret(e Edit, caret int) int {
	switch {
	case caret <= e.Start:
		return caret
	case caret >= e.End:
		return caret + e.Delta()
	default:
		off := caret - e.Start
		if off > len(e.Text) {
			off = len(e.Text)
		}
		return e.Start + graphemeFloor(e.Text, off)
	}
}

// graphemeFloor returns the largest grapheme cluster start <= off.
func graphemeFloor(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	gr := uniseg.NewGraphemes(s)
	pos := 0
	for gr.Next() {
		next := pos + len(gr.Str())
		if next > off {
			break
		}
		pos = next
	}
	return pos
}
