package source

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrChangeOutOfRange is returned when a change points past the end of the document.
	ErrChangeOutOfRange = errors.New("text change out of range")
	// ErrChangesOverlap is returned when two changes of one set overlap or are unsorted.
	ErrChangesOverlap = errors.New("text changes overlap")
)

// TextChange replaces the bytes covered by Span with NewText.
// Span is expressed against a fixed document snapshot and never rebased.
type TextChange struct {
	Span    Span
	NewText string
}

// Equal reports whether both changes cover the same span and insert the same text.
func (c TextChange) Equal(other TextChange) bool {
	return c.Span == other.Span && c.NewText == other.NewText
}

func (c TextChange) String() string {
	return fmt.Sprintf("[%d,%d)->%q", c.Span.Start, c.Span.End, c.NewText)
}

// SortChanges orders changes by start offset, then by end offset.
// Insertions at equal offsets keep their relative order.
func SortChanges(changes []TextChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i].Span, changes[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// ValidateChanges checks that changes are sorted, lie inside a text of textLen
// bytes and do not share any byte. Adjacent and equal-position changes are allowed.
func ValidateChanges(changes []TextChange, textLen int) error {
	var prevEnd uint32
	for i, ch := range changes {
		if ch.Span.End < ch.Span.Start || int(ch.Span.End) > textLen {
			return fmt.Errorf("%w: %s in text of %d bytes", ErrChangeOutOfRange, ch, textLen)
		}
		if i > 0 && ch.Span.Start < prevEnd {
			return fmt.Errorf("%w: %s starts before %d", ErrChangesOverlap, ch, prevEnd)
		}
		prevEnd = ch.Span.End
	}
	return nil
}

// ApplyChanges returns a copy of text with all changes applied. Changes are
// expressed against text itself and must pass ValidateChanges.
func ApplyChanges(text []byte, changes []TextChange) ([]byte, error) {
	if err := ValidateChanges(changes, len(text)); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return append([]byte(nil), text...), nil
	}

	size := len(text)
	for _, ch := range changes {
		size += len(ch.NewText) - int(ch.Span.Len())
	}
	out := make([]byte, 0, max(size, 0))
	var pos uint32
	for _, ch := range changes {
		out = append(out, text[pos:ch.Span.Start]...)
		out = append(out, ch.NewText...)
		pos = ch.Span.End
	}
	out = append(out, text[pos:]...)
	return out, nil
}
