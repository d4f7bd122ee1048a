package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside one document.
type Span struct {
	Doc   DocumentID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// NewSpan builds a span from a start offset and a length.
func NewSpan(doc DocumentID, start, length uint32) Span {
	return Span{Doc: doc, Start: start, End: start + length}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.Doc, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// Spans from different documents are not combined.
func (s Span) Cover(other Span) Span {
	if s.Doc != other.Doc {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether offset pos lies inside [Start, End).
func (s Span) Contains(pos uint32) bool {
	return s.Start <= pos && pos < s.End
}

// IntersectsWith reports whether the spans share at least one position,
// treating both ends as inclusive. Touching spans ([a,b) and [b,c)) and two
// empty spans at the same offset intersect.
func (s Span) IntersectsWith(other Span) bool {
	return other.Start <= s.End && other.End >= s.Start
}

// OverlapsWith reports whether the spans share at least one byte.
// Empty spans never overlap anything.
func (s Span) OverlapsWith(other Span) bool {
	lo := max(s.Start, other.Start)
	hi := min(s.End, other.End)
	return lo < hi
}

// ShiftLeft moves the span n bytes to the left. If n exceeds Start the span is returned unchanged.
func (s Span) ShiftLeft(n uint32) Span {
	if n > s.Start {
		return s
	}
	return Span{
		Doc:   s.Doc,
		Start: s.Start - n,
		End:   s.End - n,
	}
}

func (s Span) ShiftRight(n uint32) Span {
	return Span{
		Doc:   s.Doc,
		Start: s.Start + n,
		End:   s.End + n,
	}
}

// SpanFromOffsets builds a span from int byte offsets. It panics if an offset
// does not fit in uint32.
func SpanFromOffsets(doc DocumentID, start, end int) Span {
	return makeSpan(doc, start, end)
}
