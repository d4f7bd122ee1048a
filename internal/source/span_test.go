package source

import (
	"testing"
)

func TestSpan_IntersectsWith(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", Span{Start: 0, End: 2}, Span{Start: 5, End: 7}, false},
		{"overlap", Span{Start: 0, End: 5}, Span{Start: 3, End: 7}, true},
		{"touching end to start", Span{Start: 0, End: 4}, Span{Start: 4, End: 6}, true},
		{"touching start to end", Span{Start: 4, End: 6}, Span{Start: 0, End: 4}, true},
		{"equal insertions", Span{Start: 3, End: 3}, Span{Start: 3, End: 3}, true},
		{"insertion inside", Span{Start: 2, End: 8}, Span{Start: 5, End: 5}, true},
		{"insertion after", Span{Start: 2, End: 4}, Span{Start: 5, End: 5}, false},
		{"contains", Span{Start: 0, End: 10}, Span{Start: 3, End: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IntersectsWith(tt.b); got != tt.want {
				t.Errorf("%v.IntersectsWith(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// пересечение симметрично
			if got := tt.b.IntersectsWith(tt.a); got != tt.want {
				t.Errorf("%v.IntersectsWith(%v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSpan_OverlapsWith(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"touching", Span{Start: 0, End: 4}, Span{Start: 4, End: 6}, false},
		{"one byte", Span{Start: 0, End: 5}, Span{Start: 4, End: 6}, true},
		{"empty inside", Span{Start: 0, End: 5}, Span{Start: 2, End: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapsWith(tt.b); got != tt.want {
				t.Errorf("OverlapsWith() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpan_Shift(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		left     uint32
		right    uint32
		expected Span
	}{
		{"left by 5", Span{Doc: 1, Start: 10, End: 20}, 5, 0, Span{Doc: 1, Start: 5, End: 15}},
		{"left past start is ignored", Span{Doc: 1, Start: 10, End: 20}, 15, 0, Span{Doc: 1, Start: 10, End: 20}},
		{"right by 3", Span{Doc: 2, Start: 0, End: 4}, 0, 3, Span{Doc: 2, Start: 3, End: 7}},
		{"zero-length", Span{Doc: 1, Start: 10, End: 10}, 3, 1, Span{Doc: 1, Start: 8, End: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.span.ShiftLeft(tt.left).ShiftRight(tt.right)
			if result != tt.expected {
				t.Errorf("shift = %+v, want %+v", result, tt.expected)
			}
			if result.Doc != tt.span.Doc {
				t.Errorf("document changed: got %d, want %d", result.Doc, tt.span.Doc)
			}
		})
	}
}

func TestSpan_CoverAndContains(t *testing.T) {
	a := Span{Doc: 1, Start: 4, End: 8}
	b := Span{Doc: 1, Start: 2, End: 5}
	got := a.Cover(b)
	if got != (Span{Doc: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover() = %v", got)
	}
	if other := a.Cover(Span{Doc: 2, Start: 0, End: 100}); other != a {
		t.Fatalf("Cover across documents must keep receiver, got %v", other)
	}
	if !got.Contains(2) || got.Contains(8) {
		t.Fatalf("Contains must treat End as exclusive")
	}
	if NewSpan(1, 3, 2) != (Span{Doc: 1, Start: 3, End: 5}) {
		t.Fatalf("NewSpan mismatch")
	}
	if !(Span{Start: 3, End: 3}).Empty() || a.Len() != 4 {
		t.Fatalf("Empty/Len mismatch")
	}
}
