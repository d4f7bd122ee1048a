package source

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/pmezard/go-difflib/difflib"
)

// maxRefineRunes bounds the character-level pass over one replaced line block.
// Larger blocks are reported as a single change trimmed by common prefix/suffix.
const maxRefineRunes = 4096

// GetTextChanges returns the changes that turn oldDoc into newDoc, with spans
// expressed against oldDoc. When newDoc was produced from oldDoc by
// WithDocumentChanges the recorded changes are returned as is. Otherwise the
// texts are diffed, which is ambiguous for repeated characters: the result is
// sorted and minimal, and no two changes share or touch a byte.
func GetTextChanges(newDoc, oldDoc *Document) []TextChange {
	if newDoc == nil || oldDoc == nil {
		return nil
	}
	if recorded, ok := newDoc.EditsFrom(oldDoc); ok {
		return recorded
	}
	if newDoc.Hash == oldDoc.Hash && bytes.Equal(newDoc.Text, oldDoc.Text) {
		return nil
	}
	return DiffText(oldDoc.ID, oldDoc.Text, newDoc.Text)
}

// DiffText diffs two texts line by line and refines every replaced line block
// rune by rune.
func DiffText(doc DocumentID, oldText, newText []byte) []TextChange {
	if bytes.Equal(oldText, newText) {
		return nil
	}
	a, aOff := splitLines(oldText)
	b, bOff := splitLines(newText)

	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	var out []TextChange
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			continue
		case 'r':
			out = refine(out, doc,
				oldText[aOff[op.I1]:aOff[op.I2]],
				newText[bOff[op.J1]:bOff[op.J2]],
				aOff[op.I1])
		default: // 'd', 'i'
			out = append(out, TextChange{
				Span:    makeSpan(doc, aOff[op.I1], aOff[op.I2]),
				NewText: string(newText[bOff[op.J1]:bOff[op.J2]]),
			})
		}
	}
	return out
}

// refine diffs a replaced block at rune granularity and appends the changes,
// shifted by base, to out.
func refine(out []TextChange, doc DocumentID, oldSeg, newSeg []byte, base int) []TextChange {
	a, aOff := splitRunes(oldSeg)
	b, bOff := splitRunes(newSeg)

	if len(a) > maxRefineRunes || len(b) > maxRefineRunes {
		pre, suf := commonAffixes(a, b)
		return append(out, TextChange{
			Span:    makeSpan(doc, base+aOff[pre], base+aOff[len(a)-suf]),
			NewText: string(newSeg[bOff[pre]:bOff[len(b)-suf]]),
		})
	}

	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		out = append(out, TextChange{
			Span:    makeSpan(doc, base+aOff[op.I1], base+aOff[op.I2]),
			NewText: string(newSeg[bOff[op.J1]:bOff[op.J2]]),
		})
	}
	return out
}

// splitLines splits text after every '\n' and returns the lines together with
// byte offsets of their starts; offs has one extra element equal to len(text).
func splitLines(text []byte) (lines []string, offs []int) {
	lines = strings.SplitAfter(string(text), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	offs = make([]int, len(lines)+1)
	for i, l := range lines {
		offs[i+1] = offs[i] + len(l)
	}
	return lines, offs
}

// splitRunes splits text into one string per rune. Invalid bytes become
// single-byte elements so offsets always stay exact.
func splitRunes(text []byte) (runes []string, offs []int) {
	runes = make([]string, 0, len(text))
	offs = make([]int, 1, len(text)+1)
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRune(text[i:])
		runes = append(runes, string(text[i:i+size]))
		i += size
		offs = append(offs, i)
	}
	return runes, offs
}

func commonAffixes(a, b []string) (prefix, suffix int) {
	n := min(len(a), len(b))
	for prefix < n && a[prefix] == b[prefix] {
		prefix++
	}
	for suffix < n-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return prefix, suffix
}

func makeSpan(doc DocumentID, start, end int) Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return Span{Doc: doc, Start: s, End: e}
}
