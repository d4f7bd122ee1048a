package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"fixall/internal/source"
)

type changePreview struct {
	before []string
	after  []string
}

// buildChangePreview renders the whole lines touched by change before and
// after it is applied to doc.
func buildChangePreview(doc *source.Document, change source.TextChange) (changePreview, error) {
	if doc == nil {
		return changePreview{}, fmt.Errorf("nil document")
	}

	startPos := toPos(doc, change.Span.Start)
	endPos := toPos(doc, change.Span.End)
	startLine := startPos.Line
	endLine := max(endPos.Line, startLine)

	blockStart := lineStartOffset(doc, startLine)
	blockEnd := max(lineEndOffsetInclusive(doc, endLine), blockStart)

	lenText, err := safecast.Conv[uint32](len(doc.Text))
	if err != nil {
		return changePreview{}, fmt.Errorf("len document text overflow: %w", err)
	}
	blockEnd = min(blockEnd, lenText)

	original := doc.Text[blockStart:blockEnd]

	relStart := int(change.Span.Start) - int(blockStart)
	relEnd := int(change.Span.End) - int(blockStart)
	if relStart < 0 || relStart > len(original) {
		return changePreview{}, fmt.Errorf("change start %d out of range for preview block", relStart)
	}
	if relEnd < relStart || relEnd > len(original) {
		return changePreview{}, fmt.Errorf("change end %d out of range for preview block", relEnd)
	}

	after := make([]byte, 0, len(original)+len(change.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, change.NewText...)
	after = append(after, original[relEnd:]...)

	return changePreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// завершающий \n не даёт лишней пустой строки
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func toPos(doc *source.Document, off uint32) source.LineCol {
	line := uint32(1)
	for _, nl := range doc.LineIdx {
		if nl >= off {
			break
		}
		line++
	}
	return source.LineCol{Line: line, Col: off - lineStartOffset(doc, line) + 1}
}

func lineStartOffset(d *source.Document, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(d.LineIdx) {
		return d.LineIdx[idx] + 1
	}
	lenText, err := safecast.Conv[uint32](len(d.Text))
	if err != nil {
		panic(fmt.Errorf("len document text overflow: %w", err))
	}
	return lenText
}

func lineEndOffsetInclusive(d *source.Document, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(d.LineIdx) {
		return d.LineIdx[idx] + 1
	}
	lenText, err := safecast.Conv[uint32](len(d.Text))
	if err != nil {
		panic(fmt.Errorf("len document text overflow: %w", err))
	}
	return lenText
}
