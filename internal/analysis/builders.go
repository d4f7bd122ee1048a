package analysis

import (
	"context"
	"errors"
	"fmt"

	"fixall/internal/fixall"
	"fixall/internal/source"
)

// ErrGuardMismatch is returned by an edit action whose expected text no
// longer matches the document.
var ErrGuardMismatch = errors.New("fix guard mismatch")

// Edit replaces the text under Span. Expect, when non-empty, must equal the
// current text under Span or the action fails.
type Edit struct {
	Span    source.Span
	NewText string
	Expect  string
}

// EditAction builds an action applying guarded edits, possibly across
// several documents.
func EditAction(title, key string, edits ...Edit) fixall.Action {
	return fixall.NewAction(title, key, func(ctx context.Context, sol *source.Solution) (*source.Solution, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		byDoc := make(map[source.DocumentID][]source.TextChange)
		for _, e := range edits {
			doc := sol.Document(e.Span.Doc)
			if doc == nil {
				return nil, fmt.Errorf("%s: document %d not in solution", title, e.Span.Doc)
			}
			if e.Expect != "" {
				if int(e.Span.End) > len(doc.Text) || string(doc.Text[e.Span.Start:e.Span.End]) != e.Expect {
					return nil, fmt.Errorf("%w: %s at %s", ErrGuardMismatch, title, e.Span)
				}
			}
			byDoc[e.Span.Doc] = append(byDoc[e.Span.Doc], source.TextChange{Span: e.Span, NewText: e.NewText})
		}

		next, err := sol.WithDocumentEdits(byDoc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", title, err)
		}
		return next, nil
	})
}

// InsertText inserts text at an empty span.
func InsertText(title, key string, at source.Span, text string) fixall.Action {
	at.End = at.Start
	return EditAction(title, key, Edit{Span: at, NewText: text})
}

// DeleteSpan removes the text covered by span.
func DeleteSpan(title, key string, span source.Span, expect string) fixall.Action {
	return EditAction(title, key, Edit{Span: span, Expect: expect})
}

// ReplaceSpan replaces the text covered by span with newText.
func ReplaceSpan(title, key string, span source.Span, newText, expect string) fixall.Action {
	return EditAction(title, key, Edit{Span: span, NewText: newText, Expect: expect})
}
