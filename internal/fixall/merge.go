package fixall

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"fixall/internal/source"
	"fixall/internal/trace"
)

// Conflict describes the first pair of changes that could not be merged.
type Conflict struct {
	Document    source.DocumentID
	Existing    source.TextChange
	Incoming    source.TextChange
	ExistingFix *CandidateFix
	IncomingFix *CandidateFix
}

func (c *Conflict) String() string {
	return fmt.Sprintf("document %d: %s conflicts with %s", c.Document, c.Incoming, c.Existing)
}

// MergeOutcome is either a merged solution with its changed documents or a
// conflict. Solution is nil whenever Conflict is set.
type MergeOutcome struct {
	Solution *source.Solution
	Changed  []DocumentChanges
	Conflict *Conflict
}

// taggedChange remembers which fix contributed a merged change.
type taggedChange struct {
	change source.TextChange
	fix    *CandidateFix
}

type docEntry struct {
	fix     *CandidateFix
	changes []source.TextChange
}

// Merge reduces the change sets of all fixes to one change set per document
// and applies them to baseline. Fixes are merged in slice order. Documents of
// the merged solution record the merged changes.
func Merge(ctx context.Context, baseline *source.Solution, fixes []FixChanges) (MergeOutcome, error) {
	byDoc := make(map[source.DocumentID][]docEntry)
	for _, fc := range fixes {
		for _, dc := range fc.Documents {
			if len(dc.Changes) == 0 {
				continue
			}
			byDoc[dc.Document] = append(byDoc[dc.Document], docEntry{fix: fc.Fix, changes: dc.Changes})
		}
	}
	docs := make([]source.DocumentID, 0, len(byDoc))
	for id := range byDoc {
		docs = append(docs, id)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })

	var (
		changed = make([]DocumentChanges, 0, len(docs))
		edits   = make(map[source.DocumentID][]source.TextChange, len(docs))
	)
	for _, id := range docs {
		if err := checkCancelled(ctx); err != nil {
			return MergeOutcome{}, err
		}
		doc := baseline.Document(id)
		if doc == nil {
			return MergeOutcome{}, fmt.Errorf("merge: document %d is not in the baseline", id)
		}

		entries := byDoc[id]
		var merged []source.TextChange
		if len(entries) == 1 {
			merged = entries[0].changes
		} else {
			var conflict *Conflict
			merged, conflict = mergeDocument(id, entries)
			if conflict != nil {
				trace.Point(ctx, trace.ScopeStage, "conflict", conflict.String())
				return MergeOutcome{Conflict: conflict}, nil
			}
		}

		if err := source.ValidateChanges(merged, len(doc.Text)); err != nil {
			return MergeOutcome{}, fmt.Errorf("merge: %s: %w", doc.Path, err)
		}
		edits[id] = merged
		changed = append(changed, DocumentChanges{Document: id, Changes: merged})
		trace.Point(ctx, trace.ScopeDocument, "merged:"+doc.Name, strconv.Itoa(len(merged))+" changes")
	}

	if len(changed) == 0 {
		return MergeOutcome{}, nil
	}
	sol, err := baseline.WithDocumentEdits(edits)
	if err != nil {
		return MergeOutcome{}, fmt.Errorf("merge: %w", err)
	}
	return MergeOutcome{Solution: sol, Changed: changed}, nil
}

// mergeDocument folds the change sets of several fixes for one document.
func mergeDocument(doc source.DocumentID, entries []docEntry) ([]source.TextChange, *Conflict) {
	cumulative := make([]taggedChange, 0, len(entries[0].changes))
	for _, ch := range entries[0].changes {
		cumulative = append(cumulative, taggedChange{change: ch, fix: entries[0].fix})
	}

	for _, e := range entries[1:] {
		next, clash := mergeChanges(cumulative, e.changes, e.fix)
		if clash != nil {
			clash.Document = doc
			return nil, clash
		}
		cumulative = next
	}

	out := make([]source.TextChange, len(cumulative))
	for i, tc := range cumulative {
		out[i] = tc.change
	}
	return out, nil
}

// mergeChanges merges incoming (sorted, from one fix) into cumulative (sorted)
// with a single left-to-right sweep. Intersecting changes must be identical.
func mergeChanges(cumulative []taggedChange, incoming []source.TextChange, fix *CandidateFix) ([]taggedChange, *Conflict) {
	out := make([]taggedChange, 0, len(cumulative)+len(incoming))
	i := 0
	for _, ch := range incoming {
		for i < len(cumulative) && cumulative[i].change.Span.End < ch.Span.Start {
			out = append(out, cumulative[i])
			i++
		}
		if i >= len(cumulative) || !cumulative[i].change.Span.IntersectsWith(ch.Span) {
			out = append(out, taggedChange{change: ch, fix: fix})
			continue
		}
		if !cumulative[i].change.Equal(ch) {
			return nil, &Conflict{
				Existing:    cumulative[i].change,
				Incoming:    ch,
				ExistingFix: cumulative[i].fix,
				IncomingFix: fix,
			}
		}
		// одинаковая правка: оставляем одну копию
		out = append(out, cumulative[i])
		i++
	}
	return append(out, cumulative[i:]...), nil
}
