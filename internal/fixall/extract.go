package fixall

import (
	"context"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"fixall/internal/source"
	"fixall/internal/trace"
)

// DocumentChanges is an ordered change set for one document, expressed
// against the baseline text of that document.
type DocumentChanges struct {
	Document source.DocumentID
	Changes  []source.TextChange
}

// FixChanges holds the per-document changes produced by one candidate fix.
type FixChanges struct {
	Fix       *CandidateFix
	Documents []DocumentChanges
}

// ChangeCount returns the number of text changes across all documents.
func (f FixChanges) ChangeCount() int {
	n := 0
	for _, d := range f.Documents {
		n += len(d.Changes)
	}
	return n
}

// Extractor applies candidate fixes to the baseline and diffs the result.
type Extractor struct {
	Jobs int
	Sink ProgressSink
}

// Extract applies every fix to baseline independently. The output has one
// entry per input fix in the same order; documents whose text did not change
// are omitted from each entry.
func (x *Extractor) Extract(ctx context.Context, baseline *source.Solution, fixes []*CandidateFix) ([]FixChanges, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if len(fixes) == 0 {
		return nil, nil
	}
	sink := x.Sink
	if sink == nil {
		sink = nopSink{}
	}
	jobs := x.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индекс i уникален для каждой горутины
	results := make([]FixChanges, len(fixes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(fixes)))

	for i, fix := range fixes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := fixItem(baseline, fix)
			wctx, span := trace.StartChange(gctx, "apply:"+fix.Title)
			emitItem(sink, item, StageExtract, StateWorking, 0)

			updated, err := fix.Action.Apply(wctx, baseline)
			if err != nil {
				span.End("error")
				emitItem(sink, item, StageExtract, StateError, 0)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				return providerFault("applying "+strconv.Quote(fix.Title)+" at "+item, err)
			}

			results[i] = FixChanges{Fix: fix, Documents: diffSolutions(baseline, updated)}
			n := results[i].ChangeCount()
			span.WithExtra("changes", strconv.Itoa(n)).End("")
			emitItem(sink, item, StageExtract, StateDone, n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stageError(ctx, err)
	}
	return results, nil
}

// diffSolutions lists the changes of every document whose text differs.
func diffSolutions(baseline, updated *source.Solution) []DocumentChanges {
	if updated == nil || updated == baseline {
		return nil
	}
	var out []DocumentChanges
	for _, id := range baseline.ChangedDocuments(updated) {
		changes := source.GetTextChanges(updated.Document(id), baseline.Document(id))
		if len(changes) == 0 {
			continue
		}
		out = append(out, DocumentChanges{Document: id, Changes: changes})
	}
	return out
}

func fixItem(sol *source.Solution, fix *CandidateFix) string {
	if d := sol.Document(fix.Document); d != nil {
		return d.Path
	}
	if p := sol.Project(fix.Project); p != nil {
		return projectItem(p)
	}
	return ""
}
