package fixall

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"fixall/internal/diag"
	"fixall/internal/source"
	"fixall/internal/trace"
)

// CandidateFix is one action whose equivalence key matched the request.
type CandidateFix struct {
	Key        string
	Title      string
	Diagnostic *diag.Diagnostic
	Action     Action
	// Document is source.NoDocumentID for project-level fixes.
	Document source.DocumentID
	Project  source.ProjectID
	order    fixOrder
}

// fixOrder is the deterministic position of a fix: batch group (documents
// first, then projects), diagnostic index within the group, action index.
type fixOrder struct {
	group  int
	diag   int
	action int
}

func (o fixOrder) less(other fixOrder) bool {
	if o.group != other.group {
		return o.group < other.group
	}
	if o.diag != other.diag {
		return o.diag < other.diag
	}
	return o.action < other.action
}

// workItem is one (document or project, diagnostic) pair.
type workItem struct {
	group   int
	index   int
	item    string
	project *source.Project
	doc     *source.Document
	diag    *diag.Diagnostic
}

// fixBag accumulates candidates from concurrent workers.
type fixBag struct {
	mu    sync.Mutex
	fixes []*CandidateFix
}

func (b *fixBag) add(fixes []*CandidateFix) {
	if len(fixes) == 0 {
		return
	}
	b.mu.Lock()
	b.fixes = append(b.fixes, fixes...)
	b.mu.Unlock()
}

// sorted must only be called after the workers have been waited for.
func (b *fixBag) sorted() []*CandidateFix {
	out := b.fixes
	sort.Slice(out, func(i, j int) bool { return out[i].order.less(out[j].order) })
	return out
}

// Collector computes fixes for every diagnostic of a batch.
type Collector struct {
	Provider FixProvider
	Jobs     int
	Sink     ProgressSink
}

// Collect calls the fix provider once per diagnostic and keeps actions whose
// equivalence key equals key. Any provider error aborts the collection and
// discards partial results.
func (c *Collector) Collect(ctx context.Context, sol *source.Solution, batch Batch, key string) ([]*CandidateFix, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if c.Provider == nil {
		return nil, fmt.Errorf("%w: no fix provider", ErrInvalidRequest)
	}
	items := workItems(sol, batch)
	if len(items) == 0 {
		return nil, nil
	}

	sink := c.Sink
	if sink == nil {
		sink = nopSink{}
	}
	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bag := &fixBag{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(items)))

	for _, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wctx, span := trace.StartItem(gctx, "fixes:"+it.diag.Code.ID(), it.item)
			emitItem(sink, it.item, StageCollect, StateWorking, 0)

			fc := FixContext{
				Solution:    sol,
				Project:     it.project,
				Document:    it.doc,
				Span:        it.diag.Primary,
				Diagnostics: []*diag.Diagnostic{it.diag},
			}
			actions, err := c.Provider.Fixes(wctx, fc)
			if err != nil {
				span.End("error")
				emitItem(sink, it.item, StageCollect, StateError, 0)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				return providerFault(fmt.Sprintf("fixes for %s at %s", it.diag.Code.ID(), it.item), err)
			}

			var matched []*CandidateFix
			for j, a := range flatten(actions) {
				if a.EquivalenceKey() != key {
					continue
				}
				cf := &CandidateFix{
					Key:        key,
					Title:      a.Title(),
					Diagnostic: it.diag,
					Action:     a,
					Project:    it.diag.Project,
					order:      fixOrder{group: it.group, diag: it.index, action: j},
				}
				if it.doc != nil {
					cf.Document = it.doc.ID
					cf.Project = it.doc.Project
				}
				matched = append(matched, cf)
			}
			bag.add(matched)

			span.WithExtra("actions", strconv.Itoa(len(actions))).
				WithExtra("matched", strconv.Itoa(len(matched))).
				End("")
			emitItem(sink, it.item, StageCollect, StateDone, len(matched))
			return nil
		})
	}

	// барьер: сортировать можно только после Wait
	if err := g.Wait(); err != nil {
		return nil, stageError(ctx, err)
	}
	return bag.sorted(), nil
}

func workItems(sol *source.Solution, batch Batch) []workItem {
	items := make([]workItem, 0, batch.DiagnosticCount())
	group := 0
	for _, db := range batch.Documents {
		project := sol.Project(db.Document.Project)
		for i, d := range db.Diagnostics {
			items = append(items, workItem{
				group:   group,
				index:   i,
				item:    db.Document.Path,
				project: project,
				doc:     db.Document,
				diag:    d,
			})
		}
		group++
	}
	for _, pb := range batch.Projects {
		for i, d := range pb.Diagnostics {
			items = append(items, workItem{
				group:   group,
				index:   i,
				item:    projectItem(pb.Project),
				project: pb.Project,
				diag:    d,
			})
		}
		group++
	}
	return items
}
