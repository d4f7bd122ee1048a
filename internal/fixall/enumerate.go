package fixall

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"fixall/internal/diag"
	"fixall/internal/source"
	"fixall/internal/trace"
)

// DocumentBatch holds the matching diagnostics of one document.
type DocumentBatch struct {
	Document    *source.Document
	Diagnostics []*diag.Diagnostic
}

// ProjectBatch holds the matching project-level diagnostics of one project.
type ProjectBatch struct {
	Project     *source.Project
	Diagnostics []*diag.Diagnostic
}

// Batch is the output of scope enumeration. Documents and projects appear in
// solution order and only when they have at least one diagnostic.
type Batch struct {
	Documents []DocumentBatch
	Projects  []ProjectBatch
}

// Empty reports whether the batch carries no diagnostics.
func (b Batch) Empty() bool {
	return len(b.Documents) == 0 && len(b.Projects) == 0
}

// DiagnosticCount returns the number of diagnostics in the batch.
func (b Batch) DiagnosticCount() int {
	n := 0
	for _, d := range b.Documents {
		n += len(d.Diagnostics)
	}
	for _, p := range b.Projects {
		n += len(p.Diagnostics)
	}
	return n
}

// Enumerator expands a scope into the diagnostics to fix.
type Enumerator struct {
	Provider DiagnosticsProvider
	Jobs     int
	Sink     ProgressSink
}

// Enumerate resolves scope against sol, queries the provider for every
// surviving document and project in parallel and keeps diagnostics whose code
// is in rules. CustomScope skips the provider entirely.
func (e *Enumerator) Enumerate(ctx context.Context, sol *source.Solution, scope Scope, rules diag.CodeSet) (Batch, error) {
	if err := checkCancelled(ctx); err != nil {
		return Batch{}, err
	}
	if custom, ok := scope.(CustomScope); ok {
		return e.groupCustom(sol, custom, rules)
	}

	docs, projects, err := e.resolve(sol, scope)
	if err != nil {
		return Batch{}, err
	}
	return e.query(ctx, sol, docs, projects, rules)
}

// resolve returns the documents and projects covered by scope in solution order.
func (e *Enumerator) resolve(sol *source.Solution, scope Scope) ([]*source.Document, []*source.Project, error) {
	var (
		docs     []*source.Document
		projects []*source.Project
	)
	seen := make(map[source.DocumentID]struct{})
	addProject := func(p *source.Project) {
		projects = append(projects, p)
		for _, d := range sol.ProjectDocuments(p.ID) {
			if _, dup := seen[d.ID]; dup || e.generated(d) {
				continue
			}
			seen[d.ID] = struct{}{}
			docs = append(docs, d)
		}
	}

	switch sc := scope.(type) {
	case DocumentScope:
		d := sol.Document(sc.Document)
		if d == nil {
			return nil, nil, fmt.Errorf("%w: unknown document %d", ErrInvalidRequest, sc.Document)
		}
		if !e.generated(d) {
			docs = append(docs, d)
		}
	case ProjectScope:
		p := sol.Project(sc.Project)
		if p == nil {
			return nil, nil, fmt.Errorf("%w: unknown project %d", ErrInvalidRequest, sc.Project)
		}
		addProject(p)
	case SolutionScope:
		current := sol.Project(sc.Project)
		if current == nil {
			return nil, nil, fmt.Errorf("%w: unknown project %d", ErrInvalidRequest, sc.Project)
		}
		for _, p := range sol.Projects() {
			if p.Language == current.Language {
				addProject(p)
			}
		}
	default:
		return nil, nil, fmt.Errorf("%w: unsupported scope %T", ErrInvalidRequest, scope)
	}
	return docs, projects, nil
}

func (e *Enumerator) generated(d *source.Document) bool {
	if d.IsGenerated() {
		return true
	}
	return e.Provider != nil && e.Provider.IsGenerated(d)
}

func (e *Enumerator) query(ctx context.Context, sol *source.Solution, docs []*source.Document, projects []*source.Project, rules diag.CodeSet) (Batch, error) {
	if len(docs) == 0 && len(projects) == 0 {
		return Batch{}, nil
	}
	if e.Provider == nil {
		return Batch{}, fmt.Errorf("%w: no diagnostics provider", ErrInvalidRequest)
	}
	sink := e.sink()
	for _, d := range docs {
		emitItem(sink, d.Path, StageEnumerate, StateQueued, 0)
	}
	for _, p := range projects {
		emitItem(sink, projectItem(p), StageEnumerate, StateQueued, 0)
	}

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	docResults := make([][]*diag.Diagnostic, len(docs))
	projResults := make([][]*diag.Diagnostic, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(docs)+len(projects)))

	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wctx, span := trace.StartItem(gctx, "diagnostics", d.Path)
			emitItem(sink, d.Path, StageEnumerate, StateWorking, 0)

			found, err := e.Provider.DocumentDiagnostics(wctx, d)
			if err != nil {
				span.End("error")
				emitItem(sink, d.Path, StageEnumerate, StateError, 0)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				return providerFault("diagnostics for "+d.Path, err)
			}
			docResults[i] = filterDiagnostics(found, rules, func(x *diag.Diagnostic) bool {
				return x.Primary.Doc == d.ID
			})
			span.WithExtra("matched", strconv.Itoa(len(docResults[i]))).End("")
			emitItem(sink, d.Path, StageEnumerate, StateDone, len(docResults[i]))
			return nil
		})
	}
	for i, p := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wctx, span := trace.StartItem(gctx, "project diagnostics", projectItem(p))
			emitItem(sink, projectItem(p), StageEnumerate, StateWorking, 0)

			found, err := e.Provider.ProjectDiagnostics(wctx, sol, p)
			if err != nil {
				span.End("error")
				emitItem(sink, projectItem(p), StageEnumerate, StateError, 0)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				return providerFault("project diagnostics for "+p.Name, err)
			}
			projResults[i] = filterDiagnostics(found, rules, func(x *diag.Diagnostic) bool {
				return x.IsProjectLevel() && x.Project == p.ID
			})
			span.WithExtra("matched", strconv.Itoa(len(projResults[i]))).End("")
			emitItem(sink, projectItem(p), StageEnumerate, StateDone, len(projResults[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Batch{}, stageError(ctx, err)
	}

	var batch Batch
	for i, d := range docs {
		if len(docResults[i]) > 0 {
			batch.Documents = append(batch.Documents, DocumentBatch{Document: d, Diagnostics: docResults[i]})
		}
	}
	for i, p := range projects {
		if len(projResults[i]) > 0 {
			batch.Projects = append(batch.Projects, ProjectBatch{Project: p, Diagnostics: projResults[i]})
		}
	}
	return batch, nil
}

// groupCustom groups caller-supplied diagnostics by document and project.
func (e *Enumerator) groupCustom(sol *source.Solution, sc CustomScope, rules diag.CodeSet) (Batch, error) {
	byDoc := make(map[source.DocumentID][]*diag.Diagnostic)
	byProject := make(map[source.ProjectID][]*diag.Diagnostic)
	for _, d := range filterDiagnostics(sc.Diagnostics, rules, nil) {
		if d.IsProjectLevel() {
			if sol.Project(d.Project) == nil {
				return Batch{}, fmt.Errorf("%w: diagnostic %s refers to unknown project %d", ErrInvalidRequest, d.Code.ID(), d.Project)
			}
			byProject[d.Project] = append(byProject[d.Project], d)
			continue
		}
		if sol.Document(d.Primary.Doc) == nil {
			return Batch{}, fmt.Errorf("%w: diagnostic %s refers to unknown document %d", ErrInvalidRequest, d.Code.ID(), d.Primary.Doc)
		}
		byDoc[d.Primary.Doc] = append(byDoc[d.Primary.Doc], d)
	}

	var batch Batch
	for _, p := range sol.Projects() {
		for _, doc := range sol.ProjectDocuments(p.ID) {
			if list, ok := byDoc[doc.ID]; ok {
				batch.Documents = append(batch.Documents, DocumentBatch{Document: doc, Diagnostics: list})
			}
		}
	}
	for _, p := range sol.Projects() {
		if list, ok := byProject[p.ID]; ok {
			batch.Projects = append(batch.Projects, ProjectBatch{Project: p, Diagnostics: list})
		}
	}
	return batch, nil
}

func (e *Enumerator) sink() ProgressSink {
	if e.Sink == nil {
		return nopSink{}
	}
	return e.Sink
}

// filterDiagnostics keeps diagnostics whose code is in rules and that pass
// keep (when non-nil), dropping duplicates, in diag.SortDiagnostics order.
func filterDiagnostics(in []*diag.Diagnostic, rules diag.CodeSet, keep func(*diag.Diagnostic) bool) []*diag.Diagnostic {
	out := make([]*diag.Diagnostic, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		if d == nil || !rules.Has(d.Code) {
			continue
		}
		if keep != nil && !keep(d) {
			continue
		}
		key := d.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	diag.SortDiagnostics(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func projectItem(p *source.Project) string {
	return "<" + p.Name + ">"
}
