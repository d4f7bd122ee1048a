package fixall

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixall/internal/diag"
	"fixall/internal/observ"
	"fixall/internal/source"
)

// fakeDiagnostics returns canned diagnostics and counts queries.
type fakeDiagnostics struct {
	mu        sync.Mutex
	byDoc     map[source.DocumentID][]*diag.Diagnostic
	byProject map[source.ProjectID][]*diag.Diagnostic
	generated map[source.DocumentID]bool
	queried   map[source.DocumentID]int
	err       error
	onQuery   func(ctx context.Context) error
}

func newFakeDiagnostics() *fakeDiagnostics {
	return &fakeDiagnostics{
		byDoc:     make(map[source.DocumentID][]*diag.Diagnostic),
		byProject: make(map[source.ProjectID][]*diag.Diagnostic),
		generated: make(map[source.DocumentID]bool),
		queried:   make(map[source.DocumentID]int),
	}
}

func (f *fakeDiagnostics) add(d *diag.Diagnostic) *diag.Diagnostic {
	if d.IsProjectLevel() {
		f.byProject[d.Project] = append(f.byProject[d.Project], d)
	} else {
		f.byDoc[d.Primary.Doc] = append(f.byDoc[d.Primary.Doc], d)
	}
	return d
}

func (f *fakeDiagnostics) DocumentDiagnostics(ctx context.Context, doc *source.Document) ([]*diag.Diagnostic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried[doc.ID]++
	if f.onQuery != nil {
		if err := f.onQuery(ctx); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.byDoc[doc.ID], nil
}

func (f *fakeDiagnostics) ProjectDiagnostics(_ context.Context, _ *source.Solution, p *source.Project) ([]*diag.Diagnostic, error) {
	return f.byProject[p.ID], nil
}

func (f *fakeDiagnostics) IsGenerated(doc *source.Document) bool {
	return f.generated[doc.ID]
}

// replaceFixer offers one "replace" action per diagnostic that rewrites the
// primary span with the diagnostic's "to" property.
type replaceFixer struct {
	mu     sync.Mutex
	called []source.DocumentID
	hook   func(ctx context.Context, fc FixContext) ([]Action, error)
}

func (r *replaceFixer) Fixes(ctx context.Context, fc FixContext) ([]Action, error) {
	r.mu.Lock()
	if fc.Document != nil {
		r.called = append(r.called, fc.Document.ID)
	}
	r.mu.Unlock()
	if r.hook != nil {
		return r.hook(ctx, fc)
	}
	d := fc.Diagnostics[0]
	ch := source.TextChange{Span: fc.Span, NewText: d.Property("to")}
	return []Action{
		ChangesAction("Replace with "+d.Property("to"), "replace", fc.Span.Doc, ch),
		ChangesAction("Delete", "delete", fc.Span.Doc, source.TextChange{Span: fc.Span}),
	}, nil
}

func (r *replaceFixer) calledDocs() []source.DocumentID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]source.DocumentID(nil), r.called...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func (s *recordingSink) stageStates() map[Stage]ItemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Stage]ItemState)
	for _, e := range s.events {
		if e.Item == "" {
			out[e.Stage] = e.State
		}
	}
	return out
}

func warn(code diag.Code, p source.ProjectID, doc source.DocumentID, start, end uint32, to string) *diag.Diagnostic {
	return diag.New(diag.SevWarning, code, p, source.Span{Doc: doc, Start: start, End: end}, code.Title()).
		WithProperty("to", to)
}

func TestRunMergesDocumentFixes(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "c")
	doc := b.AddDocument(p, "/ws/main.c", []byte(mergeText), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 4, 5, "a"))
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 15, 16, "b"))

	sink := &recordingSink{}
	timer := observ.NewTimer()
	eng := NewEngine(dp, WithJobs(2), WithProgress(sink), WithTimer(timer))

	res, err := eng.Run(context.Background(), sol, Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}, &replaceFixer{})
	require.NoError(t, err)

	assert.Equal(t, StatusFixed, res.Status)
	assert.Equal(t, "Fix all 'FA1001' in 'main.c'", res.Title)
	assert.Equal(t, KindDocument, res.Scope)
	assert.Equal(t, 2, res.DiagnosticCount)
	assert.Equal(t, 2, res.FixCount())
	assert.Equal(t, 2, res.ChangeCount())
	assert.Equal(t, "int a = 1;\nint b = 2;", string(res.Solution.Document(doc).Text))
	assert.Equal(t, mergeText, string(sol.Document(doc).Text))
	assert.NotEqual(t, [16]byte{}, [16]byte(res.OperationID))

	states := sink.stageStates()
	for _, st := range Stages {
		assert.Equal(t, StateDone, states[st], "stage %s", st)
	}
	assert.Len(t, timer.Report().Phases, len(Stages))

	action := res.Action()
	require.NotNil(t, action)
	assert.Equal(t, res.Title, action.Title())
	assert.Equal(t, "replace", action.EquivalenceKey())

	applied, err := action.Apply(context.Background(), sol)
	require.NoError(t, err)
	assert.Same(t, res.Solution, applied)

	_, err = action.Apply(context.Background(), res.Solution)
	assert.ErrorIs(t, err, ErrStaleSolution)
}

func TestRunDisjointDeletesOfRepeatedText(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "c")
	doc := b.AddDocument(p, "/ws/main.c", []byte("aaa;\n"), 0)
	sol := b.Build()

	// каждое удаление по отдельности даёт "aa;\n"
	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 0, 1, ""))
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 2, 3, ""))

	for _, jobs := range []int{1, 4} {
		res, err := NewEngine(dp, WithJobs(jobs)).Run(context.Background(), sol, Request{
			Scope:          DocumentScope{Document: doc},
			Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
			EquivalenceKey: "replace",
		}, &replaceFixer{})
		require.NoError(t, err)
		require.Equal(t, StatusFixed, res.Status)
		assert.Equal(t, 2, res.FixCount())
		assert.Equal(t, 2, res.ChangeCount())
		require.Len(t, res.Changed, 1)
		assert.Equal(t, []source.TextChange{
			{Span: source.Span{Doc: doc, Start: 0, End: 1}},
			{Span: source.Span{Doc: doc, Start: 2, End: 3}},
		}, res.Changed[0].Changes)
		assert.Equal(t, "a;\n", string(res.Solution.Document(doc).Text))
	}
}

func TestRunConflict(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "c")
	doc := b.AddDocument(p, "/ws/main.c", []byte(mergeText), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 4, 5, "a"))
	dp.add(warn(diag.TxtTabIndentation, p, doc, 4, 5, "z"))

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace, diag.TxtTabIndentation),
		EquivalenceKey: "replace",
	}, &replaceFixer{})
	require.NoError(t, err)

	assert.Equal(t, StatusConflict, res.Status)
	require.NotNil(t, res.Conflict)
	assert.Nil(t, res.Solution)
	assert.Nil(t, res.Action())
	assert.Equal(t, "Fix all 'FA1001, FA1002' in 'main.c'", res.Title)
}

func TestRunProjectScopeSkipsCleanDocuments(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	d1 := b.AddDocument(p, "/ws/a.go", []byte("aaa"), 0)
	d2 := b.AddDocument(p, "/ws/b.go", []byte("bbb"), 0)
	d3 := b.AddDocument(p, "/ws/c.go", []byte("ccc"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, p, d2, 1, 2, "X"))
	fixer := &replaceFixer{}

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          ProjectScope{Project: p},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}, fixer)
	require.NoError(t, err)

	assert.Equal(t, StatusFixed, res.Status)
	assert.Equal(t, "Fix all 'FA1001' in 'app'", res.Title)
	assert.Equal(t, []source.DocumentID{d2}, fixer.calledDocs())
	assert.Equal(t, "bXb", string(res.Solution.Document(d2).Text))
	for _, id := range []source.DocumentID{d1, d3} {
		assert.Same(t, sol.Document(id), res.Solution.Document(id), "untouched documents are shared")
		assert.Equal(t, 1, dp.queried[id])
	}
}

func TestRunSkipsGeneratedDocuments(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	flagged := b.AddDocument(p, "/ws/a_gen.go", []byte("aaa"), source.DocumentGenerated)
	marked := b.AddDocument(p, "/ws/b.pb.go", []byte("bbb"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.generated[marked] = true
	dp.add(warn(diag.TxtTrailingWhitespace, p, flagged, 0, 1, "X"))
	dp.add(warn(diag.TxtTrailingWhitespace, p, marked, 0, 1, "X"))
	fixer := &replaceFixer{}

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          ProjectScope{Project: p},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}, fixer)
	require.NoError(t, err)
	assert.Equal(t, StatusNothingToFix, res.Status)
	assert.Empty(t, fixer.calledDocs())
	assert.Zero(t, dp.queried[flagged])
	assert.Zero(t, dp.queried[marked])
}

func TestRunSolutionScopeFiltersLanguage(t *testing.T) {
	b := source.NewBuilder("/ws")
	api := b.AddProject("api", "go")
	cli := b.AddProject("cli", "go")
	web := b.AddProject("web", "ts")
	d1 := b.AddDocument(api, "/ws/api/a.go", []byte("a1"), 0)
	d2 := b.AddDocument(cli, "/ws/cli/b.go", []byte("b1"), 0)
	d3 := b.AddDocument(web, "/ws/web/c.ts", []byte("c1"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, api, d1, 1, 2, "2"))
	dp.add(warn(diag.TxtTrailingWhitespace, cli, d2, 1, 2, "2"))
	dp.add(warn(diag.TxtTrailingWhitespace, web, d3, 1, 2, "2"))

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          SolutionScope{Project: cli},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}, &replaceFixer{})
	require.NoError(t, err)

	assert.Equal(t, "Fix all 'FA1001' in Solution", res.Title)
	require.Len(t, res.Changed, 2)
	assert.Equal(t, d1, res.Changed[0].Document)
	assert.Equal(t, d2, res.Changed[1].Document)
	assert.Equal(t, "c1", string(res.Solution.Document(d3).Text))
}

func TestRunCustomScope(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/a.go", []byte("hello"), 0)
	sol := b.Build()

	picked := warn(diag.TxtNotNormalized, p, doc, 0, 1, "H")

	res, err := NewEngine(nil).Run(context.Background(), sol, Request{
		Scope:          CustomScope{Diagnostics: []*diag.Diagnostic{picked}},
		EquivalenceKey: "replace",
	}, &replaceFixer{})
	require.NoError(t, err)
	assert.Equal(t, "Fix all 'FA1003'", res.Title)
	assert.Equal(t, "Hello", string(res.Solution.Document(doc).Text))
	assert.True(t, res.Rules.Has(diag.TxtNotNormalized))
}

func TestRunProjectLevelFix(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProjectWithOptions("app", "go", "/ws", map[string]string{"header": "// hdr\n"})
	d1 := b.AddDocument(p, "/ws/a.go", []byte("a"), 0)
	d2 := b.AddDocument(p, "/ws/b.go", []byte("// hdr\nb"), 0)
	d3 := b.AddDocument(p, "/ws/c.go", []byte("c"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(diag.NewProjectLevel(diag.SevInfo, diag.PrjMissingHeader, p, "2 documents lack the header"))

	fixer := &replaceFixer{hook: func(_ context.Context, fc FixContext) ([]Action, error) {
		assert.Nil(t, fc.Document)
		hdr := fc.Project.Option("header")
		return []Action{NewAction("Insert header", "header", func(ctx context.Context, s *source.Solution) (*source.Solution, error) {
			texts := make(map[source.DocumentID][]byte)
			for _, d := range s.ProjectDocuments(fc.Project.ID) {
				if string(d.Text[:min(len(hdr), len(d.Text))]) != hdr {
					texts[d.ID] = append([]byte(hdr), d.Text...)
				}
			}
			return s.WithDocumentTexts(texts)
		})}, nil
	}}

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          ProjectScope{Project: p},
		Rules:          diag.NewCodeSet(diag.PrjMissingHeader),
		EquivalenceKey: "header",
	}, fixer)
	require.NoError(t, err)
	require.Equal(t, StatusFixed, res.Status)
	assert.Equal(t, "// hdr\na", string(res.Solution.Document(d1).Text))
	assert.Same(t, sol.Document(d2), res.Solution.Document(d2))
	assert.Equal(t, "// hdr\nc", string(res.Solution.Document(d3).Text))
	assert.Len(t, res.Changed, 2)
}

func TestRunEquivalenceKeyAndGroups(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/a.go", []byte("\tfoo\n\tbar\n"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTabIndentation, p, doc, 0, 1, ""))
	dp.add(warn(diag.TxtTabIndentation, p, doc, 5, 6, ""))

	fixer := &replaceFixer{hook: func(_ context.Context, fc FixContext) ([]Action, error) {
		sp := fc.Span
		return []Action{
			NewGroup("Convert indentation",
				ChangesAction("Use 4 spaces", "indent-4", sp.Doc, source.TextChange{Span: sp, NewText: "    "}),
				ChangesAction("Use 2 spaces", "indent-2", sp.Doc, source.TextChange{Span: sp, NewText: "  "}),
			),
			ChangesAction("Remove", "remove", sp.Doc, source.TextChange{Span: sp}),
		}, nil
	}}

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTabIndentation),
		EquivalenceKey: "indent-2",
	}, fixer)
	require.NoError(t, err)
	require.Equal(t, StatusFixed, res.Status)
	assert.Equal(t, "  foo\n  bar\n", string(res.Solution.Document(doc).Text))
	for _, f := range res.Fixes {
		assert.Equal(t, "Use 2 spaces", f.Title)
	}

	res, err = NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTabIndentation),
		EquivalenceKey: "missing",
	}, fixer)
	require.NoError(t, err)
	assert.Equal(t, StatusNothingToFix, res.Status)
	assert.Nil(t, res.Action())
}

func TestRunNothingToFix(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/a.go", []byte("clean"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTabIndentation, p, doc, 0, 1, ""))
	fixer := &replaceFixer{}

	res, err := NewEngine(dp).Run(context.Background(), sol, Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}, fixer)
	require.NoError(t, err)
	assert.Equal(t, StatusNothingToFix, res.Status)
	assert.Empty(t, fixer.calledDocs())
}

func TestRunProviderFault(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/a.go", []byte("text"), 0)
	sol := b.Build()
	boom := errors.New("boom")
	req := Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}

	t.Run("diagnostics", func(t *testing.T) {
		dp := newFakeDiagnostics()
		dp.err = boom
		_, err := NewEngine(dp).Run(context.Background(), sol, req, &replaceFixer{})
		require.ErrorIs(t, err, ErrProviderFault)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("fixes", func(t *testing.T) {
		dp := newFakeDiagnostics()
		dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 0, 1, "T"))
		fixer := &replaceFixer{hook: func(context.Context, FixContext) ([]Action, error) {
			return nil, boom
		}}
		sink := &recordingSink{}
		_, err := NewEngine(dp, WithProgress(sink)).Run(context.Background(), sol, req, fixer)
		require.ErrorIs(t, err, ErrProviderFault)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, StateError, sink.stageStates()[StageCollect])
	})

	t.Run("apply", func(t *testing.T) {
		dp := newFakeDiagnostics()
		dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 0, 1, "T"))
		fixer := &replaceFixer{hook: func(context.Context, FixContext) ([]Action, error) {
			return []Action{NewAction("Broken", "replace", func(context.Context, *source.Solution) (*source.Solution, error) {
				return nil, boom
			})}, nil
		}}
		_, err := NewEngine(dp).Run(context.Background(), sol, req, fixer)
		require.ErrorIs(t, err, ErrProviderFault)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRunCancellation(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/a.go", []byte("text"), 0)
	sol := b.Build()

	dp := newFakeDiagnostics()
	dp.add(warn(diag.TxtTrailingWhitespace, p, doc, 0, 1, "T"))
	req := Request{
		Scope:          DocumentScope{Document: doc},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := NewEngine(dp).Run(ctx, sol, req, &replaceFixer{})
		require.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, res)
	})

	t.Run("during enumerate", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cancelling := newFakeDiagnostics()
		cancelling.add(warn(diag.TxtTrailingWhitespace, p, doc, 0, 1, "T"))
		cancelling.onQuery = func(ctx context.Context) error {
			cancel()
			return ctx.Err()
		}
		fixer := &replaceFixer{}
		res, err := NewEngine(cancelling).Run(ctx, sol, req, fixer)
		require.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrProviderFault)
		assert.Nil(t, res)
		assert.Empty(t, fixer.calledDocs())
	})

	t.Run("during collect", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fixer := &replaceFixer{hook: func(ctx context.Context, _ FixContext) ([]Action, error) {
			cancel()
			return nil, ctx.Err()
		}}
		_, err := NewEngine(dp).Run(ctx, sol, req, fixer)
		require.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrProviderFault)
	})
}

func TestRunInvalidRequest(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	sol := b.Build()
	eng := NewEngine(newFakeDiagnostics())

	tests := []struct {
		name string
		req  Request
	}{
		{"empty key", Request{Scope: ProjectScope{Project: p}, Rules: diag.NewCodeSet(diag.TxtTrailingWhitespace)}},
		{"nil scope", Request{Rules: diag.NewCodeSet(diag.TxtTrailingWhitespace), EquivalenceKey: "k"}},
		{"no rules", Request{Scope: ProjectScope{Project: p}, EquivalenceKey: "k"}},
		{"unknown document", Request{Scope: DocumentScope{Document: 42}, Rules: diag.NewCodeSet(diag.TxtTrailingWhitespace), EquivalenceKey: "k"}},
		{"unknown project", Request{Scope: SolutionScope{Project: 9}, Rules: diag.NewCodeSet(diag.TxtTrailingWhitespace), EquivalenceKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Run(context.Background(), sol, tt.req, &replaceFixer{})
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRunDeterministicAcrossJobs(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	dp := newFakeDiagnostics()
	var docs []source.DocumentID
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		docs = append(docs, b.AddDocument(p, "/ws/"+name+".go", []byte("0123456789"), 0))
	}
	sol := b.Build()
	for _, d := range docs {
		for _, off := range []uint32{1, 4, 7} {
			dp.add(warn(diag.TxtTrailingWhitespace, p, d, off, off+1, "_"))
		}
	}
	req := Request{
		Scope:          ProjectScope{Project: p},
		Rules:          diag.NewCodeSet(diag.TxtTrailingWhitespace),
		EquivalenceKey: "replace",
	}

	serial, err := NewEngine(dp, WithJobs(1)).Run(context.Background(), sol, req, &replaceFixer{})
	require.NoError(t, err)
	parallel, err := NewEngine(dp, WithJobs(8)).Run(context.Background(), sol, req, &replaceFixer{})
	require.NoError(t, err)

	assert.Equal(t, serial.Changed, parallel.Changed)
	require.Len(t, serial.Fixes, len(parallel.Fixes))
	for i := range serial.Fixes {
		assert.Equal(t, serial.Fixes[i].Diagnostic, parallel.Fixes[i].Diagnostic)
	}
	assert.Equal(t, "0_23_56_89", string(parallel.Solution.Document(docs[3]).Text))
}

func TestTitle(t *testing.T) {
	b := source.NewBuilder("/ws")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/ws/src/main.go", nil, 0)
	sol := b.Build()
	rules := diag.NewCodeSet(diag.TxtTabIndentation, diag.TxtTrailingWhitespace)

	tests := []struct {
		scope Scope
		want  string
	}{
		{DocumentScope{Document: doc}, "Fix all 'FA1001, FA1002' in 'main.go'"},
		{ProjectScope{Project: p}, "Fix all 'FA1001, FA1002' in 'app'"},
		{SolutionScope{Project: p}, "Fix all 'FA1001, FA1002' in Solution"},
		{CustomScope{}, "Fix all 'FA1001, FA1002'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Title(sol, tt.scope, rules), tt.scope.Kind().String())
	}
}

func TestParseScopeKind(t *testing.T) {
	k, err := ParseScopeKind("Project")
	require.NoError(t, err)
	assert.Equal(t, KindProject, k)

	_, err = ParseScopeKind("custom")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
