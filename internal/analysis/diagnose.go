package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
	"fixall/internal/trace"
)

// Diagnose runs dp over every non-generated document and every project of
// sol and returns the diagnostics sorted. jobs <= 0 means GOMAXPROCS.
func Diagnose(ctx context.Context, sol *source.Solution, dp fixall.DiagnosticsProvider, jobs int) (*diag.Bag, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	ctx, span := trace.StartStage(ctx, "diagnose")
	defer span.End("")

	var docs []*source.Document
	for _, d := range sol.Documents() {
		if !dp.IsGenerated(d) {
			docs = append(docs, d)
		}
	}
	projects := sol.Projects()

	// результаты по индексам, без общего мьютекса
	docResults := make([][]*diag.Diagnostic, len(docs))
	projResults := make([][]*diag.Diagnostic, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diags, err := dp.DocumentDiagnostics(gctx, d)
			if err != nil {
				return err
			}
			docResults[i] = diags
			return nil
		})
	}
	for i, p := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diags, err := dp.ProjectDiagnostics(gctx, sol, p)
			if err != nil {
				return err
			}
			projResults[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := diag.NewBag(0)
	for _, group := range [][][]*diag.Diagnostic{docResults, projResults} {
		for _, diags := range group {
			for _, d := range diags {
				bag.Add(d)
			}
		}
	}
	bag.Sort()
	return bag, nil
}
