package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fixall/internal/analysis"
	"fixall/internal/diag"
	"fixall/internal/diagfmt"
	"fixall/internal/fixall"
	"fixall/internal/observ"
	"fixall/internal/source"
	"fixall/internal/trace"
	"fixall/internal/workspace"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [directory]",
	Short: "Fix every occurrence of the selected rules in one merged change",
	Long: `Collect the fixes of the selected rules over a document, a project or the whole solution,
merge them into one change set and print it. Nothing is written unless --write is given,
and a conflicting merge is never written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().String("scope", "project", "fix-all scope (document|project|solution|custom)")
	fixCmd.Flags().String("file", "", "document to fix (document scope) or to pick the project from")
	fixCmd.Flags().String("project", "", "project name (project and solution scopes)")
	fixCmd.Flags().StringSlice("rule", nil, "rule ids to fix (e.g. FA1001)")
	fixCmd.Flags().String("key", "", "equivalence key of the fix to apply (default: the rule's first fix)")
	fixCmd.Flags().Bool("write", false, "write the merged documents to disk")
	fixCmd.Flags().Bool("diff", false, "print a unified diff of the merged documents")
	fixCmd.Flags().Bool("preview", false, "show before/after lines for every change")
	fixCmd.Flags().Bool("list-fixes", false, "list the candidate fixes in json/yaml output")
	fixCmd.Flags().Bool("no-cache", false, "do not read or write the diagnostics cache")
}

type fixFlags struct {
	scope     string
	file      string
	project   string
	rules     []string
	key       string
	write     bool
	diff      bool
	preview   bool
	listFixes bool
	noCache   bool
}

func readFixFlags(cmd *cobra.Command) (fixFlags, error) {
	var f fixFlags
	var err error
	if f.scope, err = cmd.Flags().GetString("scope"); err != nil {
		return f, fmt.Errorf("failed to get scope flag: %w", err)
	}
	if f.file, err = cmd.Flags().GetString("file"); err != nil {
		return f, fmt.Errorf("failed to get file flag: %w", err)
	}
	if f.project, err = cmd.Flags().GetString("project"); err != nil {
		return f, fmt.Errorf("failed to get project flag: %w", err)
	}
	if f.rules, err = cmd.Flags().GetStringSlice("rule"); err != nil {
		return f, fmt.Errorf("failed to get rule flag: %w", err)
	}
	if f.key, err = cmd.Flags().GetString("key"); err != nil {
		return f, fmt.Errorf("failed to get key flag: %w", err)
	}
	if f.write, err = cmd.Flags().GetBool("write"); err != nil {
		return f, fmt.Errorf("failed to get write flag: %w", err)
	}
	if f.diff, err = cmd.Flags().GetBool("diff"); err != nil {
		return f, fmt.Errorf("failed to get diff flag: %w", err)
	}
	if f.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return f, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if f.listFixes, err = cmd.Flags().GetBool("list-fixes"); err != nil {
		return f, fmt.Errorf("failed to get list-fixes flag: %w", err)
	}
	if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	return f, nil
}

func runFix(cmd *cobra.Command, args []string) (err error) {
	defer dumpTraceOnPanic()

	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	flags, err := readFixFlags(cmd)
	if err != nil {
		return err
	}
	rules, key, err := resolveRules(flags.rules, flags.key)
	if err != nil {
		return err
	}

	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanupProf()
	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	ctx, span := trace.StartOperation(cmd.Context(), "", "fix")
	defer func() {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		span.End(detail)
	}()

	timer := observ.NewTimer()
	idx := timer.Begin("load")
	s, err := openSession(cmd, targetDir(args), opts, !flags.noCache)
	if err != nil {
		return err
	}
	timer.EndCount(idx, s.ws.Root, len(s.ws.Solution.Documents()))
	s.reportProblems(cmd.ErrOrStderr(), opts)

	sol := s.ws.Solution
	scope, err := resolveScope(ctx, s, flags, rules)
	if err != nil {
		return err
	}
	req := fixall.Request{Scope: scope, Rules: rules, EquivalenceKey: key}

	engineOpts := []fixall.Option{fixall.WithTimer(timer)}
	if s.jobs > 0 {
		engineOpts = append(engineOpts, fixall.WithJobs(s.jobs))
	}

	var res *fixall.Result
	if shouldUseTUI(opts.ui, opts.format) && !opts.quiet {
		res, err = runFixAllWithUI(ctx, fixall.Title(sol, scope, rules), s.provider, engineOpts, sol, req, s.host)
	} else {
		res, err = fixall.NewEngine(s.provider, engineOpts...).Run(ctx, sol, req, s.host)
	}
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	if err := printResult(cmd.OutOrStdout(), res, opts, flags); err != nil {
		return err
	}

	if res.Status == fixall.StatusFixed && flags.write {
		idx = timer.Begin("write")
		written, err := writeResult(res)
		if err != nil {
			return fmt.Errorf("fix: %w", err)
		}
		timer.EndCount(idx, "", len(written))
		if !opts.quiet {
			printWritten(cmd.ErrOrStderr(), written)
		}
	}

	if opts.timings {
		printTimings(cmd.ErrOrStderr(), timer, s.cache)
	}
	if res.Status == fixall.StatusConflict {
		return errConflict
	}
	return nil
}

// resolveRules parses the rule ids and picks the equivalence key. Without
// --rule the rule is derived from --key; without --key a single rule's first
// fix is used.
func resolveRules(ids []string, key string) (diag.CodeSet, string, error) {
	rules, err := diag.ParseCodes(ids)
	if err != nil {
		return nil, "", err
	}
	if len(rules) == 0 {
		if key == "" {
			return nil, "", errors.New("fix: --rule or --key is required")
		}
		r, ok := analysis.RuleForKey(key)
		if !ok {
			return nil, "", fmt.Errorf("fix: unknown fix key %q", key)
		}
		return diag.NewCodeSet(r.Code), key, nil
	}
	for _, c := range rules.Codes() {
		if _, ok := analysis.RuleByCode(c); !ok {
			return nil, "", fmt.Errorf("fix: %s is not a fixable rule", c.ID())
		}
	}
	if key != "" {
		return rules, key, nil
	}
	if len(rules) > 1 {
		return nil, "", errors.New("fix: --key is required when several rules are selected")
	}
	r, _ := analysis.RuleByCode(rules.Codes()[0])
	if len(r.Keys) == 0 {
		return nil, "", fmt.Errorf("fix: %s has no fixes", r.Code.ID())
	}
	return rules, r.Keys[0], nil
}

func resolveScope(ctx context.Context, s *session, f fixFlags, rules diag.CodeSet) (fixall.Scope, error) {
	sol := s.ws.Solution

	var doc *source.Document
	if f.file != "" {
		abs, err := source.AbsolutePath(f.file)
		if err != nil {
			return nil, err
		}
		d, ok := sol.DocumentByPath(abs)
		if !ok {
			return nil, fmt.Errorf("fix: %s is not part of the workspace", f.file)
		}
		doc = d
	}

	if strings.EqualFold(f.scope, "custom") {
		bag, err := analysis.Diagnose(ctx, sol, s.provider, s.jobs)
		if err != nil {
			return nil, fmt.Errorf("fix: %w", err)
		}
		bag = bag.Filter(rules)
		if doc != nil {
			var items []*diag.Diagnostic
			for _, d := range bag.Items() {
				if d.Primary.Doc == doc.ID {
					items = append(items, d)
				}
			}
			return fixall.CustomScope{Diagnostics: items}, nil
		}
		return fixall.CustomScope{Diagnostics: bag.Items()}, nil
	}

	kind, err := fixall.ParseScopeKind(f.scope)
	if err != nil {
		return nil, err
	}
	if kind == fixall.KindDocument {
		if doc == nil {
			return nil, errors.New("fix: --file is required for the document scope")
		}
		return fixall.DocumentScope{Document: doc.ID}, nil
	}

	project, err := pickProject(sol, f.project, doc)
	if err != nil {
		return nil, err
	}
	if kind == fixall.KindProject {
		return fixall.ProjectScope{Project: project.ID}, nil
	}
	return fixall.SolutionScope{Project: project.ID}, nil
}

func pickProject(sol *source.Solution, name string, doc *source.Document) (*source.Project, error) {
	switch {
	case name != "":
		p, ok := sol.ProjectByName(name)
		if !ok {
			return nil, fmt.Errorf("fix: unknown project %q", name)
		}
		return p, nil
	case doc != nil:
		return sol.Project(doc.Project), nil
	}
	projects := sol.Projects()
	if len(projects) == 1 {
		return projects[0], nil
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return nil, fmt.Errorf("fix: several projects (%s); use --project or --file", strings.Join(names, ", "))
}

func printResult(out io.Writer, res *fixall.Result, opts outputOptions, f fixFlags) error {
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         opts.pathMode,
		IncludePreviews:  f.preview,
		IncludeFixes:     f.listFixes,
	}
	switch opts.format {
	case "json":
		return diagfmt.ResultJSON(out, res, jsonOpts)
	case "yaml":
		return diagfmt.ResultYAML(out, res, jsonOpts)
	}
	diagfmt.PrettyResult(out, res, diagfmt.PrettyOpts{
		Color:       opts.color,
		PathMode:    opts.pathMode,
		ShowPreview: f.preview,
	})
	if f.diff {
		return diagfmt.UnifiedDiff(out, res, opts.pathMode)
	}
	return nil
}

// writeResult applies the aggregate action to its own baseline and writes
// the merged documents.
func writeResult(res *fixall.Result) ([]workspace.FileChange, error) {
	action := res.Action()
	if action == nil {
		return nil, nil
	}
	merged, err := action.Apply(context.Background(), res.Baseline)
	if err != nil {
		return nil, err
	}
	return workspace.WriteChanges(res.Baseline, merged)
}

func printWritten(out io.Writer, written []workspace.FileChange) {
	if len(written) == 0 {
		return
	}
	fmt.Fprintln(out, "Updated files:")
	for _, fc := range written {
		fmt.Fprintf(out, "  %s (%d changes)\n", fc.Path, fc.Changes)
	}
}
