package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fixall/internal/analysis"
	"fixall/internal/diag"
	"fixall/internal/diagfmt"
	"fixall/internal/observ"
	"fixall/internal/trace"
	"fixall/internal/version"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [directory]",
	Short: "Report rule diagnostics for a workspace",
	Long:  `Run every enabled rule over the workspace containing the directory (default ".") and print the diagnostics`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("sarif", false, "emit SARIF 2.1.0 instead of --format")
	diagCmd.Flags().Bool("short", false, "one line per diagnostic")
	diagCmd.Flags().Bool("no-cache", false, "do not read or write the diagnostics cache")
	diagCmd.Flags().StringSlice("rule", nil, "only report these rules (e.g. FA1001)")
}

// runDiagnose executes the "diag" command. It returns an error when any
// diagnostic has error severity so that scripts can gate on the exit code.
func runDiagnose(cmd *cobra.Command, args []string) (err error) {
	// Ensure trace is dumped on panic
	defer dumpTraceOnPanic()

	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	sarif, err := cmd.Flags().GetBool("sarif")
	if err != nil {
		return fmt.Errorf("failed to get sarif flag: %w", err)
	}
	short, err := cmd.Flags().GetBool("short")
	if err != nil {
		return fmt.Errorf("failed to get short flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	ruleIDs, err := cmd.Flags().GetStringSlice("rule")
	if err != nil {
		return fmt.Errorf("failed to get rule flag: %w", err)
	}
	only, err := diag.ParseCodes(ruleIDs)
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

	ctx, span := trace.StartOperation(cmd.Context(), "", "diag")
	defer func() {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		span.End(detail)
	}()

	timer := observ.NewTimer()
	idx := timer.Begin("load")
	s, err := openSession(cmd, targetDir(args), opts, !noCache)
	if err != nil {
		return err
	}
	timer.EndCount(idx, s.ws.Root, len(s.ws.Solution.Documents()))
	s.reportProblems(cmd.ErrOrStderr(), opts)

	idx = timer.Begin("diagnose")
	bag, err := analysis.Diagnose(ctx, s.ws.Solution, s.provider, s.jobs)
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}
	if len(only) > 0 {
		bag = bag.Filter(only)
	}
	timer.EndCount(idx, "", bag.Len())

	out := cmd.OutOrStdout()
	sol := s.ws.Solution
	switch {
	case sarif:
		err = diagfmt.Sarif(out, bag, sol, diagfmt.SarifRunMeta{
			ToolName:       "fixall",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case short:
		if text := diag.FormatShortDiagnostics(limit(bag, opts.maxDiagnostics).Items(), sol, withNotes); text != "" {
			_, err = fmt.Fprintln(out, text)
		}
	case opts.format == "json":
		err = diagfmt.JSON(out, bag, sol, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			Max:              opts.maxDiagnostics,
			IncludeNotes:     withNotes,
		})
	case opts.format == "yaml":
		err = diagfmt.YAML(out, bag, sol, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			Max:              opts.maxDiagnostics,
			IncludeNotes:     withNotes,
		})
	default:
		diagfmt.Pretty(out, limit(bag, opts.maxDiagnostics), sol, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  opts.pathMode,
			ShowNotes: withNotes,
		})
		if !opts.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), summarize(bag))
		}
	}
	if err != nil {
		return err
	}

	if opts.timings {
		printTimings(cmd.ErrOrStderr(), timer, s.cache)
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// limit returns a bag with at most n diagnostics; n <= 0 keeps all.
func limit(bag *diag.Bag, n int) *diag.Bag {
	if n <= 0 || bag.Len() <= n {
		return bag
	}
	out := diag.NewBag(n)
	for _, d := range bag.Items() {
		out.Add(d)
	}
	return out
}

func summarize(bag *diag.Bag) string {
	counts := map[diag.Severity]int{}
	for _, d := range bag.Items() {
		counts[d.Severity]++
	}
	parts := make([]string, 0, 3)
	for _, sev := range []diag.Severity{diag.SevError, diag.SevWarning, diag.SevInfo} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(sev.String())))
		}
	}
	if len(parts) == 0 {
		return "no diagnostics"
	}
	return strings.Join(parts, ", ")
}
