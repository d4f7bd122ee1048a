package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fixall/internal/analysis"
	"fixall/internal/diagfmt"
	"fixall/internal/fixall"
	"fixall/internal/fixcache"
	"fixall/internal/workspace"
)

// cacheApp names the per-user cache directory.
const cacheApp = "fixall"

// outputOptions collects the persistent output flags.
type outputOptions struct {
	format         string
	pathMode       diagfmt.PathMode
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	ui             uiMode
	jobs           int
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts outputOptions

	format, err := flags.GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(strings.TrimSpace(format))
	switch opts.format {
	case "pretty", "json", "yaml":
	default:
		return opts, fmt.Errorf("unsupported format %q (must be pretty, json or yaml)", format)
	}

	pathFlag, err := flags.GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(pathFlag)
	if !ok {
		return opts, fmt.Errorf("invalid --path-mode value %q", pathFlag)
	}
	opts.pathMode = mode

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	cm, err := readColorMode(colorFlag)
	if err != nil {
		return opts, err
	}
	opts.color = useColor(cm)

	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiFlag); err != nil {
		return opts, err
	}

	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative")
	}
	return opts, nil
}

// session is a loaded workspace with its rule host and diagnostics provider.
type session struct {
	ws       *workspace.Workspace
	host     *analysis.Host
	cache    *fixcache.Provider // nil when caching is off
	provider fixall.DiagnosticsProvider
	jobs     int
}

// openSession loads the workspace containing dir and configures the rules
// from its manifest.
func openSession(cmd *cobra.Command, dir string, opts outputOptions, useCache bool) (*session, error) {
	ws, err := workspace.Load(cmd.Context(), dir)
	if err != nil {
		return nil, err
	}

	rules := ws.Rules()
	disabled, err := rules.DisabledCodes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workspace.ErrInvalidManifest, err)
	}
	severities, err := rules.SeverityOverrides()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workspace.ErrInvalidManifest, err)
	}
	hostOpts := []analysis.Option{analysis.WithDisabled(disabled)}
	for code, sev := range severities {
		hostOpts = append(hostOpts, analysis.WithSeverity(code, sev))
	}
	host := analysis.NewHost(hostOpts...)

	s := &session{ws: ws, host: host, provider: host, jobs: opts.jobs}
	if s.jobs == 0 {
		s.jobs = ws.Jobs()
	}
	if useCache {
		disk, err := fixcache.OpenDiskCache(cacheApp)
		if err != nil {
			// без диска остаётся кэш в памяти
			fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
		}
		s.cache = fixcache.NewProvider(host, host.Fingerprint(), disk)
		s.provider = s.cache
	}
	return s, nil
}

// reportProblems prints files that could not be loaded.
func (s *session) reportProblems(w io.Writer, opts outputOptions) {
	if s.ws.Problems == nil || s.ws.Problems.Len() == 0 || opts.quiet {
		return
	}
	diagfmt.Pretty(w, s.ws.Problems, s.ws.Solution, diagfmt.PrettyOpts{
		Color:    opts.color,
		Context:  -1,
		PathMode: opts.pathMode,
	})
}

func targetDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
