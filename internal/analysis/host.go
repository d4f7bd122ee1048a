package analysis

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
)

// generatedMarker matches the conventional "Code generated ... DO NOT EDIT."
// line in any of the common comment styles.
var generatedMarker = regexp.MustCompile(`(?m)^\s*(?://|#|--|;|/\*|\*)\s*Code generated .*DO NOT EDIT\.?`)

// generatedScanLimit bounds how much of a document is searched for the marker.
const generatedScanLimit = 4096

// Host runs the built-in rules. It implements fixall.DiagnosticsProvider and
// fixall.FixProvider and is safe for concurrent use once constructed.
type Host struct {
	rules    []*Rule
	disabled diag.CodeSet
	severity map[diag.Code]diag.Severity
}

var (
	_ fixall.DiagnosticsProvider = (*Host)(nil)
	_ fixall.FixProvider         = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithDisabled turns the given rules off.
func WithDisabled(codes diag.CodeSet) Option {
	return func(h *Host) {
		for c := range codes {
			h.disabled[c] = struct{}{}
		}
	}
}

// WithSeverity overrides the default severity of a rule.
func WithSeverity(code diag.Code, sev diag.Severity) Option {
	return func(h *Host) { h.severity[code] = sev }
}

// NewHost creates a host with every built-in rule enabled.
func NewHost(opts ...Option) *Host {
	h := &Host{
		rules:    Rules(),
		disabled: diag.NewCodeSet(),
		severity: make(map[diag.Code]diag.Severity),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether code is a built-in rule that is not disabled.
func (h *Host) Enabled(code diag.Code) bool {
	if h.disabled.Has(code) {
		return false
	}
	_, ok := RuleByCode(code)
	return ok
}

// EnabledCodes returns the enabled rule codes.
func (h *Host) EnabledCodes() diag.CodeSet {
	set := diag.NewCodeSet()
	for _, r := range h.rules {
		if h.Enabled(r.Code) {
			set[r.Code] = struct{}{}
		}
	}
	return set
}

// Severities returns the effective severity of every built-in rule.
func (h *Host) Severities() map[diag.Code]diag.Severity {
	out := make(map[diag.Code]diag.Severity, len(h.rules))
	for _, r := range h.rules {
		out[r.Code] = h.severityOf(r)
	}
	return out
}

func (h *Host) severityOf(r *Rule) diag.Severity {
	if sev, ok := h.severity[r.Code]; ok {
		return sev
	}
	return r.Severity
}

// IsGenerated reports whether doc is flagged as generated or carries the
// generated-code marker near its top.
func (h *Host) IsGenerated(doc *source.Document) bool {
	if doc == nil {
		return false
	}
	if doc.IsGenerated() {
		return true
	}
	head := doc.Text
	if len(head) > generatedScanLimit {
		head = head[:generatedScanLimit]
	}
	return generatedMarker.Match(head)
}

// DocumentDiagnostics runs the document rules over doc.
func (h *Host) DocumentDiagnostics(ctx context.Context, doc *source.Document) ([]*diag.Diagnostic, error) {
	bag := diag.NewBag(0)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	for _, r := range h.rules {
		if r.checkDocument == nil || !h.Enabled(r.Code) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.checkDocument(&docCheck{doc: doc, reporter: reporter, sev: h.severityOf(r)})
	}
	bag.Sort()
	return bag.Items(), nil
}

// ProjectDiagnostics runs the project rules over project.
func (h *Host) ProjectDiagnostics(ctx context.Context, sol *source.Solution, project *source.Project) ([]*diag.Diagnostic, error) {
	bag := diag.NewBag(0)
	reporter := diag.BagReporter{Bag: bag}
	for _, r := range h.rules {
		if r.checkProject == nil || !h.Enabled(r.Code) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.checkProject(&projectCheck{
			sol:       sol,
			project:   project,
			reporter:  reporter,
			sev:       h.severityOf(r),
			generated: h.IsGenerated,
		})
	}
	bag.Sort()
	return bag.Items(), nil
}

// Fixes registers the actions of every rule matching the diagnostics in fc.
func (h *Host) Fixes(ctx context.Context, fc fixall.FixContext) ([]fixall.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var actions []fixall.Action
	for _, d := range fc.Diagnostics {
		r, ok := RuleByCode(d.Code)
		if !ok || r.fixes == nil {
			continue
		}
		actions = append(actions, r.fixes(h, fc, d)...)
	}
	return actions, nil
}

// Fingerprint identifies the rule configuration. Cached diagnostics are only
// valid for the same fingerprint.
func (h *Host) Fingerprint() string {
	var sb strings.Builder
	for _, r := range h.rules {
		if !h.Enabled(r.Code) {
			continue
		}
		fmt.Fprintf(&sb, "%s=%s;", r.Code.ID(), h.severityOf(r))
	}
	return sb.String()
}
