package diag

import (
	"sync"

	"fixall/internal/source"
)

// Reporter: минимальный контракт получения диагностик от правил.
// Реализации: BagReporter (кладёт в Bag), DedupReporter, SyncReporter.
type Reporter interface {
	Report(d *Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     *Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, project source.ProjectID, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, project, primary, msg),
	}
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, project source.ProjectID, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, project, primary, msg)
}

// ReportInfo is a shortcut for SevInfo diagnostics.
func ReportInfo(r Reporter, code Code, project source.ProjectID, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, project, primary, msg)
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.WithNote(sp, msg)
	return b
}

// WithProperty attaches rule data for fix providers.
func (b *ReportBuilder) WithProperty(key, value string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.WithProperty(key, value)
	return b
}

// WithSeverity overrides the severity, e.g. from fixall.toml.
func (b *ReportBuilder) WithSeverity(sev Severity) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Severity = sev
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() *Diagnostic {
	if b == nil {
		return nil
	}
	return b.diag
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d *Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// SyncReporter serialises Report calls to the wrapped reporter.
type SyncReporter struct {
	mu   sync.Mutex
	next Reporter
}

func NewSyncReporter(next Reporter) *SyncReporter {
	return &SyncReporter{next: next}
}

func (r *SyncReporter) Report(d *Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next != nil {
		r.next.Report(d)
	}
}
