// Package diag defines the diagnostic model shared by analysis rules, the
// fix-all engine and the CLI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form
//     such as FA1001.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the source.Span pointing to the issue. Project-level
//     diagnostics leave it zero and set Project instead.
//   - Properties – rule data that a fix provider needs to rebuild the edit.
//
// Diagnostics are treated as read-only once emitted. Several goroutines of the
// fix-all engine may hold the same *Diagnostic.
//
// # Emitting diagnostics
//
// Rules use a diag.Reporter to decouple emission from storage, usually through
// ReportBuilder (ReportWarning/ReportInfo) chained with WithProperty before
// Emit. BagReporter aggregates diagnostics into a Bag, which supports sorting,
// deduplication and filtering by CodeSet.
//
// Package diag does not perform rendering beyond the short one-line form;
// pretty, json and yaml output live in internal/diagfmt.
package diag
