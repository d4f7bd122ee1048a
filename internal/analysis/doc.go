// Package analysis contains the built-in text and project rules together with
// the fixes they register.
//
// Host is the bridge to the fix-all engine: it implements
// fixall.DiagnosticsProvider by running every enabled rule over a document or
// project, and fixall.FixProvider by turning each diagnostic back into code
// actions. Every action carries an equivalence key (KeyTrimTrailingWhitespace,
// KeyIndentSpaces4 and so on) so that fix-all can select one fix per rule.
//
// Document edits are built with EditAction and its helpers. Edits may carry an
// expected text; an action whose guard no longer matches fails with
// ErrGuardMismatch instead of corrupting the document.
package analysis
