package fixall

import (
	"context"
	"fmt"

	"fixall/internal/diag"
	"fixall/internal/source"
)

// DiagnosticsProvider computes diagnostics for documents and projects.
// Implementations must be safe for concurrent use.
type DiagnosticsProvider interface {
	DocumentDiagnostics(ctx context.Context, doc *source.Document) ([]*diag.Diagnostic, error)
	ProjectDiagnostics(ctx context.Context, sol *source.Solution, project *source.Project) ([]*diag.Diagnostic, error)
	IsGenerated(doc *source.Document) bool
}

// FixContext is handed to a FixProvider for exactly one diagnostic.
type FixContext struct {
	Solution *source.Solution
	Project  *source.Project
	// Document is nil for project-level diagnostics.
	Document    *source.Document
	Span        source.Span
	Diagnostics []*diag.Diagnostic
}

// FixProvider registers code actions for a diagnostic.
// Implementations must be safe for concurrent use.
type FixProvider interface {
	Fixes(ctx context.Context, fc FixContext) ([]Action, error)
}

// Action is one registered code action. Apply must not mutate sol.
type Action interface {
	EquivalenceKey() string
	Title() string
	Apply(ctx context.Context, sol *source.Solution) (*source.Solution, error)
}

// GroupAction bundles alternative actions under one menu entry.
type GroupAction interface {
	Action
	Nested() []Action
}

// ApplyFunc computes the solution produced by an action.
type ApplyFunc func(ctx context.Context, sol *source.Solution) (*source.Solution, error)

type funcAction struct {
	title string
	key   string
	apply ApplyFunc
}

// NewAction wraps fn as an Action.
func NewAction(title, key string, fn ApplyFunc) Action {
	return &funcAction{title: title, key: key, apply: fn}
}

func (a *funcAction) Title() string          { return a.title }
func (a *funcAction) EquivalenceKey() string { return a.key }

func (a *funcAction) Apply(ctx context.Context, sol *source.Solution) (*source.Solution, error) {
	return a.apply(ctx, sol)
}

type groupAction struct {
	title  string
	nested []Action
}

// NewGroup builds a GroupAction with no equivalence key of its own.
func NewGroup(title string, nested ...Action) GroupAction {
	return &groupAction{title: title, nested: nested}
}

func (g *groupAction) Title() string          { return g.title }
func (g *groupAction) EquivalenceKey() string { return "" }
func (g *groupAction) Nested() []Action       { return g.nested }

func (g *groupAction) Apply(context.Context, *source.Solution) (*source.Solution, error) {
	return nil, fmt.Errorf("group %q cannot be applied directly", g.title)
}

// flatten expands nested groups depth-first, keeping registration order.
func flatten(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	var walk func([]Action)
	walk = func(list []Action) {
		for _, a := range list {
			if a == nil {
				continue
			}
			if g, ok := a.(GroupAction); ok {
				walk(g.Nested())
				continue
			}
			out = append(out, a)
		}
	}
	walk(actions)
	return out
}

// TextEditAction returns an Action that replaces the text of one document
// with the result of edit applied to the current text. Its changes are
// recovered by diffing, so prefer ChangesAction when the edits are known.
func TextEditAction(title, key string, doc source.DocumentID, edit func(text []byte) []byte) Action {
	return NewAction(title, key, func(ctx context.Context, sol *source.Solution) (*source.Solution, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := sol.Document(doc)
		if d == nil {
			return nil, fmt.Errorf("document %d not in solution", doc)
		}
		return sol.WithDocumentText(doc, edit(d.Text))
	})
}

// ChangesAction returns an Action that applies text changes to one document.
// The changes are recorded on the new document and reach the merge unchanged.
func ChangesAction(title, key string, doc source.DocumentID, changes ...source.TextChange) Action {
	return NewAction(title, key, func(ctx context.Context, sol *source.Solution) (*source.Solution, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sol.Document(doc) == nil {
			return nil, fmt.Errorf("document %d not in solution", doc)
		}
		return sol.WithDocumentChanges(doc, changes)
	})
}
