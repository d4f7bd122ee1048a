package fixall

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fixall/internal/diag"
	"fixall/internal/source"
)

// ErrStaleSolution is returned when an aggregate action is applied to a
// solution other than the one it was computed from.
var ErrStaleSolution = errors.New("solution changed since fix-all was computed")

// Status is the outcome of a fix-all run.
type Status uint8

const (
	StatusNothingToFix Status = iota
	StatusFixed
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusNothingToFix:
		return "nothing-to-fix"
	case StatusFixed:
		return "fixed"
	case StatusConflict:
		return "conflict"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the aggregate outcome of one Engine.Run.
type Result struct {
	OperationID     uuid.UUID
	Status          Status
	Title           string
	Scope           ScopeKind
	Rules           diag.CodeSet
	EquivalenceKey  string
	Baseline        *source.Solution
	Solution        *source.Solution // nil unless Status == StatusFixed
	Changed         []DocumentChanges
	Fixes           []*CandidateFix
	DiagnosticCount int
	Conflict        *Conflict
}

// FixCount returns the number of candidate fixes that took part in the merge.
func (r *Result) FixCount() int {
	return len(r.Fixes)
}

// ChangeCount returns the number of merged text changes.
func (r *Result) ChangeCount() int {
	n := 0
	for _, d := range r.Changed {
		n += len(d.Changes)
	}
	return n
}

// Action returns the aggregate action, or nil when nothing was fixed or the
// merge conflicted.
func (r *Result) Action() *AggregateAction {
	if r == nil || r.Status != StatusFixed || r.Solution == nil {
		return nil
	}
	return &AggregateAction{
		title:    r.Title,
		key:      r.EquivalenceKey,
		baseline: r.Baseline,
		solution: r.Solution,
	}
}

// AggregateAction is the single action offered for a whole fix-all run.
type AggregateAction struct {
	title    string
	key      string
	baseline *source.Solution
	solution *source.Solution
}

func (a *AggregateAction) Title() string          { return a.title }
func (a *AggregateAction) EquivalenceKey() string { return a.key }

// Solution returns the merged solution.
func (a *AggregateAction) Solution() *source.Solution { return a.solution }

// Apply returns the merged solution. sol must be the baseline the run started from.
func (a *AggregateAction) Apply(ctx context.Context, sol *source.Solution) (*source.Solution, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if sol != a.baseline {
		return nil, ErrStaleSolution
	}
	return a.solution, nil
}

// Title builds the user-visible title of a fix-all operation.
func Title(sol *source.Solution, scope Scope, rules diag.CodeSet) string {
	ids := rules.String()
	switch sc := scope.(type) {
	case DocumentScope:
		if d := sol.Document(sc.Document); d != nil {
			return fmt.Sprintf("Fix all '%s' in '%s'", ids, d.Name)
		}
	case ProjectScope:
		if p := sol.Project(sc.Project); p != nil {
			return fmt.Sprintf("Fix all '%s' in '%s'", ids, p.Name)
		}
	case SolutionScope:
		return fmt.Sprintf("Fix all '%s' in Solution", ids)
	}
	return fmt.Sprintf("Fix all '%s'", ids)
}

// BuildResult assembles the Result of a run from its stage outputs.
func BuildResult(id uuid.UUID, req Request, baseline *source.Solution, batch Batch, fixes []*CandidateFix, outcome MergeOutcome) *Result {
	res := &Result{
		OperationID:     id,
		Title:           Title(baseline, req.Scope, req.Rules),
		Scope:           req.Scope.Kind(),
		Rules:           req.Rules,
		EquivalenceKey:  req.EquivalenceKey,
		Baseline:        baseline,
		Fixes:           fixes,
		DiagnosticCount: batch.DiagnosticCount(),
	}
	switch {
	case outcome.Conflict != nil:
		res.Status = StatusConflict
		res.Conflict = outcome.Conflict
	case outcome.Solution != nil && len(outcome.Changed) > 0:
		res.Status = StatusFixed
		res.Solution = outcome.Solution
		res.Changed = outcome.Changed
	default:
		res.Status = StatusNothingToFix
	}
	return res
}
