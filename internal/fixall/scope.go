package fixall

import (
	"fmt"
	"strings"

	"fixall/internal/diag"
	"fixall/internal/source"
)

// ScopeKind names the breadth of a fix-all operation.
type ScopeKind uint8

const (
	KindDocument ScopeKind = iota + 1
	KindProject
	KindSolution
	KindCustom
)

func (k ScopeKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindProject:
		return "project"
	case KindSolution:
		return "solution"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

func (k ScopeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseScopeKind accepts document, project or solution. Custom scopes are
// built from diagnostics, never parsed.
func ParseScopeKind(s string) (ScopeKind, error) {
	switch strings.ToLower(s) {
	case "document", "doc":
		return KindDocument, nil
	case "project":
		return KindProject, nil
	case "solution":
		return KindSolution, nil
	}
	return 0, fmt.Errorf("%w: unknown scope %q (expected: document|project|solution)", ErrInvalidRequest, s)
}

// Scope is a sealed variant: DocumentScope, ProjectScope, SolutionScope or CustomScope.
type Scope interface {
	Kind() ScopeKind
	sealed()
}

// DocumentScope fixes one document.
type DocumentScope struct {
	Document source.DocumentID
}

// ProjectScope fixes every non-generated document of a project plus its
// project-level diagnostics.
type ProjectScope struct {
	Project source.ProjectID
}

// SolutionScope fixes every project that shares the language of Project.
type SolutionScope struct {
	Project source.ProjectID
}

// CustomScope fixes exactly the supplied diagnostics.
type CustomScope struct {
	Diagnostics []*diag.Diagnostic
}

func (DocumentScope) Kind() ScopeKind { return KindDocument }
func (ProjectScope) Kind() ScopeKind  { return KindProject }
func (SolutionScope) Kind() ScopeKind { return KindSolution }
func (CustomScope) Kind() ScopeKind   { return KindCustom }

func (DocumentScope) sealed() {}
func (ProjectScope) sealed()  {}
func (SolutionScope) sealed() {}
func (CustomScope) sealed()   {}

// Request describes one fix-all operation.
type Request struct {
	Scope Scope
	// Rules is the set of rule codes to fix. For a CustomScope it may be left
	// empty and is then taken from the supplied diagnostics.
	Rules diag.CodeSet
	// EquivalenceKey selects the registered fix action; actions with any other
	// key are discarded.
	EquivalenceKey string
}

// normalize validates r against sol and returns a copy with defaults applied.
func (r Request) normalize(sol *source.Solution) (Request, error) {
	if sol == nil {
		return r, fmt.Errorf("%w: nil solution", ErrInvalidRequest)
	}
	if r.EquivalenceKey == "" {
		return r, fmt.Errorf("%w: empty equivalence key", ErrInvalidRequest)
	}
	switch sc := r.Scope.(type) {
	case nil:
		return r, fmt.Errorf("%w: nil scope", ErrInvalidRequest)
	case DocumentScope:
		if sol.Document(sc.Document) == nil {
			return r, fmt.Errorf("%w: unknown document %d", ErrInvalidRequest, sc.Document)
		}
	case ProjectScope:
		if sol.Project(sc.Project) == nil {
			return r, fmt.Errorf("%w: unknown project %d", ErrInvalidRequest, sc.Project)
		}
	case SolutionScope:
		if sol.Project(sc.Project) == nil {
			return r, fmt.Errorf("%w: unknown project %d", ErrInvalidRequest, sc.Project)
		}
	case CustomScope:
		if len(r.Rules) == 0 {
			codes := make([]diag.Code, 0, len(sc.Diagnostics))
			for _, d := range sc.Diagnostics {
				codes = append(codes, d.Code)
			}
			r.Rules = diag.NewCodeSet(codes...)
		}
	}
	if len(r.Rules) == 0 {
		return r, fmt.Errorf("%w: no rules", ErrInvalidRequest)
	}
	return r, nil
}
