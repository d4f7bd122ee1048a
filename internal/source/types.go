package source

type (
	// DocumentID uniquely identifies a document within a Solution and all of its derived versions.
	DocumentID uint32
	// ProjectID uniquely identifies a project within a Solution.
	ProjectID uint32
	// DocumentFlags encodes metadata about a document.
	DocumentFlags uint8 // метаданные
)

const (
	// NoDocumentID marks locations that are not attached to a document (project-level diagnostics).
	NoDocumentID DocumentID = 0
	// NoProjectID marks a missing project reference.
	NoProjectID ProjectID = 0
)

const (
	// DocumentVirtual indicates the document was added from memory (test, stdin, etc.).
	DocumentVirtual DocumentFlags = 1 << iota // добавлен не с диска
	// DocumentGenerated marks documents produced by tooling; fix-all never touches them.
	DocumentGenerated
	DocumentHadBOM
	DocumentNormalizedCRLF
)

// Document is an immutable snapshot of one source document.
// Text must never be modified in place: new versions are created through Solution.WithDocumentText.
type Document struct {
	ID      DocumentID
	Project ProjectID
	Name    string // короткое имя для заголовков и вывода
	Path    string
	Text    []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   DocumentFlags
	Version uint32 // растёт при каждом WithDocumentText

	// parent и edits заполняются WithDocumentChanges: edits переводят
	// parent.Text в Text и выражены относительно parent.
	parent *Document
	edits  []TextChange
}

// EditsFrom returns the changes recorded when d was derived from base with
// WithDocumentChanges. ok is false when d is not a direct edit of base.
func (d *Document) EditsFrom(base *Document) (changes []TextChange, ok bool) {
	if d == nil || base == nil || d.parent != base {
		return nil, false
	}
	return append([]TextChange(nil), d.edits...), true
}

// IsGenerated reports whether the document carries the DocumentGenerated flag.
func (d *Document) IsGenerated() bool {
	return d != nil && d.Flags&DocumentGenerated != 0
}

// Project groups documents that share a language.
type Project struct {
	ID        ProjectID
	Name      string
	Language  string
	Dir       string
	Documents []DocumentID
	Options   map[string]string // произвольные настройки из манифеста (header и т.п.)
}

// Option returns a project option or an empty string.
func (p *Project) Option(key string) string {
	if p == nil || p.Options == nil {
		return ""
	}
	return p.Options[key]
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
