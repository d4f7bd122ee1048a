package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
)

// Solution is an immutable snapshot of a multi-project workspace.
//
// Every mutation (WithDocumentText, WithDocumentTexts) returns a new Solution
// that shares unchanged documents and projects with its parent, so a baseline
// can be handed to many goroutines by reference.
type Solution struct {
	projects []*Project  // index = ProjectID; [0] == nil
	docs     []*Document // index = DocumentID; [0] == nil
	byPath   map[string]DocumentID
	baseDir  string
	version  uint64
}

// Builder assembles the initial Solution. It is not safe for concurrent use.
type Builder struct {
	sol *Solution
}

// NewBuilder creates a builder for a solution rooted at baseDir.
func NewBuilder(baseDir string) *Builder {
	return &Builder{sol: &Solution{
		projects: []*Project{nil},
		docs:     []*Document{nil},
		byPath:   make(map[string]DocumentID),
		baseDir:  baseDir,
	}}
}

// AddProject registers a project and returns its id.
func (b *Builder) AddProject(name, language string) ProjectID {
	return b.AddProjectWithOptions(name, language, "", nil)
}

// AddProjectWithOptions registers a project with a directory and options.
func (b *Builder) AddProjectWithOptions(name, language, dir string, options map[string]string) ProjectID {
	n, err := safecast.Conv[uint32](len(b.sol.projects))
	if err != nil {
		panic(fmt.Errorf("project count overflow: %w", err))
	}
	id := ProjectID(n)
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[k] = v
	}
	b.sol.projects = append(b.sol.projects, &Project{
		ID:       id,
		Name:     name,
		Language: language,
		Dir:      dir,
		Options:  opts,
	})
	return id
}

// AddDocument stores a document from already normalized bytes and returns its id.
func (b *Builder) AddDocument(project ProjectID, path string, text []byte, flags DocumentFlags) DocumentID {
	if int(project) <= 0 || int(project) >= len(b.sol.projects) {
		panic(fmt.Errorf("source: unknown project %d", project))
	}
	n, err := safecast.Conv[uint32](len(b.sol.docs))
	if err != nil {
		panic(fmt.Errorf("document count overflow: %w", err))
	}
	id := DocumentID(n)
	normalized := normalizePath(path)
	b.sol.docs = append(b.sol.docs, newDocument(id, project, normalized, text, flags, 0))
	b.sol.byPath[normalized] = id
	p := b.sol.projects[project]
	p.Documents = append(p.Documents, id)
	return id
}

// AddVirtual adds an in-memory document with the DocumentVirtual flag.
func (b *Builder) AddVirtual(project ProjectID, name string, text []byte) DocumentID {
	return b.AddDocument(project, name, text, DocumentVirtual)
}

// Load reads a document from disk, normalizes CRLF/BOM, and calls AddDocument.
func (b *Builder) Load(project ProjectID, path string, extra DocumentFlags) (DocumentID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return NoDocumentID, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := extra
	if hadBOM {
		flags |= DocumentHadBOM
	}
	if hadCRLF {
		flags |= DocumentNormalizedCRLF
	}
	return b.AddDocument(project, path, content, flags), nil
}

// Build finalizes the solution. The builder must not be used afterwards.
func (b *Builder) Build() *Solution {
	sol := b.sol
	b.sol = nil
	return sol
}

func newDocument(id DocumentID, project ProjectID, path string, text []byte, flags DocumentFlags, version uint32) *Document {
	return &Document{
		ID:      id,
		Project: project,
		Name:    filepath.Base(path),
		Path:    path,
		Text:    text,
		LineIdx: buildLineIndex(text),
		Hash:    sha256.Sum256(text),
		Flags:   flags,
		Version: version,
	}
}

// BaseDir returns the solution root used for relative paths.
func (s *Solution) BaseDir() string {
	if s.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return s.baseDir
}

// Version counts how many derivations separate this snapshot from the built one.
func (s *Solution) Version() uint64 {
	return s.version
}

// Document returns the document with the given id or nil.
func (s *Solution) Document(id DocumentID) *Document {
	if s == nil || id == NoDocumentID || int(id) >= len(s.docs) {
		return nil
	}
	return s.docs[id]
}

// DocumentByPath looks a document up by its normalized path.
func (s *Solution) DocumentByPath(path string) (*Document, bool) {
	id, ok := s.byPath[normalizePath(path)]
	if !ok {
		return nil, false
	}
	return s.docs[id], true
}

// Project returns the project with the given id or nil.
func (s *Solution) Project(id ProjectID) *Project {
	if s == nil || id == NoProjectID || int(id) >= len(s.projects) {
		return nil
	}
	return s.projects[id]
}

// ProjectByName returns the first project with the given name.
func (s *Solution) ProjectByName(name string) (*Project, bool) {
	for _, p := range s.Projects() {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Projects returns all projects in id order.
// ВАЖНО: не модифицируйте возвращаемые проекты.
func (s *Solution) Projects() []*Project {
	if s == nil || len(s.projects) <= 1 {
		return nil
	}
	return s.projects[1:]
}

// Documents returns all documents in id order.
func (s *Solution) Documents() []*Document {
	if s == nil || len(s.docs) <= 1 {
		return nil
	}
	return s.docs[1:]
}

// ProjectDocuments returns documents of the project in registration order.
func (s *Solution) ProjectDocuments(id ProjectID) []*Document {
	p := s.Project(id)
	if p == nil {
		return nil
	}
	out := make([]*Document, 0, len(p.Documents))
	for _, docID := range p.Documents {
		out = append(out, s.docs[docID])
	}
	return out
}

// Resolve converts a span into line and column positions.
func (s *Solution) Resolve(span Span) (start, end LineCol) {
	d := s.Document(span.Doc)
	if d == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(d.LineIdx, span.Start), toLineCol(d.LineIdx, span.End)
}

// WithDocumentText returns a new solution in which document id has the given text.
func (s *Solution) WithDocumentText(id DocumentID, text []byte) (*Solution, error) {
	return s.WithDocumentTexts(map[DocumentID][]byte{id: text})
}

// WithDocumentTexts replaces the text of several documents at once.
// Documents whose text is unchanged keep their identity and version.
// The new documents carry no recorded changes; GetTextChanges diffs them.
func (s *Solution) WithDocumentTexts(texts map[DocumentID][]byte) (*Solution, error) {
	ids, err := sortedKeys(s, texts)
	if err != nil {
		return nil, err
	}
	next := s.derive()
	for _, id := range ids {
		old := s.docs[id]
		text := texts[id]
		if string(old.Text) == string(text) {
			continue
		}
		owned := append([]byte(nil), text...)
		next.docs[id] = newDocument(id, old.Project, old.Path, owned, old.Flags, old.Version+1)
	}
	return next, nil
}

// WithDocumentChanges returns a new solution in which changes are applied to
// document id.
func (s *Solution) WithDocumentChanges(id DocumentID, changes []TextChange) (*Solution, error) {
	return s.WithDocumentEdits(map[DocumentID][]TextChange{id: changes})
}

// WithDocumentEdits applies a change set to each listed document. Change sets
// are sorted by SortChanges and must pass ValidateChanges. The new documents
// remember the applied changes (minus no-op replacements) so that
// GetTextChanges reports exactly these changes instead of a diff.
func (s *Solution) WithDocumentEdits(edits map[DocumentID][]TextChange) (*Solution, error) {
	ids, err := sortedKeys(s, edits)
	if err != nil {
		return nil, err
	}
	next := s.derive()
	for _, id := range ids {
		old := s.docs[id]
		changes := make([]TextChange, 0, len(edits[id]))
		for _, ch := range edits[id] {
			ch.Span.Doc = id
			changes = append(changes, ch)
		}
		SortChanges(changes)
		text, err := ApplyChanges(old.Text, changes)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", old.Path, err)
		}
		if string(old.Text) == string(text) {
			continue
		}
		doc := newDocument(id, old.Project, old.Path, text, old.Flags, old.Version+1)
		doc.parent = old
		doc.edits = changes[:0]
		for _, ch := range changes {
			// замена текста на тот же самый ничего не меняет
			if string(old.Text[ch.Span.Start:ch.Span.End]) != ch.NewText {
				doc.edits = append(doc.edits, ch)
			}
		}
		next.docs[id] = doc
	}
	return next, nil
}

func (s *Solution) derive() *Solution {
	return &Solution{
		projects: s.projects,
		docs:     append([]*Document(nil), s.docs...),
		byPath:   s.byPath,
		baseDir:  s.baseDir,
		version:  s.version + 1,
	}
}

func sortedKeys[V any](s *Solution, m map[DocumentID]V) ([]DocumentID, error) {
	ids := make([]DocumentID, 0, len(m))
	for id := range m {
		if s.Document(id) == nil {
			return nil, fmt.Errorf("source: unknown document %d", id)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ChangedDocuments lists documents whose text differs between s and other.
// Both solutions must derive from the same built solution.
func (s *Solution) ChangedDocuments(other *Solution) []DocumentID {
	if s == nil || other == nil {
		return nil
	}
	n := min(len(s.docs), len(other.docs))
	out := make([]DocumentID, 0)
	for i := 1; i < n; i++ {
		a, b := s.docs[i], other.docs[i]
		if a == b {
			continue
		}
		if a.Hash != b.Hash {
			out = append(out, a.ID)
		}
	}
	return out
}
