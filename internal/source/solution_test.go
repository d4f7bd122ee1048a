package source

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestSolution(t *testing.T) (*Solution, ProjectID, []DocumentID) {
	t.Helper()
	b := NewBuilder("/ws")
	p := b.AddProject("app", "go")
	ids := []DocumentID{
		b.AddVirtual(p, "a.go", []byte("a\nb\n")),
		b.AddVirtual(p, "b.go", []byte("hello")),
	}
	return b.Build(), p, ids
}

// TestAddVirtualLineIdx проверяет построение LineIdx для виртуальных документов
func TestAddVirtualLineIdx(t *testing.T) {
	sol, _, ids := newTestSolution(t)
	doc := sol.Document(ids[0])

	expected := []uint32{1, 3} // позиции символов \n
	if len(doc.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(doc.LineIdx))
	}
	for i, val := range expected {
		if doc.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, doc.LineIdx[i])
		}
	}
	if doc.Flags&DocumentVirtual == 0 {
		t.Error("Expected DocumentVirtual flag to be set")
	}
	if doc.Name != "a.go" {
		t.Errorf("Expected name a.go, got %q", doc.Name)
	}
	if got := doc.Line(2); got != "b" {
		t.Errorf("Line(2) = %q, want %q", got, "b")
	}
	if got := doc.Line(3); got != "" {
		t.Errorf("Line(3) = %q, want empty", got)
	}
}

func TestSolutionLookups(t *testing.T) {
	sol, p, ids := newTestSolution(t)

	if sol.Document(NoDocumentID) != nil {
		t.Error("NoDocumentID must resolve to nil")
	}
	if sol.Project(p).Name != "app" {
		t.Errorf("unexpected project %+v", sol.Project(p))
	}
	if got := len(sol.Projects()); got != 1 {
		t.Errorf("Projects() len = %d, want 1", got)
	}
	docs := sol.ProjectDocuments(p)
	if len(docs) != 2 || docs[0].ID != ids[0] || docs[1].ID != ids[1] {
		t.Fatalf("ProjectDocuments order mismatch: %+v", docs)
	}
	if d, ok := sol.DocumentByPath("./b.go"); !ok || d.ID != ids[1] {
		t.Errorf("DocumentByPath(./b.go) = %v, %v", d, ok)
	}
	if _, ok := sol.ProjectByName("missing"); ok {
		t.Error("ProjectByName must miss unknown names")
	}
}

func TestResolveUTF8(t *testing.T) {
	b := NewBuilder("")
	p := b.AddProject("p", "text")
	id := b.AddVirtual(p, "u.txt", []byte("привет\nмир"))
	sol := b.Build()

	// "мир" начинается после "привет\n" (12 байт + 1)
	start, end := sol.Resolve(Span{Doc: id, Start: 13, End: 15})
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("start = %+v, want 2:1", start)
	}
	if end.Line != 2 || end.Col != 3 {
		t.Errorf("end = %+v, want 2:3", end)
	}
	// сам перевод строки принадлежит первой строке
	nl, _ := sol.Resolve(Span{Doc: id, Start: 12, End: 12})
	if nl.Line != 1 {
		t.Errorf("newline line = %d, want 1", nl.Line)
	}
}

func TestWithDocumentTextIsImmutable(t *testing.T) {
	sol, _, ids := newTestSolution(t)

	next, err := sol.WithDocumentText(ids[1], []byte("hello\n"))
	if err != nil {
		t.Fatalf("WithDocumentText: %v", err)
	}
	if string(sol.Document(ids[1]).Text) != "hello" {
		t.Error("baseline document must not change")
	}
	nd := next.Document(ids[1])
	if string(nd.Text) != "hello\n" || nd.Version != 1 {
		t.Errorf("unexpected derived document %q v%d", nd.Text, nd.Version)
	}
	if len(nd.LineIdx) != 1 {
		t.Errorf("derived LineIdx not rebuilt: %v", nd.LineIdx)
	}
	if next.Document(ids[0]) != sol.Document(ids[0]) {
		t.Error("untouched documents must be shared")
	}
	if next.Version() != sol.Version()+1 {
		t.Errorf("solution version = %d", next.Version())
	}

	changed := sol.ChangedDocuments(next)
	if len(changed) != 1 || changed[0] != ids[1] {
		t.Errorf("ChangedDocuments = %v", changed)
	}

	same, err := sol.WithDocumentText(ids[0], []byte("a\nb\n"))
	if err != nil {
		t.Fatalf("WithDocumentText: %v", err)
	}
	if same.Document(ids[0]) != sol.Document(ids[0]) {
		t.Error("identical text must keep document identity")
	}
	if _, err := sol.WithDocumentText(99, nil); err == nil {
		t.Error("expected error for unknown document")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.txt")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x\r\ny\r\n")...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	b := NewBuilder(dir)
	p := b.AddProject("p", "text")
	id, err := b.Load(p, path, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc := b.Build().Document(id)
	if string(doc.Text) != "x\ny\n" {
		t.Errorf("Text = %q, want normalized", doc.Text)
	}
	if doc.Flags&DocumentHadBOM == 0 || doc.Flags&DocumentNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF", doc.Flags)
	}
	if got := string(RestoreCRLF(doc.Text)); got != "x\r\ny\r\n" {
		t.Errorf("RestoreCRLF = %q", got)
	}

	if _, err := NewBuilder(dir).Load(p, filepath.Join(dir, "missing"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNormalizeCRLFKeepsLoneCR(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\rb\r\n"))
	if !changed || string(out) != "a\rb\n" {
		t.Errorf("normalizeCRLF = %q, %v", out, changed)
	}
	if _, changed := normalizeCRLF([]byte("plain")); changed {
		t.Error("no CR means no change")
	}
}
