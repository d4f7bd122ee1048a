package diag

import (
	"testing"

	"fixall/internal/source"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{"FA1001", TxtTrailingWhitespace, false},
		{"fa2001", PrjMissingHeader, false},
		{" 1004 ", TxtMissingFinalNewline, false},
		{"FA9999", UnknownCode, true},
		{"nope", UnknownCode, true},
	}
	for _, tt := range tests {
		got, err := ParseCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseCode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCodeSetString(t *testing.T) {
	set, err := ParseCodes([]string{"FA1002", "FA1001", "FA1002"})
	if err != nil {
		t.Fatalf("ParseCodes: %v", err)
	}
	if got := set.String(); got != "FA1001, FA1002" {
		t.Errorf("String() = %q", got)
	}
	if !set.Has(TxtTabIndentation) || set.Has(TxtNotNormalized) {
		t.Errorf("Has mismatch for %v", set.Codes())
	}
	if !PrjMissingHeader.IsProjectLevel() || TxtTrailingWhitespace.IsProjectLevel() {
		t.Error("IsProjectLevel mismatch")
	}
}

func TestBagSortDedupFilter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})

	ReportWarning(r, TxtTabIndentation, 1, source.Span{Doc: 2, Start: 0, End: 1}, "tab").Emit()
	ReportWarning(r, TxtTrailingWhitespace, 1, source.Span{Doc: 1, Start: 5, End: 7}, "ws").Emit()
	ReportWarning(r, TxtTrailingWhitespace, 1, source.Span{Doc: 1, Start: 5, End: 7}, "ws").Emit()
	bag.Add(NewProjectLevel(SevInfo, PrjMissingHeader, 1, "header"))
	ReportInfo(r, TxtTrailingWhitespace, 1, source.Span{Doc: 1, Start: 1, End: 2}, "ws").
		WithProperty("k", "v").
		Emit()

	if bag.Len() != 4 {
		t.Fatalf("expected 4 diagnostics after dedup reporter, got %d", bag.Len())
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Primary.Start != 1 || items[0].Property("k") != "v" {
		t.Errorf("first = %+v", items[0])
	}
	if items[2].Primary.Doc != 2 {
		t.Errorf("third must be in doc 2, got %+v", items[2])
	}
	if !items[3].IsProjectLevel() {
		t.Errorf("project-level diagnostics must sort last")
	}

	ws := bag.Filter(NewCodeSet(TxtTrailingWhitespace))
	if ws.Len() != 2 {
		t.Errorf("Filter len = %d, want 2", ws.Len())
	}

	bag.Merge(ws)
	bag.Dedup()
	if bag.Len() != 4 {
		t.Errorf("Dedup len = %d, want 4", bag.Len())
	}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(NewProjectLevel(SevInfo, PrjMissingHeader, 1, "a")) {
		t.Fatal("first Add must succeed")
	}
	if bag.Add(NewProjectLevel(SevInfo, PrjMissingHeader, 1, "b")) {
		t.Fatal("second Add must hit the limit")
	}
	if bag.HasWarnings() || bag.HasErrors() {
		t.Error("info diagnostics are neither warnings nor errors")
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	b := source.NewBuilder("/workspace")
	p := b.AddProject("app", "go")
	doc := b.AddDocument(p, "/workspace/src/a.go", []byte("a\nb  \n"), 0)
	sol := b.Build()

	diags := []*Diagnostic{
		New(SevWarning, TxtTrailingWhitespace, p, source.Span{Doc: doc, Start: 3, End: 5}, "trailing\nwhitespace"),
		NewProjectLevel(SevInfo, PrjMissingHeader, p, "2 documents lack the header"),
	}

	expected := "info FA2001 <app>: 2 documents lack the header\n" +
		"warning FA1001 src/a.go:2:2 trailing whitespace"
	if got := FormatShortDiagnostics(diags, sol, false); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestSeverityText(t *testing.T) {
	var s Severity
	if err := s.UnmarshalText([]byte("Warning")); err != nil || s != SevWarning {
		t.Fatalf("UnmarshalText = %v, %v", s, err)
	}
	b, _ := SevError.MarshalText()
	if string(b) != "error" {
		t.Errorf("MarshalText = %q", b)
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("expected error for unknown severity")
	}
}
