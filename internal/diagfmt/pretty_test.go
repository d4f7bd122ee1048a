package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
)

const sampleText = "int x = 1;  \nint y = 2;\n"

func sampleSolution(t *testing.T) (*source.Solution, source.ProjectID, source.DocumentID) {
	t.Helper()
	b := source.NewBuilder("/home/user/project")
	p := b.AddProject("app", "c")
	d := b.AddVirtual(p, "/home/user/project/src/main.c", []byte(sampleText))
	return b.Build(), p, d
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	sol, p, d := sampleSolution(t)

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.TxtTrailingWhitespace, p,
		source.Span{Doc: d, Start: 10, End: 12}, "Trailing whitespace"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{
			name:     "Absolute path",
			mode:     PathModeAbsolute,
			contains: "/home/user/project/src/main.c:1:11",
		},
		{
			name:     "Relative path",
			mode:     PathModeRelative,
			contains: "src/main.c:1:11",
		},
		{
			name:     "Basename only",
			mode:     PathModeBasename,
			contains: "main.c:1:11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := PrettyOpts{
				Color:    false,
				Context:  1,
				PathMode: tt.mode,
			}

			Pretty(&buf, bag, sol, opts)
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "WARNING FA1001: Trailing whitespace") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	sol, p, d := sampleSolution(t)
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.TxtTrailingWhitespace, p,
		source.Span{Doc: d, Start: 10, End: 12}, "Trailing whitespace").
		WithNote(source.Span{Doc: d, Start: 0, End: 3}, "declared here"))

	var buf bytes.Buffer
	Pretty(&buf, bag, sol, PrettyOpts{Context: 0, PathMode: PathModeBasename, ShowNotes: true})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	want := []string{
		"main.c:1:11: WARNING FA1001: Trailing whitespace",
		" 1 | int x = 1;  ",
		"   |           ^^",
		"  note: declared here (main.c:1:1)",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPrettyProjectLevel(t *testing.T) {
	sol, p, _ := sampleSolution(t)
	bag := diag.NewBag(10)
	bag.Add(diag.NewProjectLevel(diag.SevInfo, diag.PrjMissingHeader, p, "2 documents miss the header"))

	var buf bytes.Buffer
	Pretty(&buf, bag, sol, PrettyOpts{})
	if got := buf.String(); got != "<app>: INFO FA2001: 2 documents miss the header\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrettyResult(t *testing.T) {
	res := runTrailingWhitespace(t)

	var buf bytes.Buffer
	PrettyResult(&buf, res, PrettyOpts{PathMode: PathModeBasename, ShowPreview: true})
	out := buf.String()
	for _, want := range []string{
		"Fix all 'FA1001' in 'main.c': 1 fixes, 1 changes in 1 documents",
		"  main.c (1)",
		"    - int x = 1;  ",
		"    + int x = 1;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestPrettyResultConflict(t *testing.T) {
	sol, _, d := sampleSolution(t)
	res := &fixall.Result{
		Status:   fixall.StatusConflict,
		Title:    "Fix all 'FA1001, FA1002' in 'main.c'",
		Baseline: sol,
		Conflict: &fixall.Conflict{
			Document: d,
			Existing: source.TextChange{Span: source.Span{Doc: d, Start: 4, End: 5}, NewText: "a"},
			Incoming: source.TextChange{Span: source.Span{Doc: d, Start: 4, End: 5}, NewText: "z"},
		},
	}

	var buf bytes.Buffer
	PrettyResult(&buf, res, PrettyOpts{PathMode: PathModeBasename})
	out := buf.String()
	if !strings.Contains(out, "conflict") || !strings.Contains(out, `[4,5)->"a"`) || !strings.Contains(out, `[4,5)->"z"`) {
		t.Errorf("unexpected conflict output:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 0); got != "abcdef" {
		t.Errorf("width 0 must not truncate, got %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := displayWidth("\tx"); got != 5 {
		t.Errorf("displayWidth = %d", got)
	}
}
