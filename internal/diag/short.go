package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fixall/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation intended for CLI short output and test expectations.
// Project-level diagnostics use "<project>:" as location.
func FormatShortDiagnostics(diags []*Diagnostic, sol *source.Solution, includeNotes bool) string {
	if sol == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = appendDiagnostic(rendered, d, sol, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		if d.Line == 0 {
			fmt.Fprintf(&b, "%s %s %s: %s", d.Severity, d.Code, d.Path, d.Message)
		} else {
			fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		}
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []shortDiagnostic, d *Diagnostic, sol *source.Solution, includeNotes bool) []shortDiagnostic {
	out = append(out, shortDiagnostic{
		Severity: severityLabel(d.Severity),
		Code:     d.Code.ID(),
		Message:  sanitizeMessage(d.Message),
	})
	last := &out[len(out)-1]
	if d.IsProjectLevel() {
		if p := sol.Project(d.Project); p != nil {
			last.Path = "<" + p.Name + ">"
		}
	} else {
		last.Path, last.Line, last.Column = resolveSpan(sol, d.Primary)
	}

	if includeNotes {
		for _, note := range d.Notes {
			path, line, col := resolveSpan(sol, note.Span)
			out = append(out, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     path,
				Line:     line,
				Column:   col,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

func resolveSpan(sol *source.Solution, span source.Span) (path string, line, col uint32) {
	doc := sol.Document(span.Doc)
	if doc == nil {
		return "", 0, 0
	}
	start, _ := sol.Resolve(span)
	return normalizePath(doc.FormatPath("relative", sol.BaseDir())), start.Line, start.Col
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
