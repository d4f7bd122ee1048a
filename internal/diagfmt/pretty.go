package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	code, path      *color.Color
	caret, note     *color.Color
	added, removed  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		code:    color.New(color.Bold),
		path:    color.New(color.FgWhite, color.Bold),
		caret:   color.New(color.FgGreen, color.Bold),
		note:    color.New(color.FgBlue),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.caret, p.note, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty выводит диагностики в человекочитаемом виде:
//
//	path:line:col: SEVERITY CODE: message
//	   3 | int x = 1;
//	     |     ^^^
func Pretty(w io.Writer, bag *diag.Bag, sol *source.Solution, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyDiagnostic(w, d, sol, opts, pal)
	}
}

func prettyDiagnostic(w io.Writer, d *diag.Diagnostic, sol *source.Solution, opts PrettyOpts, pal palette) {
	sev := pal.severity(d.Severity).Sprint(d.Severity.String())
	code := pal.code.Sprint(d.Code.ID())
	msg := truncate(d.Message, opts.Width)

	doc := sol.Document(d.Primary.Doc)
	if d.IsProjectLevel() || doc == nil {
		where := projectLocation
		if p := sol.Project(d.Project); p != nil {
			where = "<" + p.Name + ">"
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", pal.path.Sprint(where), sev, code, msg)
	} else {
		start, end := sol.Resolve(d.Primary)
		path := formatDocPath(doc, sol, opts.PathMode)
		fmt.Fprintf(w, "%s: %s %s: %s\n", pal.path.Sprintf("%s:%d:%d", path, start.Line, start.Col), sev, code, msg)
		writeSnippet(w, doc, start, end, opts, pal)
	}

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		where := ""
		if nd := sol.Document(n.Span.Doc); nd != nil {
			pos, _ := sol.Resolve(n.Span)
			where = fmt.Sprintf(" (%s:%d:%d)", formatDocPath(nd, sol, opts.PathMode), pos.Line, pos.Col)
		}
		fmt.Fprintf(w, "  %s %s%s\n", pal.note.Sprint("note:"), n.Msg, where)
	}
}

// writeSnippet prints the primary line with Context lines around it and a
// caret underline sized by display width.
func writeSnippet(w io.Writer, doc *source.Document, start, end source.LineCol, opts PrettyOpts, pal palette) {
	if opts.Context < 0 {
		return
	}
	ctx := uint32(opts.Context)
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	lines, err := safecast.Conv[uint32](len(doc.LineIdx) + 1)
	if err != nil {
		panic(fmt.Errorf("line count overflow: %w", err))
	}
	last = min(last, lines)

	gutter := len(fmt.Sprint(last))
	for ln := first; ln <= last; ln++ {
		text := strings.ReplaceAll(doc.Line(ln), "\t", "    ")
		fmt.Fprintf(w, " %*d | %s\n", gutter, ln, truncate(text, opts.Width))
		if ln != start.Line {
			continue
		}
		line := doc.Line(ln)
		prefix := displayWidth(prefixOf(line, start.Col))
		width := 1
		if end.Line == start.Line && end.Col > start.Col {
			from := min(int(start.Col-1), len(line))
			to := min(int(end.Col-1), len(line))
			width = max(displayWidth(line[from:to]), 1)
		}
		fmt.Fprintf(w, " %*s | %s%s\n", gutter, "", strings.Repeat(" ", prefix), pal.caret.Sprint(strings.Repeat("^", width)))
	}
}

func prefixOf(line string, col uint32) string {
	n := min(int(col)-1, len(line))
	if n < 0 {
		return ""
	}
	return line[:n]
}

func displayWidth(s string) int {
	// табы раскрываются так же, как в выводе строки
	return runewidth.StringWidth(strings.ReplaceAll(s, "\t", "    "))
}

func truncate(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}

// PrettyResult prints a short human summary of a fix-all run followed by
// the merged changes, or the conflicting pair.
func PrettyResult(w io.Writer, res *fixall.Result, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	sol := res.Baseline

	switch res.Status {
	case fixall.StatusNothingToFix:
		fmt.Fprintf(w, "%s: nothing to fix\n", res.Title)
		return
	case fixall.StatusConflict:
		fmt.Fprintf(w, "%s: %s\n", res.Title, pal.err.Sprint("conflict"))
		c := res.Conflict
		path := projectLocation
		doc := sol.Document(c.Document)
		if doc != nil {
			path = formatDocPath(doc, sol, opts.PathMode)
		}
		fmt.Fprintf(w, "  %s\n", pal.path.Sprint(path))
		fmt.Fprintf(w, "    %s %s\n", c.Existing, fixTitle(c.ExistingFix))
		fmt.Fprintf(w, "    %s %s\n", c.Incoming, fixTitle(c.IncomingFix))
		return
	}

	fmt.Fprintf(w, "%s: %d fixes, %d changes in %d documents\n",
		res.Title, res.FixCount(), res.ChangeCount(), len(res.Changed))
	for _, dc := range res.Changed {
		doc := sol.Document(dc.Document)
		if doc == nil {
			continue
		}
		fmt.Fprintf(w, "  %s (%d)\n", pal.path.Sprint(formatDocPath(doc, sol, opts.PathMode)), len(dc.Changes))
		if !opts.ShowPreview {
			continue
		}
		for _, c := range dc.Changes {
			preview, err := buildChangePreview(doc, c)
			if err != nil {
				continue
			}
			for _, l := range preview.before {
				fmt.Fprintf(w, "    %s\n", pal.removed.Sprint("- "+truncate(l, opts.Width)))
			}
			for _, l := range preview.after {
				fmt.Fprintf(w, "    %s\n", pal.added.Sprint("+ "+truncate(l, opts.Width)))
			}
		}
	}
}

func fixTitle(f *fixall.CandidateFix) string {
	if f == nil {
		return ""
	}
	if f.Diagnostic != nil {
		return fmt.Sprintf("(%s: %s)", f.Diagnostic.Code.ID(), f.Title)
	}
	return "(" + f.Title + ")"
}
