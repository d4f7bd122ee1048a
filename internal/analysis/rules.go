package analysis

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
)

// Equivalence keys of the built-in fixes.
const (
	KeyTrimTrailingWhitespace = "trim-trailing-whitespace"
	KeyIndentSpaces4          = "indent-spaces-4"
	KeyIndentSpaces2          = "indent-spaces-2"
	KeyNormalizeNFC           = "normalize-nfc"
	KeyInsertFinalNewline     = "insert-final-newline"
	KeyInsertProjectHeader    = "insert-project-header"
)

// Rule describes one built-in check and the fixes it offers.
type Rule struct {
	Code     diag.Code
	Severity diag.Severity
	// Keys lists the equivalence keys of the registered fixes, in menu order.
	Keys []string

	checkDocument func(c *docCheck)
	checkProject  func(c *projectCheck)
	fixes         func(h *Host, fc fixall.FixContext, d *diag.Diagnostic) []fixall.Action
}

// ProjectLevel reports whether the rule reports project-level diagnostics.
func (r *Rule) ProjectLevel() bool { return r.checkProject != nil }

type docCheck struct {
	doc      *source.Document
	reporter diag.Reporter
	sev      diag.Severity
}

func (c *docCheck) report(code diag.Code, start, end int, msg string) *diag.ReportBuilder {
	sp := source.SpanFromOffsets(c.doc.ID, start, end)
	return diag.NewReportBuilder(c.reporter, c.sev, code, c.doc.Project, sp, msg)
}

type projectCheck struct {
	sol       *source.Solution
	project   *source.Project
	reporter  diag.Reporter
	sev       diag.Severity
	generated func(*source.Document) bool
}

var builtinRules = []*Rule{
	{
		Code:          diag.TxtTrailingWhitespace,
		Severity:      diag.SevWarning,
		Keys:          []string{KeyTrimTrailingWhitespace},
		checkDocument: checkTrailingWhitespace,
		fixes:         fixTrailingWhitespace,
	},
	{
		Code:          diag.TxtTabIndentation,
		Severity:      diag.SevWarning,
		Keys:          []string{KeyIndentSpaces4, KeyIndentSpaces2},
		checkDocument: checkTabIndentation,
		fixes:         fixTabIndentation,
	},
	{
		Code:          diag.TxtNotNormalized,
		Severity:      diag.SevWarning,
		Keys:          []string{KeyNormalizeNFC},
		checkDocument: checkNormalization,
		fixes:         fixNormalization,
	},
	{
		Code:          diag.TxtMissingFinalNewline,
		Severity:      diag.SevInfo,
		Keys:          []string{KeyInsertFinalNewline},
		checkDocument: checkFinalNewline,
		fixes:         fixFinalNewline,
	},
	{
		Code:         diag.PrjMissingHeader,
		Severity:     diag.SevInfo,
		Keys:         []string{KeyInsertProjectHeader},
		checkProject: checkProjectHeader,
		fixes:        fixProjectHeader,
	},
}

// Rules returns the built-in rules in code order.
func Rules() []*Rule {
	return append([]*Rule(nil), builtinRules...)
}

// RuleByCode looks up a built-in rule.
func RuleByCode(code diag.Code) (*Rule, bool) {
	for _, r := range builtinRules {
		if r.Code == code {
			return r, true
		}
	}
	return nil, false
}

// RuleForKey returns the rule that registers fixes under key.
func RuleForKey(key string) (*Rule, bool) {
	for _, r := range builtinRules {
		for _, k := range r.Keys {
			if k == key {
				return r, true
			}
		}
	}
	return nil, false
}

// forEachLine calls fn with the bounds of every line; end excludes '\n'.
func forEachLine(text []byte, fn func(start, end int)) {
	start := 0
	for start < len(text) {
		end := bytes.IndexByte(text[start:], '\n')
		if end < 0 {
			fn(start, len(text))
			return
		}
		fn(start, start+end)
		start += end + 1
	}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

func spanText(doc *source.Document, sp source.Span) string {
	if doc == nil || int(sp.End) > len(doc.Text) || sp.Start > sp.End {
		return ""
	}
	return string(doc.Text[sp.Start:sp.End])
}

// FA1001

func checkTrailingWhitespace(c *docCheck) {
	text := c.doc.Text
	forEachLine(text, func(start, end int) {
		j := end
		for j > start && isBlank(text[j-1]) {
			j--
		}
		if j == end {
			return
		}
		c.report(diag.TxtTrailingWhitespace, j, end, "trailing whitespace").Emit()
	})
}

func fixTrailingWhitespace(_ *Host, fc fixall.FixContext, d *diag.Diagnostic) []fixall.Action {
	expect := spanText(fc.Document, d.Primary)
	if expect == "" {
		return nil
	}
	return []fixall.Action{
		DeleteSpan("Remove trailing whitespace", KeyTrimTrailingWhitespace, d.Primary, expect),
	}
}

// FA1002

func checkTabIndentation(c *docCheck) {
	text := c.doc.Text
	forEachLine(text, func(start, end int) {
		k := start
		for k < end && isBlank(text[k]) {
			k++
		}
		// пустые строки достаются FA1001
		if k == end {
			return
		}
		if bytes.IndexByte(text[start:k], '\t') < 0 {
			return
		}
		c.report(diag.TxtTabIndentation, start, k, "indentation uses tabs").Emit()
	})
}

func fixTabIndentation(_ *Host, fc fixall.FixContext, d *diag.Diagnostic) []fixall.Action {
	indent := spanText(fc.Document, d.Primary)
	if !strings.Contains(indent, "\t") {
		return nil
	}
	return []fixall.Action{
		fixall.NewGroup("Convert indentation to spaces",
			ReplaceSpan("Indent with 4 spaces", KeyIndentSpaces4, d.Primary, expandTabs(indent, 4), indent),
			ReplaceSpan("Indent with 2 spaces", KeyIndentSpaces2, d.Primary, expandTabs(indent, 2), indent),
		),
	}
}

// expandTabs returns the spaces that occupy the same columns as indent.
func expandTabs(indent string, width int) string {
	col := 0
	for i := 0; i < len(indent); i++ {
		if indent[i] == '\t' {
			col += width - col%width
			continue
		}
		col++
	}
	return strings.Repeat(" ", col)
}

// FA1003

func checkNormalization(c *docCheck) {
	text := c.doc.Text
	if norm.NFC.IsNormal(text) {
		return
	}
	forEachLine(text, func(start, end int) {
		if norm.NFC.IsNormal(text[start:end]) {
			return
		}
		c.report(diag.TxtNotNormalized, start, end, "line is not in Unicode NFC form").Emit()
	})
}

func fixNormalization(_ *Host, fc fixall.FixContext, d *diag.Diagnostic) []fixall.Action {
	line := spanText(fc.Document, d.Primary)
	if line == "" || norm.NFC.IsNormalString(line) {
		return nil
	}
	return []fixall.Action{
		ReplaceSpan("Normalize to NFC", KeyNormalizeNFC, d.Primary, norm.NFC.String(line), line),
	}
}

// FA1004

func checkFinalNewline(c *docCheck) {
	text := c.doc.Text
	if len(text) == 0 || text[len(text)-1] == '\n' {
		return
	}
	c.report(diag.TxtMissingFinalNewline, len(text), len(text), "missing final newline").Emit()
}

func fixFinalNewline(_ *Host, fc fixall.FixContext, d *diag.Diagnostic) []fixall.Action {
	if fc.Document == nil || int(d.Primary.Start) != len(fc.Document.Text) {
		return nil
	}
	return []fixall.Action{
		InsertText("Insert final newline", KeyInsertFinalNewline, d.Primary, "\n"),
	}
}

// FA2001

// missingHeader lists the non-generated documents of project that do not
// start with header.
func missingHeader(sol *source.Solution, project *source.Project, header string, generated func(*source.Document) bool) []*source.Document {
	var out []*source.Document
	for _, d := range sol.ProjectDocuments(project.ID) {
		if generated(d) || bytes.HasPrefix(d.Text, []byte(header)) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func checkProjectHeader(c *projectCheck) {
	header := c.project.Option("header")
	if header == "" {
		return
	}
	docs := missingHeader(c.sol, c.project, header, c.generated)
	if len(docs) == 0 {
		return
	}
	d := diag.NewProjectLevel(c.sev, diag.PrjMissingHeader, c.project.ID,
		fmt.Sprintf("%d documents lack the project header", len(docs)))
	for _, doc := range docs {
		d.WithNote(source.Span{Doc: doc.ID}, "header missing in "+doc.Name)
	}
	d.WithProperty("documents", strconv.Itoa(len(docs)))
	c.reporter.Report(d)
}

func fixProjectHeader(h *Host, fc fixall.FixContext, _ *diag.Diagnostic) []fixall.Action {
	if fc.Project == nil {
		return nil
	}
	header := fc.Project.Option("header")
	if header == "" {
		return nil
	}
	docs := missingHeader(fc.Solution, fc.Project, header, h.IsGenerated)
	if len(docs) == 0 {
		return nil
	}
	edits := make([]Edit, len(docs))
	for i, doc := range docs {
		edits[i] = Edit{Span: source.Span{Doc: doc.ID}, NewText: header}
	}
	return []fixall.Action{
		EditAction("Insert project header", KeyInsertProjectHeader, edits...),
	}
}
