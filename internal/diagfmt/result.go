package diagfmt

import (
	"io"

	"gopkg.in/yaml.v3"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
)

// ChangeJSON is one merged text change.
type ChangeJSON struct {
	Location    LocationJSON `json:"location" yaml:"location"`
	OldText     string       `json:"old_text" yaml:"old_text"`
	NewText     string       `json:"new_text" yaml:"new_text"`
	BeforeLines []string     `json:"before_lines,omitempty" yaml:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty" yaml:"after_lines,omitempty"`
}

// DocumentJSON lists the merged changes of one document.
type DocumentJSON struct {
	File    string       `json:"file" yaml:"file"`
	Changes []ChangeJSON `json:"changes" yaml:"changes"`
}

// FixJSON is a candidate fix that took part in the merge.
type FixJSON struct {
	Title          string `json:"title" yaml:"title"`
	EquivalenceKey string `json:"equivalence_key" yaml:"equivalence_key"`
	Code           string `json:"code,omitempty" yaml:"code,omitempty"`
	File           string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ConflictJSON describes two overlapping changes.
type ConflictJSON struct {
	File        string     `json:"file" yaml:"file"`
	Existing    ChangeJSON `json:"existing" yaml:"existing"`
	Incoming    ChangeJSON `json:"incoming" yaml:"incoming"`
	ExistingFix string     `json:"existing_fix,omitempty" yaml:"existing_fix,omitempty"`
	IncomingFix string     `json:"incoming_fix,omitempty" yaml:"incoming_fix,omitempty"`
}

// ResultOutput is the serialized form of a fix-all result.
type ResultOutput struct {
	OperationID    string         `json:"operation_id" yaml:"operation_id"`
	Status         string         `json:"status" yaml:"status"`
	Title          string         `json:"title" yaml:"title"`
	Scope          string         `json:"scope" yaml:"scope"`
	Rules          []string       `json:"rules" yaml:"rules"`
	EquivalenceKey string         `json:"equivalence_key,omitempty" yaml:"equivalence_key,omitempty"`
	Diagnostics    int            `json:"diagnostics" yaml:"diagnostics"`
	FixCount       int            `json:"fix_count" yaml:"fix_count"`
	ChangeCount    int            `json:"change_count" yaml:"change_count"`
	Documents      []DocumentJSON `json:"documents,omitempty" yaml:"documents,omitempty"`
	Fixes          []FixJSON      `json:"fixes,omitempty" yaml:"fixes,omitempty"`
	Conflict       *ConflictJSON  `json:"conflict,omitempty" yaml:"conflict,omitempty"`
}

func makeChange(doc *source.Document, sol *source.Solution, c source.TextChange, opts JSONOpts) ChangeJSON {
	out := ChangeJSON{
		Location: makeLocation(c.Span, sol, opts.PathMode, opts.IncludePositions),
		NewText:  c.NewText,
	}
	if doc != nil && int(c.Span.End) <= len(doc.Text) {
		out.OldText = string(doc.Text[c.Span.Start:c.Span.End])
	}
	if opts.IncludePreviews {
		if preview, err := buildChangePreview(doc, c); err == nil {
			out.BeforeLines = preview.before
			out.AfterLines = preview.after
		}
	}
	return out
}

// BuildResultOutput формирует структуру вывода результата без сериализации.
// Locations refer to the baseline texts.
func BuildResultOutput(res *fixall.Result, opts JSONOpts) ResultOutput {
	sol := res.Baseline
	out := ResultOutput{
		OperationID:    res.OperationID.String(),
		Status:         res.Status.String(),
		Title:          res.Title,
		Scope:          res.Scope.String(),
		EquivalenceKey: res.EquivalenceKey,
		Diagnostics:    res.DiagnosticCount,
		FixCount:       res.FixCount(),
		ChangeCount:    res.ChangeCount(),
	}
	for _, c := range res.Rules.Codes() {
		out.Rules = append(out.Rules, c.ID())
	}

	for _, dc := range res.Changed {
		doc := sol.Document(dc.Document)
		dj := DocumentJSON{File: projectLocation, Changes: make([]ChangeJSON, 0, len(dc.Changes))}
		if doc != nil {
			dj.File = formatDocPath(doc, sol, opts.PathMode)
		}
		for _, c := range dc.Changes {
			dj.Changes = append(dj.Changes, makeChange(doc, sol, c, opts))
		}
		out.Documents = append(out.Documents, dj)
	}

	if opts.IncludeFixes {
		for _, f := range res.Fixes {
			fj := FixJSON{Title: f.Title, EquivalenceKey: f.Key}
			if f.Diagnostic != nil {
				fj.Code = f.Diagnostic.Code.ID()
			}
			if doc := sol.Document(f.Document); doc != nil {
				fj.File = formatDocPath(doc, sol, opts.PathMode)
			}
			out.Fixes = append(out.Fixes, fj)
		}
	}

	if c := res.Conflict; c != nil {
		doc := sol.Document(c.Document)
		cj := &ConflictJSON{
			File:     projectLocation,
			Existing: makeChange(doc, sol, c.Existing, opts),
			Incoming: makeChange(doc, sol, c.Incoming, opts),
		}
		if doc != nil {
			cj.File = formatDocPath(doc, sol, opts.PathMode)
		}
		if c.ExistingFix != nil {
			cj.ExistingFix = c.ExistingFix.Title
		}
		if c.IncomingFix != nil {
			cj.IncomingFix = c.IncomingFix.Title
		}
		out.Conflict = cj
	}
	return out
}

// ResultJSON writes a fix-all result as indented JSON.
func ResultJSON(w io.Writer, res *fixall.Result, opts JSONOpts) error {
	return WriteJSON(w, BuildResultOutput(res, opts))
}

// ResultYAML writes a fix-all result as YAML.
func ResultYAML(w io.Writer, res *fixall.Result, opts JSONOpts) error {
	return WriteYAML(w, BuildResultOutput(res, opts))
}

// YAML форматирует диагностики в YAML формат.
func YAML(w io.Writer, bag *diag.Bag, sol *source.Solution, opts JSONOpts) error {
	return WriteYAML(w, BuildDiagnosticsOutput(bag, sol, opts))
}

// WriteYAML encodes v as YAML with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
