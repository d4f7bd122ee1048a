package diagfmt

import (
	"encoding/json"
	"io"

	"fixall/internal/diag"
	"fixall/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file" yaml:"file"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" yaml:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" yaml:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message" yaml:"message"`
	Location LocationJSON `json:"location" yaml:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity   string            `json:"severity" yaml:"severity"`
	Code       string            `json:"code" yaml:"code"`
	Message    string            `json:"message" yaml:"message"`
	Project    string            `json:"project,omitempty" yaml:"project,omitempty"`
	Location   *LocationJSON     `json:"location,omitempty" yaml:"location,omitempty"`
	Notes      []NoteJSON        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics" yaml:"diagnostics"`
	Count       int              `json:"count" yaml:"count"`
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, sol *source.Solution, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{
		File:      projectLocation,
		StartByte: span.Start,
		EndByte:   span.End,
	}
	d := sol.Document(span.Doc)
	if d == nil {
		return loc
	}
	loc.File = formatDocPath(d, sol, pathMode)

	// Добавляем позиции строк/колонок если требуется
	if includePositions {
		startPos, endPos := sol.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

func makeDiagnostic(d *diag.Diagnostic, sol *source.Solution, opts JSONOpts) DiagnosticJSON {
	out := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
	}
	if p := sol.Project(d.Project); p != nil {
		out.Project = p.Name
	}
	if !d.IsProjectLevel() {
		loc := makeLocation(d.Primary, sol, opts.PathMode, opts.IncludePositions)
		out.Location = &loc
	}
	if opts.IncludeNotes && len(d.Notes) > 0 {
		out.Notes = make([]NoteJSON, len(d.Notes))
		for j, note := range d.Notes {
			out.Notes[j] = NoteJSON{
				Message:  note.Msg,
				Location: makeLocation(note.Span, sol, opts.PathMode, opts.IncludePositions),
			}
		}
	}
	if len(d.Properties) > 0 {
		out.Properties = make(map[string]string, len(d.Properties))
		for k, v := range d.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// BuildDiagnosticsOutput формирует структуру вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, sol *source.Solution, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		diagnostics = append(diagnostics, makeDiagnostic(items[i], sol, opts))
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, sol *source.Solution, opts JSONOpts) error {
	return WriteJSON(w, BuildDiagnosticsOutput(bag, sol, opts))
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
