package diag

import (
	"fmt"

	"fixall/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a read-only finding produced by an analysis rule.
// Project-level diagnostics have Primary.Doc == source.NoDocumentID.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Project  source.ProjectID
	Notes    []Note
	// Properties передают данные правила провайдеру исправлений
	Properties map[string]string
}

func New(sev Severity, code Code, project source.ProjectID, primary source.Span, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Project:  project,
		Primary:  primary,
		Message:  msg,
	}
}

// NewProjectLevel creates a diagnostic that is not attached to a document.
func NewProjectLevel(sev Severity, code Code, project source.ProjectID, msg string) *Diagnostic {
	return New(sev, code, project, source.Span{}, msg)
}

// IsProjectLevel reports whether the diagnostic has no document location.
func (d *Diagnostic) IsProjectLevel() bool {
	return d.Primary.Doc == source.NoDocumentID
}

// Key identifies the diagnostic by code, location and message.
func (d *Diagnostic) Key() string {
	if d.IsProjectLevel() {
		return fmt.Sprintf("%s:p%d:%s", d.Code.ID(), d.Project, d.Message)
	}
	return fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Primary.String(), d.Message)
}

// Property returns a rule property or "".
func (d *Diagnostic) Property(key string) string {
	if d.Properties == nil {
		return ""
	}
	return d.Properties[key]
}

func (d *Diagnostic) WithNote(sp source.Span, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d *Diagnostic) WithProperty(key, value string) *Diagnostic {
	if d.Properties == nil {
		d.Properties = make(map[string]string)
	}
	d.Properties[key] = value
	return d
}
