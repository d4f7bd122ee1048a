package diagfmt

import "fixall/internal/source"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode converts a flag value into a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics and results.
type PrettyOpts struct {
	Color       bool
	Context     int8
	PathMode    PathMode
	Width       uint8 // максимальная ширина строки, 0 - не ограничено
	ShowNotes   bool
	ShowPreview bool
}

// JSONOpts configures JSON and YAML output.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludePreviews  bool
	IncludeFixes     bool // список кандидатов, участвовавших в слиянии
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

func formatDocPath(d *source.Document, sol *source.Solution, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return d.FormatPath("absolute", "")
	case PathModeRelative:
		return d.FormatPath("relative", sol.BaseDir())
	case PathModeBasename:
		return d.FormatPath("basename", "")
	case PathModeAuto:
		return d.FormatPath("auto", "")
	default:
		return d.Path
	}
}

// projectLocation is shown instead of a path for project-level diagnostics.
const projectLocation = "<project>"
