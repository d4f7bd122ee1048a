package diag

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Текстовые правила (уровень документа)
	TxtInfo                Code = 1000
	TxtTrailingWhitespace  Code = 1001
	TxtTabIndentation      Code = 1002
	TxtNotNormalized       Code = 1003
	TxtMissingFinalNewline Code = 1004

	// Проектные правила
	PrjInfo          Code = 2000
	PrjMissingHeader Code = 2001

	// Ошибки ввода-вывода и манифеста
	IOInfo            Code = 4000
	IOLoadFileError   Code = 4001
	IOManifestInvalid Code = 4002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		TxtInfo:                "Text information",
		TxtTrailingWhitespace:  "Trailing whitespace",
		TxtTabIndentation:      "Tab used for indentation",
		TxtNotNormalized:       "Text is not in Unicode NFC form",
		TxtMissingFinalNewline: "Missing final newline",
		PrjInfo:                "Project information",
		PrjMissingHeader:       "Document is missing the project header",
		IOInfo:                 "I/O information",
		IOLoadFileError:        "Failed to load file",
		IOManifestInvalid:      "Invalid fixall.toml",
	}
)

// ID returns the stable rule identifier, e.g. FA1001.
func (c Code) ID() string {
	if c == UnknownCode {
		return "FA0000"
	}
	return fmt.Sprintf("FA%04d", int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsProjectLevel reports whether diagnostics of this code attach to a project
// rather than to a document.
func (c Code) IsProjectLevel() bool {
	return c >= 2000 && c < 3000
}

// ParseCode accepts "FA1001", "fa1001" or a bare "1001".
func ParseCode(s string) (Code, error) {
	raw := strings.TrimSpace(s)
	if len(raw) > 2 && strings.EqualFold(raw[:2], "FA") {
		raw = raw[2:]
	}
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return UnknownCode, fmt.Errorf("invalid rule id %q", s)
	}
	c := Code(n)
	if _, ok := codeDescription[c]; !ok {
		return UnknownCode, fmt.Errorf("unknown rule id %q", s)
	}
	return c, nil
}

// ParseCodes parses a list of rule ids, dropping duplicates.
func ParseCodes(ids []string) (CodeSet, error) {
	set := make(CodeSet, len(ids))
	for _, id := range ids {
		c, err := ParseCode(id)
		if err != nil {
			return nil, err
		}
		set[c] = struct{}{}
	}
	return set, nil
}

// CodeSet is the set of rule codes a fix-all request operates on.
type CodeSet map[Code]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...Code) CodeSet {
	set := make(CodeSet, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func (s CodeSet) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

// Codes returns the codes in ascending order.
func (s CodeSet) Codes() []Code {
	out := make([]Code, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String joins the rule ids with ", " in ascending order.
func (s CodeSet) String() string {
	codes := s.Codes()
	ids := make([]string, len(codes))
	for i, c := range codes {
		ids[i] = c.ID()
	}
	return strings.Join(ids, ", ")
}
