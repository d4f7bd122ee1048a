package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
// Возвращает новый слайс и флаг: были ли замены (true, если хотя бы одна).
func normalizeCRLF(content []byte) ([]byte, bool) {
	// Быстрый путь: если нет \r, возвращаем как есть.
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

// RestoreCRLF converts \n line endings back to \r\n. Used when writing documents
// that were normalized on load.
func RestoreCRLF(content []byte) []byte {
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if n == 0 {
		return content
	}
	out := make([]byte, 0, len(content)+n)
	for _, b := range content {
		if b == '\n' {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	return out
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}

	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}

	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("line offset overflow: %w", err))
			}
			out = append(out, off)
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Если LineIdx пустой, то весь документ - одна строка
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// бинпоиск: количество переводов строк строго до off
	line, _ := slices.BinarySearch(lineIdx, off)

	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	lineNo, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: lineNo, Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// AbsolutePath returns the normalized absolute form of path.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return normalizePath(abs), nil
}

// RelativePath returns path relative to baseDir. Paths outside baseDir fall back
// to their absolute form so that output never contains "../" chains.
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return normalizePath(absPath), nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absPath), nil
	}
	return normalizePath(rel), nil
}

// BaseName returns the last element of path.
func BaseName(path string) string {
	return filepath.Base(path)
}

// FormatPath форматирует путь документа в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
func (d *Document) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(d.Path); err == nil {
			return abs
		}
		return d.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(d.Path, baseDir); err == nil {
			return rel
		}
		return d.Path

	case "basename":
		return BaseName(d.Path)

	case "auto":
		if len(d.Path) < 40 || !filepath.IsAbs(d.Path) {
			return d.Path
		}
		return BaseName(d.Path)

	default:
		return d.Path
	}
}

// Line returns the text of line lineNum (1-based) without its terminating newline.
func (d *Document) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenText, err := safecast.Conv[uint32](len(d.Text))
	if err != nil {
		panic(fmt.Errorf("text length overflow: %w", err))
	}
	lenIdx, err := safecast.Conv[uint32](len(d.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}

	var start, end uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lenIdx:
		start = d.LineIdx[lineNum-2] + 1
	default:
		return ""
	}
	if lineNum-1 < lenIdx {
		end = d.LineIdx[lineNum-1]
	} else {
		end = lenText
	}
	if start > lenText {
		return ""
	}
	return string(d.Text[start:end])
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DiskBytes re-encodes text the way doc was stored on disk: CRLF line endings
// and the UTF-8 BOM are restored when Load removed them.
func (d *Document) DiskBytes(text []byte) []byte {
	if d.Flags&DocumentNormalizedCRLF != 0 {
		text = RestoreCRLF(text)
	}
	if d.Flags&DocumentHadBOM != 0 {
		out := make([]byte, 0, len(utf8BOM)+len(text))
		out = append(out, utf8BOM...)
		text = append(out, text...)
	}
	return text
}
