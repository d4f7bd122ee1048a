package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"fixall/internal/source"
)

// ErrModifiedOnDisk is returned when a file changed after it was loaded.
var ErrModifiedOnDisk = errors.New("file modified on disk since it was loaded")

// FileChange reports one rewritten file.
type FileChange struct {
	Path    string `json:"path" yaml:"path"`
	Changes int    `json:"changes" yaml:"changes"`
}

// WriteChanges writes every document whose text differs between baseline and
// merged. Virtual documents are skipped. Files keep their mode, and CRLF line
// endings or a BOM removed on load are restored. Every file is checked
// against its baseline content before anything is written.
func WriteChanges(baseline, merged *source.Solution) ([]FileChange, error) {
	if baseline == nil || merged == nil {
		return nil, nil
	}
	type pending struct {
		path    string
		buf     []byte
		mode    os.FileMode
		changes int
		rel     string
	}

	var writes []pending
	for _, id := range baseline.ChangedDocuments(merged) {
		before := baseline.Document(id)
		after := merged.Document(id)
		if before.Flags&source.DocumentVirtual != 0 {
			continue
		}

		mode := os.FileMode(0o644)
		info, err := os.Stat(before.Path)
		if err == nil {
			mode = info.Mode()
		}
		// #nosec G304 -- path belongs to the loaded workspace
		current, err := os.ReadFile(before.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", before.Path, err)
		}
		if !bytes.Equal(current, before.DiskBytes(before.Text)) {
			return nil, fmt.Errorf("%w: %s", ErrModifiedOnDisk, before.Path)
		}

		writes = append(writes, pending{
			path:    before.Path,
			buf:     before.DiskBytes(after.Text),
			mode:    mode,
			changes: len(source.GetTextChanges(after, before)),
			rel:     before.FormatPath("relative", baseline.BaseDir()),
		})
	}

	changes := make([]FileChange, 0, len(writes))
	for _, w := range writes {
		if err := os.WriteFile(w.path, w.buf, w.mode); err != nil {
			return changes, fmt.Errorf("write %s: %w", w.path, err)
		}
		changes = append(changes, FileChange{Path: w.rel, Changes: w.changes})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}
