package diagfmt

import (
	"io"

	"github.com/pmezard/go-difflib/difflib"

	"fixall/internal/fixall"
)

// UnifiedDiff writes a unified diff of every changed document, baseline
// against the merged solution, in document order.
func UnifiedDiff(w io.Writer, res *fixall.Result, mode PathMode) error {
	if res == nil || res.Solution == nil {
		return nil
	}
	for _, dc := range res.Changed {
		before := res.Baseline.Document(dc.Document)
		after := res.Solution.Document(dc.Document)
		if before == nil || after == nil {
			continue
		}
		path := formatDocPath(before, res.Baseline, mode)
		err := difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(before.Text)),
			B:        difflib.SplitLines(string(after.Text)),
			FromFile: "a/" + path,
			ToFile:   "b/" + path,
			Context:  3,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
