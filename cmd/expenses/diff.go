package main

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// rowDiff renders the character changes from before to after in word-diff
// style: removed text as [-...-], added text as {+...+}.
func rowDiff(before, after string) string {
	if before == after {
		return after + " (unchanged)"
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
