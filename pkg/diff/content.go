package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiffs computes a line-granular diff. Each returned chunk holds
// one or more whole lines sharing the same change type.
func lineDiffs(from, to string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	fromChars, toChars, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffMain(fromChars, toChars, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// splitLines breaks a diff chunk into its lines, without trailing
// newlines. An empty chunk yields no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}

// Content renders a unified-style diff between two versions of a file.
// Context lines are kept in full; the header names both sides.
func Content(filename, from, to string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- from/%s\n+++ to/%s", filename, filename)

	for _, d := range lineDiffs(from, to) {
		sign := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sign = "+"
		case diffmatchpatch.DiffDelete:
			sign = "-"
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString("\n")
			sb.WriteString(sign)
			sb.WriteString(" ")
			sb.WriteString(line)
		}
	}

	return sb.String()
}

// BuildFileDiff renders the diff payload for one file given its content
// on each side. A nil pointer means the file does not exist in that
// version.
func BuildFileDiff(filename string, from, to *string) FileDiff {
	switch {
	case from == nil && to == nil:
		return FileDiff{Data: "File not present in either version.", IsDiff: false}
	case from == nil:
		lines := []string{fmt.Sprintf("--- /dev/null\n+++ to/%s", filename)}
		for _, line := range strings.Split(*to, "\n") {
			lines = append(lines, "+ "+line)
		}
		return FileDiff{Data: strings.Join(lines, "\n"), IsDiff: true}
	case to == nil:
		lines := []string{fmt.Sprintf("--- from/%s\n+++ /dev/null", filename)}
		for _, line := range strings.Split(*from, "\n") {
			lines = append(lines, "- "+line)
		}
		return FileDiff{Data: strings.Join(lines, "\n"), IsDiff: true}
	case *from == *to:
		return FileDiff{Data: *to, IsDiff: false}
	default:
		return FileDiff{Data: Content(filename, *from, *to), IsDiff: true}
	}
}
