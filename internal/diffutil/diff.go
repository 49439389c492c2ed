// Package diffutil computes line-oriented diffs for dry-run output using the
// sergi/go-diff engine.
package diffutil

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// context lines kept on each side of a change when collapsing equal runs.
const contextLines = 3

// Unified returns a unified-style line diff of old against new. Long
// unchanged runs are collapsed around a separator so that dry-run output for
// large files stays readable. An empty string means no difference.
func Unified(old, new string) string {
	if old == new {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	for di, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writeAll(&sb, "+", lines)
		case diffmatchpatch.DiffDelete:
			writeAll(&sb, "-", lines)
		case diffmatchpatch.DiffEqual:
			if len(lines) <= 2*contextLines {
				writeAll(&sb, " ", lines)
				continue
			}
			if di > 0 {
				writeAll(&sb, " ", lines[:contextLines])
			}
			sb.WriteString("@@\n")
			if di < len(diffs)-1 {
				writeAll(&sb, " ", lines[len(lines)-contextLines:])
			}
		}
	}
	return sb.String()
}

func splitLines(text string) []string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return lines
}

func writeAll(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix)
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
}
