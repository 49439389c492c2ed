// Package scan locates rule trigger points and bounds the structural blocks
// they open, without parsing the target language.
package scan

import (
	"strings"

	"refan/internal/buffer"
)

// Anchor identifies a trigger line by literal text. Patterns is a small
// alternation set; a line satisfies the anchor when any pattern matches.
// Matching is substring containment unless Exact is set.
type Anchor struct {
	Patterns []string
	Exact    bool
}

// Match reports whether line satisfies the anchor.
func (a Anchor) Match(line string) bool {
	for _, p := range a.Patterns {
		if a.Exact {
			if line == p {
				return true
			}
			continue
		}
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}

// Find scans forward from cursor and returns the first line satisfying the
// anchor. A miss is not an error: callers treat it as "this rule's
// precondition does not currently hold", which is what makes re-running a
// finished migration safe.
func Find(b *buffer.Buffer, cursor int, a Anchor) (int, bool) {
	for i := cursor; i < b.Len(); i++ {
		if a.Match(b.Text(i)) {
			return i, true
		}
	}
	return 0, false
}
