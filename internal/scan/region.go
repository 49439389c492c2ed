package scan

import (
	"errors"
	"fmt"

	"refan/internal/buffer"
)

// Region is a contiguous line range [Start, End] bounded by a block opener
// and its matching closer.
type Region struct {
	Start int
	End   int
}

// UnbalancedError reports a block that never closes before end-of-buffer.
// It aborts the session for the file: a partially-delimited construct means
// the migration's structural assumptions do not hold.
type UnbalancedError struct {
	Start int // 0-based line of the opener
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("block opened at line %d never closes", e.Start+1)
}

// ErrNoOpener is returned when the anchor line contains no opening delimiter.
var ErrNoOpener = errors.New("no opening delimiter on anchor line")

// balanceState carries lexical state across lines so that delimiter counting
// treats string/char literals and comments as opaque spans. A brace inside a
// quoted string or a comment never perturbs the balance.
type balanceState struct {
	inBlockComment bool
	inRawString    bool
}

// delta counts net opener/closer braces on one line, updating st for
// constructs that span lines (block comments, raw backtick strings).
func (st *balanceState) delta(line string) int {
	d := 0
	i := 0
	for i < len(line) {
		if st.inBlockComment {
			end := indexFrom(line, i, "*/")
			if end < 0 {
				return d
			}
			st.inBlockComment = false
			i = end + 2
			continue
		}
		if st.inRawString {
			end := indexByteFrom(line, i, '`')
			if end < 0 {
				return d
			}
			st.inRawString = false
			i = end + 1
			continue
		}
		switch line[i] {
		case '{':
			d++
			i++
		case '}':
			d--
			i++
		case '`':
			st.inRawString = true
			i++
		case '"':
			i = skipQuoted(line, i, '"')
		case '\'':
			i = skipQuoted(line, i, '\'')
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return d // rest of the line is a comment
			}
			if i+1 < len(line) && line[i+1] == '*' {
				st.inBlockComment = true
				i += 2
				continue
			}
			i++
		default:
			i++
		}
	}
	return d
}

// skipQuoted advances past a quoted literal starting at the opening quote,
// honoring backslash escapes. An unterminated literal consumes the rest of
// the line, which is the conservative choice.
func skipQuoted(line string, start int, quote byte) int {
	i := start + 1
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return i
}

func indexFrom(s string, start int, sub string) int {
	for i := start; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func indexByteFrom(s string, start int, c byte) int {
	for i := start; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// Extract determines the exact span of the block opened on line opener by
// running a delimiter balance counter, beginning with the opener found on
// that line. The region ends at the first line where the balance returns to
// zero. Reaching end-of-buffer first yields an *UnbalancedError.
func Extract(b *buffer.Buffer, opener int) (Region, error) {
	st := &balanceState{}
	balance := st.delta(b.Text(opener))
	if balance <= 0 {
		// the anchor line both opens and closes (or never opens) the block
		if countByte(b.Text(opener), '{') > 0 && balance == 0 {
			return Region{Start: opener, End: opener}, nil
		}
		return Region{}, ErrNoOpener
	}
	for i := opener + 1; i < b.Len(); i++ {
		balance += st.delta(b.Text(i))
		if balance <= 0 {
			return Region{Start: opener, End: i}, nil
		}
	}
	return Region{}, &UnbalancedError{Start: opener}
}

func countByte(s string, c byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			n++
		}
	}
	return n
}
