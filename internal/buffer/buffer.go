package buffer

import (
	"fmt"
	"os"
	"strings"
)

// Line is one buffer line: the text as it appeared in the source plus its
// original terminator ("\n", "\r\n", or "" for a final unterminated line).
// Keeping the terminator per line is what makes Bytes() reproduce the input
// byte-for-byte when nothing has been mutated.
type Line struct {
	Text string
	EOL  string
}

// Buffer is an ordered, line-indexed view of one source file. It is owned by
// exactly one session at a time and mutated in place.
type Buffer struct {
	lines []Line
}

// Load reads path into a buffer without normalizing anything.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FromBytes(data), nil
}

// FromBytes builds a buffer over in-memory content, so sessions and tests can
// run without touching the filesystem.
func FromBytes(data []byte) *Buffer {
	var lines []Line
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		text := data[start:i]
		eol := "\n"
		if len(text) > 0 && text[len(text)-1] == '\r' {
			text = text[:len(text)-1]
			eol = "\r\n"
		}
		lines = append(lines, Line{Text: string(text), EOL: eol})
		start = i + 1
	}
	if start < len(data) {
		lines = append(lines, Line{Text: string(data[start:]), EOL: ""})
	}
	return &Buffer{lines: lines}
}

// Len returns the number of lines.
func (b *Buffer) Len() int { return len(b.lines) }

// Line returns line i. i must be in [0, Len).
func (b *Buffer) Line(i int) Line { return b.lines[i] }

// Text returns the text of line i without its terminator.
func (b *Buffer) Text(i int) string { return b.lines[i].Text }

// Slice returns a copy of lines [start, end] inclusive.
func (b *Buffer) Slice(start, end int) []Line {
	out := make([]Line, end-start+1)
	copy(out, b.lines[start:end+1])
	return out
}

// Splice replaces count lines starting at start with repl.
func (b *Buffer) Splice(start, count int, repl []Line) {
	tail := b.lines[start+count:]
	next := make([]Line, 0, len(b.lines)-count+len(repl))
	next = append(next, b.lines[:start]...)
	next = append(next, repl...)
	next = append(next, tail...)
	b.lines = next
}

// Insert places lines before index at (at == Len appends).
func (b *Buffer) Insert(at int, lines []Line) {
	b.Splice(at, 0, lines)
}

// Bytes serializes the buffer. For an unmutated buffer this is byte-identical
// to the loaded content.
func (b *Buffer) Bytes() []byte {
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(l.Text)
		sb.WriteString(l.EOL)
	}
	return []byte(sb.String())
}
