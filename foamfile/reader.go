package foamfile

import (
	"bytes"
	"strconv"
)

// LineReader walks the lines of a Content with a cursor
type LineReader struct {
	c   *Content
	pos int
}

func NewLineReader(c *Content) *LineReader {
	return &LineReader{c: c}
}

func (r *LineReader) Pos() int { return r.pos }

func (r *LineReader) Seek(line int) { r.pos = line }

func (r *LineReader) EOF() bool { return r.pos >= r.c.Len() }

func (r *LineReader) Advance(n int) { r.pos += n }

// Peek returns the current line without surrounding whitespace, nil at EOF
func (r *LineReader) Peek() []byte { return r.c.Text(r.pos) }

// PeekAt returns the line k lines ahead of the cursor
func (r *LineReader) PeekAt(k int) []byte { return r.c.Text(r.pos + k) }

// OpenScope locates the opening delimiter of the scope named on the current
// line. The delimiter may sit on the same line, on the next line, or after
// exactly one blank line. On success the cursor moves to the line after the
// delimiter and the delimiter's line is returned.
func (r *LineReader) OpenScope(open byte) (int, bool) {
	switch {
	case bytes.IndexByte(r.Peek(), open) >= 0:
	case startsWith(r.PeekAt(1), open):
		r.Advance(1)
	case len(r.PeekAt(1)) == 0 && startsWith(r.PeekAt(2), open):
		r.Advance(2)
	default:
		return -1, false
	}
	at := r.pos
	r.Advance(1)
	return at, true
}

func startsWith(line []byte, b byte) bool {
	return len(line) > 0 && line[0] == b
}

// isKeywordLine reports whether the first token of line is kw, allowing an
// opening brace glued to it
func isKeywordLine(line []byte, kw string) bool {
	if !bytes.HasPrefix(line, []byte(kw)) {
		return false
	}
	rest := line[len(kw):]
	return len(rest) == 0 || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '{'
}

// ParseCount parses a line holding nothing but a non-negative integer
func ParseCount(line []byte) (int, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(line))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsComment reports lines skipped between dictionary entries
func IsComment(line []byte) bool {
	return bytes.HasPrefix(line, []byte("//")) || bytes.HasPrefix(line, []byte("#"))
}
