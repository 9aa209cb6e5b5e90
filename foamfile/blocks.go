package foamfile

import (
	"bytes"
)

// Scope describes the outer section holding named sub-blocks
type Scope struct {
	Match       func(line []byte) bool // identifies the (trimmed) line that opens the section
	Open, Close byte
	Name        string // used in diagnostics

	// Skip, when set, returns the number of lines of opaque data (a binary
	// payload) starting at the given line, or 0. Skipped lines are not
	// searched for braces.
	Skip func(line int) int
}

// BoundaryFieldScope is the boundaryField dictionary of a field file
var BoundaryFieldScope = Scope{
	Match: func(line []byte) bool { return isKeywordLine(line, "boundaryField") },
	Open:  '{',
	Close: '}',
	Name:  "boundaryField",
}

// PatchListScope is the counted patch list of a polyMesh boundary file
var PatchListScope = Scope{
	Match: func(line []byte) bool {
		if _, ok := ParseCount(line); ok {
			return true
		}
		// "N(" on one line
		i := bytes.IndexByte(line, '(')
		_, ok := ParseCount(line[:max(i, 0)])
		return i > 0 && ok
	},
	Open:  '(',
	Close: ')',
	Name:  "patch list",
}

// Block is a named sub-block and the inclusive line range of its body
type Block struct {
	Name        string
	First, Last int
}

// Blocks are kept in declaration order
type Blocks []Block

// Lookup finds a block by name
func (bs Blocks) Lookup(name string) (Block, bool) {
	for _, b := range bs {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

func (bs Blocks) Names() []string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name
	}
	return names
}

// ScanBlocks finds the section described by scope, starting at line from,
// and returns the body range of every "name { ... }" entry in it. The
// scan is lenient: on a missing brace or an unterminated section it stops
// and returns the entries found so far together with a
// *MalformedBlockError. A file without the section yields no blocks and no
// error.
func ScanBlocks(c *Content, scope Scope, from int) (Blocks, error) {
	r := NewLineReader(c)
	r.Seek(from)
	for !r.EOF() && !scope.Match(r.Peek()) {
		r.Advance(1)
	}
	if r.EOF() {
		return nil, nil
	}
	outer := r.Pos()
	at, ok := r.OpenScope(scope.Open)
	if !ok {
		return nil, &MalformedBlockError{Line: outer,
			Reason: "no '" + string(scope.Open) + "' after " + scope.Name}
	}
	if line := c.Text(at); closesOnLine(line, scope.Open, scope.Close) {
		return Blocks{}, nil
	}

	blocks := Blocks{}
	for {
		if r.EOF() {
			return blocks, &MalformedBlockError{Line: outer,
				Reason: scope.Name + " does not end with '" + string(scope.Close) + "'"}
		}
		line := r.Peek()
		if len(line) == 0 || IsComment(line) {
			r.Advance(1)
			continue
		}
		if line[0] == scope.Close {
			return blocks, nil
		}

		name := line
		if i := bytes.IndexByte(line, '{'); i >= 0 {
			name = bytes.TrimSpace(line[:i])
		}
		nameLine := r.Pos()
		at, ok := r.OpenScope('{')
		if !ok {
			return blocks, &MalformedBlockError{Line: nameLine,
				Reason: "no '{' after entry " + string(name)}
		}
		if closesOnLine(c.Text(at), '{', '}') {
			blocks = append(blocks, Block{Name: string(name), First: at, Last: at})
			continue
		}

		first, depth := r.Pos(), 1
		for depth > 0 {
			if r.EOF() {
				return blocks, &MalformedBlockError{Line: nameLine,
					Reason: "entry " + string(name) + " does not end with '}'"}
			}
			if scope.Skip != nil {
				if k := scope.Skip(r.Pos()); k > 0 {
					r.Advance(k)
					continue
				}
			}
			l := r.Peek()
			depth += bytes.Count(l, []byte{'{'}) - bytes.Count(l, []byte{'}'})
			r.Advance(1)
		}
		blocks = append(blocks, Block{Name: string(name), First: first, Last: r.Pos() - 2})
	}
}

// closesOnLine reports whether the delimiter opened on line is also closed
// on it
func closesOnLine(line []byte, open, close byte) bool {
	i := bytes.IndexByte(line, open)
	return i >= 0 && bytes.LastIndexByte(line, close) > i
}
