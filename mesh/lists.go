package mesh

import (
	"bytes"
	"strconv"

	"github.com/notargets/foamcase/foamfile"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// meshFile is one polyMesh file loaded in memory
type meshFile struct {
	c      *foamfile.Content
	header foamfile.Header
	format foamfile.Format
	layout foamfile.Layout
	from   int // first line searched for a list
}

func openMeshFile(path string, o foamfile.Options) (*meshFile, error) {
	c, err := foamfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newMeshFile(c, o), nil
}

func newMeshFile(c *foamfile.Content, o foamfile.Options) *meshFile {
	hd := foamfile.ParseHeader(c)
	return &meshFile{
		c:      c,
		header: hd,
		format: foamfile.DetectFormat(c.Lines, o.HeaderWindow),
		layout: hd.Layout(),
		from:   hd.DataStart(o.SkipLines),
	}
}

// listHead locates a list: the line holding its count, or the whole list
// when it is written inline
type listHead struct {
	line   int
	count  int
	inline *foamfile.InlineList
}

// findList returns the first list at or after line from. A list starts
// with a line holding only its element count.
func (m *meshFile) findList(from int) (listHead, error) {
	for n := from; n < m.c.Len(); n++ {
		text := m.c.Text(n)
		if count, ok := foamfile.ParseCount(text); ok {
			return listHead{line: n, count: count}, nil
		}
		list, ok, err := foamfile.ParseInlineList(text)
		if err != nil {
			return listHead{}, errors.Wrapf(err, "%s line %d", m.c.Name, n+1)
		}
		if ok {
			return listHead{line: n, count: list.Count, inline: &list}, nil
		}
	}
	return listHead{}, &foamfile.SyntaxError{Line: -1, Msg: "no list found in " + m.c.Name}
}

// rows returns the ASCII data lines of a list, which start two lines after
// its count
func (m *meshFile) rows(h listHead) ([][]byte, error) {
	first := h.line + 2
	if h.count > m.c.Len()-first {
		return nil, &foamfile.TruncatedError{Want: h.count, Got: max(m.c.Len()-first, 0)}
	}
	return m.c.Lines[first : first+h.count], nil
}

// payload returns the bytes of a binary list, starting at its framing byte
func (m *meshFile) payload(h listHead) []byte {
	return m.c.Data[m.c.Offset(h.line+1):]
}

func (m *meshFile) points() ([]r3.Vec, error) {
	h, err := m.findList(m.from)
	if err != nil {
		return nil, err
	}
	var data []float64
	switch {
	case h.inline != nil:
		data, err = h.inline.Floats(3)
	case m.format == foamfile.Binary:
		data, err = foamfile.DecodeBinaryBlock(m.payload(h), h.count, 3, m.layout)
	default:
		var rows [][]byte
		if rows, err = m.rows(h); err == nil {
			data, err = foamfile.DecodeASCIIRows(rows, 3)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "points in %s", m.c.Name)
	}
	pts := make([]r3.Vec, h.count)
	for i := range pts {
		pts[i] = r3.Vec{X: data[3*i], Y: data[3*i+1], Z: data[3*i+2]}
	}
	return pts, nil
}

// labels decodes an owner or neighbour list
func (m *meshFile) labels() ([]int, error) {
	h, err := m.findList(m.from)
	if err != nil {
		return nil, err
	}
	out, _, err := m.labelList(h)
	if err != nil {
		return nil, errors.Wrapf(err, "labels in %s", m.c.Name)
	}
	return out, nil
}

// labelList decodes a flat list of labels and returns the byte offset just
// past its data
func (m *meshFile) labelList(h listHead) ([]int, int, error) {
	switch {
	case h.inline != nil:
		items, err := h.inline.Labels()
		if err != nil {
			return nil, 0, err
		}
		out := make([]int, len(items))
		for i, item := range items {
			if len(item) != 1 {
				return nil, 0, &foamfile.SyntaxError{Line: h.line, Msg: "nested list where a label was expected"}
			}
			out[i] = item[0]
		}
		return out, m.c.Offset(h.line + 1), nil
	case m.format == foamfile.Binary:
		start := m.c.Offset(h.line + 1)
		out, err := foamfile.DecodeBinaryLabels(m.payload(h), h.count, m.layout)
		return out, start + foamfile.BinaryBlockSize(h.count, 1, m.layout.LabelSize), err
	}
	rows, err := m.rows(h)
	if err != nil {
		return nil, 0, err
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		v, err := strconv.Atoi(string(bytes.TrimSpace(row)))
		if err != nil {
			return nil, 0, &foamfile.SyntaxError{Line: h.line + 2 + i, Msg: err.Error()}
		}
		out[i] = v
	}
	return out, m.c.Offset(h.line + 2 + h.count), nil
}

// faces decodes a faceList (one "k(a b c ...)" row per face) or a
// faceCompactList (an offsets list of nFaces+1 entries followed by the
// concatenated vertex list). Binary files always use the compact form.
func (m *meshFile) faces() ([][]int, error) {
	h, err := m.findList(m.from)
	if err != nil {
		return nil, err
	}
	if m.format == foamfile.Binary || m.header.Class == "faceCompactList" {
		faces, err := m.compactFaces(h)
		return faces, errors.Wrapf(err, "faces in %s", m.c.Name)
	}

	if h.inline != nil {
		faces, err := h.inline.Labels()
		return faces, errors.Wrapf(err, "faces in %s", m.c.Name)
	}
	rows, err := m.rows(h)
	if err != nil {
		return nil, errors.Wrapf(err, "faces in %s", m.c.Name)
	}
	faces := make([][]int, len(rows))
	for i, row := range rows {
		list, ok, err := foamfile.ParseInlineList(bytes.TrimSpace(row))
		if !ok && err == nil {
			err = &foamfile.SyntaxError{Line: h.line + 2 + i, Msg: "face row is not a list"}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "faces in %s", m.c.Name)
		}
		items, err := list.Labels()
		if err != nil {
			return nil, errors.Wrapf(err, "faces in %s line %d", m.c.Name, h.line+3+i)
		}
		face := make([]int, len(items))
		for k, item := range items {
			face[k] = item[0]
		}
		faces[i] = face
	}
	return faces, nil
}

func (m *meshFile) compactFaces(h listHead) ([][]int, error) {
	offsets, end, err := m.labelList(h)
	if err != nil {
		return nil, err
	}

	var verts []int
	if m.format == foamfile.Binary {
		verts, err = m.binaryListAt(end)
	} else {
		var h2 listHead
		h2, err = m.findList(m.c.LineAt(end))
		if err == nil {
			verts, _, err = m.labelList(h2)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(offsets) == 0 {
		return [][]int{}, nil
	}
	faces := make([][]int, len(offsets)-1)
	for k := range faces {
		lo, hi := offsets[k], offsets[k+1]
		if lo < 0 || hi < lo || hi > len(verts) {
			return nil, &foamfile.SyntaxError{Line: -1,
				Msg: "face " + strconv.Itoa(k) + " offsets out of range"}
		}
		faces[k] = verts[lo:hi]
	}
	return faces, nil
}

// binaryListAt decodes the binary label list that follows the end of a
// previous one at byte offset off: ")", whitespace, the count, whitespace,
// then "(" and the packed labels.
func (m *meshFile) binaryListAt(off int) ([]int, error) {
	data := m.c.Data
	pos := off
	if pos < len(data) && data[pos] == ')' {
		pos++
	}
	pos = skipSpace(data, pos)
	start := pos
	for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
		pos++
	}
	count, err := strconv.Atoi(string(data[start:pos]))
	if err != nil {
		return nil, &foamfile.SyntaxError{Line: m.c.LineAt(start), Msg: "expected count of second face list"}
	}
	pos = skipSpace(data, pos)
	if pos >= len(data) || data[pos] != '(' {
		return nil, &foamfile.SyntaxError{Line: m.c.LineAt(pos), Msg: "expected '(' before face vertices"}
	}
	return foamfile.DecodeBinaryLabels(data[pos:], count, m.layout)
}

func skipSpace(data []byte, pos int) int {
	for pos < len(data) && (data[pos] == ' ' || data[pos] == '\n' || data[pos] == '\r' || data[pos] == '\t') {
		pos++
	}
	return pos
}
