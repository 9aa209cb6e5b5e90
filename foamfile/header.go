package foamfile

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Header holds the FoamFile dictionary that precedes a file's data
type Header struct {
	Version  string
	Format   string
	Class    string
	Location string
	Object   string
	Arch     string
	Note     string

	Start, End int // lines of the FoamFile keyword and its closing brace, -1 when absent
}

// ParseHeader reads the FoamFile dictionary. A file without one yields a
// Header with Start and End set to -1.
func ParseHeader(c *Content) Header {
	hd := Header{Start: -1, End: -1}
	r := NewLineReader(c)
	for !r.EOF() && !isKeywordLine(r.Peek(), "FoamFile") {
		r.Advance(1)
	}
	if r.EOF() {
		return hd
	}
	start := r.Pos()
	if _, ok := r.OpenScope('{'); !ok {
		return hd
	}
	for ; !r.EOF(); r.Advance(1) {
		line := r.Peek()
		if len(line) > 0 && line[0] == '}' {
			hd.Start, hd.End = start, r.Pos()
			return hd
		}
		key, val := splitEntry(line)
		switch key {
		case "version":
			hd.Version = val
		case "format":
			hd.Format = val
		case "class":
			hd.Class = val
		case "location":
			hd.Location = val
		case "object":
			hd.Object = val
		case "arch":
			hd.Arch = val
		case "note":
			hd.Note = val
		}
	}
	return hd
}

// splitEntry splits "key value;" into its key and unquoted value
func splitEntry(line []byte) (key, val string) {
	line = bytes.TrimSpace(line)
	i := bytes.IndexAny(line, " \t")
	if i < 0 {
		return strings.TrimSuffix(string(line), ";"), ""
	}
	key = string(line[:i])
	val = strings.TrimSpace(string(line[i:]))
	val = strings.TrimSuffix(val, ";")
	val = strings.Trim(strings.TrimSpace(val), `"`)
	return key, val
}

// Layout describes how numbers are packed in a binary data section
type Layout struct {
	Order      binary.ByteOrder
	LabelSize  int // bytes per integer label, 4 or 8
	ScalarSize int // bytes per floating point scalar, 4 or 8
}

// DefaultLayout is native byte order, 32 bit labels and 64 bit scalars
var DefaultLayout = Layout{
	Order:      binary.NativeEndian,
	LabelSize:  4,
	ScalarSize: 8,
}

// Layout decodes the arch entry, e.g. "LSB;label=32;scalar=64". Missing
// parts keep their DefaultLayout values.
func (hd Header) Layout() Layout {
	lay := DefaultLayout
	for _, part := range strings.Split(hd.Arch, ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "LSB":
			lay.Order = binary.LittleEndian
		case part == "MSB":
			lay.Order = binary.BigEndian
		case part == "label=64":
			lay.LabelSize = 8
		case part == "label=32":
			lay.LabelSize = 4
		case part == "scalar=32":
			lay.ScalarSize = 4
		case part == "scalar=64":
			lay.ScalarSize = 8
		}
	}
	return lay
}

// DataStart returns the first line after the header, or fallback when the
// file has no FoamFile dictionary
func (hd Header) DataStart(fallback int) int {
	if hd.End < 0 {
		return fallback
	}
	return hd.End + 1
}
