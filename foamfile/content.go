package foamfile

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

// Content is a whole case file held in memory. Lines keep their trailing
// newline and share storage with Data, so a run of lines is also a
// contiguous byte range, which is what the binary decoders need.
type Content struct {
	Name    string
	Data    []byte
	Lines   [][]byte
	offsets []int
}

// NewContent splits data into lines
func NewContent(name string, data []byte) *Content {
	c := &Content{Name: name, Data: data}
	start := 0
	for start < len(data) {
		end := bytes.IndexByte(data[start:], '\n')
		if end < 0 {
			end = len(data)
		} else {
			end += start + 1
		}
		c.Lines = append(c.Lines, data[start:end])
		c.offsets = append(c.offsets, start)
		start = end
	}
	return c
}

// ReadFile loads a case file fully into memory. When path does not exist
// but a compressed sibling (path.gz or path.zst) does, the sibling is read
// and decompressed instead.
func ReadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		data, err = decompress(path, data)
		if err != nil {
			return nil, err
		}
		return NewContent(path, data), nil
	}
	if !os.IsNotExist(err) {
		return nil, &MissingFileError{Path: path, Err: err}
	}
	for _, ext := range []string{".gz", ".zst"} {
		raw, cerr := os.ReadFile(path + ext)
		if cerr != nil {
			continue
		}
		data, cerr = decompress(path+ext, raw)
		if cerr != nil {
			return nil, cerr
		}
		return NewContent(path+ext, data), nil
	}
	return nil, &MissingFileError{Path: path, Err: err}
}

func decompress(path string, raw []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "gzip header of %s", path)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, errors.Wrapf(err, "gunzip %s", path)
		}
		return data, nil
	case strings.HasSuffix(path, ".zst"):
		data, err := zstd.Decompress(nil, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "zstd decompress %s", path)
		}
		return data, nil
	}
	return raw, nil
}

// Len returns the number of lines
func (c *Content) Len() int { return len(c.Lines) }

// Text returns line i with surrounding whitespace removed
func (c *Content) Text(i int) []byte {
	if i < 0 || i >= len(c.Lines) {
		return nil
	}
	return bytes.TrimSpace(c.Lines[i])
}

// Offset returns the byte offset at which line i starts, or len(Data) past
// the last line
func (c *Content) Offset(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(c.offsets) {
		return len(c.Data)
	}
	return c.offsets[i]
}

// LineAt returns the index of the line holding byte offset off
func (c *Content) LineAt(off int) int {
	if off >= len(c.Data) {
		return len(c.Lines)
	}
	return sort.SearchInts(c.offsets, off+1) - 1
}

// Span returns the bytes of lines first through last inclusive
func (c *Content) Span(first, last int) []byte {
	return c.Data[c.Offset(first):c.Offset(last+1)]
}

// Format is the encoding of a file's data section
type Format uint8

const (
	ASCII Format = iota
	Binary
)

func (f Format) String() string {
	if f == Binary {
		return "binary"
	}
	return "ascii"
}

// DetectFormat looks for the format declaration in the first window lines.
// A file without one is taken to be ASCII.
func DetectFormat(lines [][]byte, window int) Format {
	if window > len(lines) {
		window = len(lines)
	}
	for _, line := range lines[:window] {
		if bytes.Contains(line, []byte("format")) {
			if bytes.Contains(line, []byte("binary")) {
				return Binary
			}
			return ASCII
		}
	}
	return ASCII
}

// Options tune the tolerant parts of the decoders
type Options struct {
	HeaderWindow int // lines searched for the format declaration
	SkipLines    int // header lines skipped by list decoders when no FoamFile block is found
}

var DefaultOptions = Options{
	HeaderWindow: 20,
	SkipLines:    10,
}

type Option func(*Options)

func WithHeaderWindow(n int) Option {
	return func(o *Options) { o.HeaderWindow = n }
}

func WithSkipLines(n int) Option {
	return func(o *Options) { o.SkipLines = n }
}

// NewOptions applies opts over DefaultOptions
func NewOptions(opts ...Option) Options {
	o := DefaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
