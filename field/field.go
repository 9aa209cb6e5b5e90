package field

import (
	"bytes"

	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// InternalField is the decoded internalField section
type InternalField struct {
	foamfile.Data
	Line  int // line declaring the field, -1 when absent
	End   int // last line the data block may extend to
	Count int // declared number of values, 1 for a uniform field
	Next  int // first line after the data block
}

// Patch holds the decoded attributes of one boundaryField entry
type Patch struct {
	Name       string
	Attributes map[string]foamfile.Data
	Order      []string // attribute names in declaration order
	First      int      // body line range
	Last       int
}

// BoundaryField is the list of patches in declaration order
type BoundaryField []Patch

// Lookup finds a patch by name
func (bf BoundaryField) Lookup(name string) (Patch, bool) {
	for _, p := range bf {
		if p.Name == name {
			return p, true
		}
	}
	return Patch{}, false
}

// Field is a fully decoded field file
type Field struct {
	Content  *foamfile.Content
	Header   foamfile.Header
	Format   foamfile.Format
	Internal InternalField
	Boundary BoundaryField
}

// ReadFile loads and decodes a field file
func ReadFile(path string, opts ...foamfile.Option) (*Field, error) {
	c, err := foamfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(c, opts...)
}

// ReadInternalField loads a file and decodes only its internalField
func ReadInternalField(path string, opts ...foamfile.Option) (InternalField, error) {
	c, err := foamfile.ReadFile(path)
	if err != nil {
		return InternalField{}, err
	}
	return DecodeInternalField(c, opts...)
}

// Parse decodes the header, internalField and boundaryField of c
func Parse(c *foamfile.Content, opts ...foamfile.Option) (*Field, error) {
	d := newDecoder(c, opts...)
	internal, err := d.internalField()
	if err != nil {
		return nil, errors.Wrapf(err, "internalField of %s", c.Name)
	}
	boundary, err := d.boundaryField(internal.Next)
	if err != nil {
		return nil, errors.Wrapf(err, "boundaryField of %s", c.Name)
	}
	return &Field{
		Content:  c,
		Header:   d.header,
		Format:   d.format,
		Internal: internal,
		Boundary: boundary,
	}, nil
}

// DecodeInternalField decodes the internalField section of c. A file with
// no internalField, or one that is neither uniform nor nonuniform, yields
// Form Absent.
func DecodeInternalField(c *foamfile.Content, opts ...foamfile.Option) (InternalField, error) {
	return newDecoder(c, opts...).internalField()
}

// DecodeBoundaryField decodes every patch of the boundaryField section. A
// malformed section is logged and the patches found before the fault are
// returned.
func DecodeBoundaryField(c *foamfile.Content, opts ...foamfile.Option) (BoundaryField, error) {
	return newDecoder(c, opts...).boundaryField(0)
}

type decoder struct {
	c      *foamfile.Content
	header foamfile.Header
	format foamfile.Format
	layout foamfile.Layout
}

func newDecoder(c *foamfile.Content, opts ...foamfile.Option) *decoder {
	o := foamfile.NewOptions(opts...)
	hd := foamfile.ParseHeader(c)
	return &decoder{
		c:      c,
		header: hd,
		format: foamfile.DetectFormat(c.Lines, o.HeaderWindow),
		layout: hd.Layout(),
	}
}

func (d *decoder) internalField() (InternalField, error) {
	f := InternalField{Line: -1, End: d.c.Len() - 1, Next: d.header.DataStart(0)}
	for n := 0; n < d.c.Len(); n++ {
		line := d.c.Text(n)
		if !bytes.HasPrefix(line, []byte("internalField")) {
			continue
		}
		f.Line = n
		switch formToken(line) {
		case "nonuniform":
			block, err := d.nonuniform(n, f.End)
			if err != nil {
				return f, err
			}
			f.Form, f.Values, f.Count, f.Next = foamfile.Nonuniform, block.values, block.count, block.next
		case "uniform":
			v, err := foamfile.DecodeUniform(line)
			if err != nil {
				return f, errors.Wrapf(err, "line %d", n+1)
			}
			f.Form, f.Uniform, f.Count, f.Next = foamfile.Uniform, v, 1, n+1
		default:
			f.Next = n + 1
		}
		return f, nil
	}
	return f, nil
}

func (d *decoder) boundaryField(from int) (BoundaryField, error) {
	scope := foamfile.BoundaryFieldScope
	if d.format == foamfile.Binary {
		scope.Skip = d.binaryLines
	}
	blocks, diag := foamfile.ScanBlocks(d.c, scope, from)
	if diag != nil {
		log.Warn().Str(logging.File, d.c.Name).Str(logging.Section, "boundaryField").
			Int(logging.Count, len(blocks)).Msg(diag.Error())
	}

	bf := make(BoundaryField, 0, len(blocks))
	for _, b := range blocks {
		p := Patch{Name: b.Name, Attributes: map[string]foamfile.Data{}, First: b.First, Last: b.Last}
		for n := b.First; n <= b.Last; {
			line := d.c.Text(n)
			switch formToken(line) {
			case "nonuniform":
				block, err := d.nonuniform(n, b.Last)
				if err != nil {
					return bf, errors.Wrapf(err, "patch %s", b.Name)
				}
				p.set(attributeName(line), foamfile.Data{Form: foamfile.Nonuniform, Values: block.values})
				n = block.next
				continue
			case "uniform":
				v, err := foamfile.DecodeUniform(line)
				if err != nil {
					return bf, errors.Wrapf(err, "patch %s line %d", b.Name, n+1)
				}
				p.set(attributeName(line), foamfile.Data{Form: foamfile.Uniform, Uniform: v})
			}
			n++
		}
		bf = append(bf, p)
	}
	return bf, nil
}

func (p *Patch) set(name string, data foamfile.Data) {
	if _, ok := p.Attributes[name]; !ok {
		p.Order = append(p.Order, name)
	}
	p.Attributes[name] = data
}

// formToken returns the second token of an entry line, which is where
// "uniform" or "nonuniform" sits
func formToken(line []byte) string {
	fields := bytes.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return string(fields[1])
}

func attributeName(line []byte) string {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return string(fields[0])
}
