package field

import (
	"github.com/notargets/foamcase/foamfile"
	"github.com/pkg/errors"
)

type block struct {
	values foamfile.Array
	count  int
	next   int // first line after the block
}

// nonuniform decodes the list declared on line n. The data may extend to
// line end at most.
//
// ASCII layout:             binary layout:
//
//	name nonuniform List<T>   name nonuniform List<T>
//	count                     count
//	(                         (<count*width packed numbers>)
//	row...                    ;
//	)
//	;
func (d *decoder) nonuniform(n, end int) (block, error) {
	decl := d.c.Text(n)
	kind := foamfile.KindFromDeclaration(decl)
	width := kind.Width()

	list, ok, err := foamfile.ParseInlineList(decl)
	if err != nil {
		return block{}, errors.Wrapf(err, "line %d", n+1)
	}
	if ok {
		data, err := list.Floats(width)
		if err != nil {
			return block{}, errors.Wrapf(err, "line %d", n+1)
		}
		return block{values: foamfile.Array{Kind: kind, Data: data}, count: list.Count, next: n + 1}, nil
	}

	count, ok := foamfile.ParseCount(d.c.Text(n + 1))
	if !ok {
		return block{}, &foamfile.SyntaxError{Line: n + 1, Msg: "expected element count"}
	}

	if d.format == foamfile.ASCII {
		first := n + 3
		if count > end+1-first {
			return block{}, &foamfile.TruncatedError{Want: count, Got: max(end+1-first, 0)}
		}
		data, err := foamfile.DecodeASCIIRows(d.c.Lines[first:first+count], width)
		if err != nil {
			return block{}, errors.Wrapf(err, "rows from line %d", first+1)
		}
		return block{values: foamfile.Array{Kind: kind, Data: data}, count: count, next: n + count + 4}, nil
	}

	payload := d.c.Span(n+2, end)
	data, err := foamfile.DecodeBinaryBlock(payload, count, width, d.layout)
	if err != nil {
		return block{}, errors.Wrapf(err, "binary block from line %d", n+3)
	}
	return block{
		values: foamfile.Array{Kind: kind, Data: data},
		count:  count,
		next:   d.payloadEnd(n, count, width) + 1,
	}, nil
}

// payloadEnd returns the line holding the last byte of the binary payload
// declared on line n, or the last line when the payload overruns the file
func (d *decoder) payloadEnd(n, count, width int) int {
	start := d.c.Offset(n + 2)
	if !foamfile.BinaryBlockFits(len(d.c.Data)-start, count, width, d.layout.ScalarSize) {
		return d.c.Len() - 1
	}
	return d.c.LineAt(start + foamfile.BinaryBlockSize(count, width, d.layout.ScalarSize))
}

// binaryLines reports how many lines a binary list declared on line n
// spans, so that block scanning does not read braces out of packed data
func (d *decoder) binaryLines(n int) int {
	decl := d.c.Text(n)
	if formToken(decl) != "nonuniform" {
		return 0
	}
	if _, ok, _ := foamfile.ParseInlineList(decl); ok {
		return 0
	}
	count, ok := foamfile.ParseCount(d.c.Text(n + 1))
	if !ok {
		return 0
	}
	width := foamfile.KindFromDeclaration(decl).Width()
	return d.payloadEnd(n, count, width) + 1 - n
}
