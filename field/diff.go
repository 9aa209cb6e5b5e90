package field

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Diff subtracts the internal field of a from that of b, b - a. With
// percentage set each difference is divided by the value in a and scaled
// by 100; a zero in a gives 0, an infinite ratio is clamped to
// ±math.MaxFloat64 and NaN becomes 0.
//
// Both fields must be nonuniform with the same kind and count, otherwise a
// *foamfile.ShapeMismatchError is returned. Where the data sits in each
// file does not matter.
func Diff(a, b *Field, percentage bool) (foamfile.Array, error) {
	ia, ib := a.Internal, b.Internal
	if ia.Form != foamfile.Nonuniform || ib.Form != foamfile.Nonuniform ||
		ia.Values.Kind != ib.Values.Kind || ia.Count != ib.Count {
		return foamfile.Array{}, &foamfile.ShapeMismatchError{
			CountA: ia.Count, CountB: ib.Count,
			KindA: ia.Values.Kind, KindB: ib.Values.Kind,
		}
	}
	if ia.Line != ib.Line || ia.Next != ib.Next {
		log.Debug().Str(logging.File, a.Content.Name).Int(logging.Line, ia.Line+1).
			Str("other", b.Content.Name).Int("other_line", ib.Line+1).
			Msg("field data starts at different lines")
	}

	out := make([]float64, len(ia.Values.Data))
	floats.SubTo(out, ib.Values.Data, ia.Values.Data)
	if percentage {
		for i, base := range ia.Values.Data {
			if base == 0 {
				out[i] = 0
				continue
			}
			out[i] = out[i] / base * 100
			switch {
			case math.IsNaN(out[i]):
				out[i] = 0
			case math.IsInf(out[i], 1):
				out[i] = math.MaxFloat64
			case math.IsInf(out[i], -1):
				out[i] = -math.MaxFloat64
			}
		}
	}
	return foamfile.Array{Kind: ia.Values.Kind, Data: out}, nil
}

// WriteDiff writes diff in the layout of src: src's lines up to and
// including the opening parenthesis of the internal field, one row per
// value, then src's remaining lines without the last one. Only ASCII
// sources can serve as a template.
func WriteDiff(w io.Writer, src *Field, diff foamfile.Array) error {
	if src.Format != foamfile.ASCII {
		return fmt.Errorf("cannot write diff using binary file %s as template", src.Content.Name)
	}
	in := src.Internal
	if in.Form != foamfile.Nonuniform || in.Next != in.Line+in.Count+4 {
		return fmt.Errorf("%s has no multi-line nonuniform internalField", src.Content.Name)
	}
	if diff.Len() != in.Count {
		return &foamfile.ShapeMismatchError{CountA: in.Count, CountB: diff.Len(),
			KindA: in.Values.Kind, KindB: diff.Kind}
	}

	bw := bufio.NewWriter(w)
	lines := src.Content.Lines
	for _, line := range lines[:in.Line+3] {
		bw.Write(line)
	}
	for i := 0; i < diff.Len(); i++ {
		row := diff.Row(i)
		if diff.Kind == foamfile.Scalar {
			bw.WriteString(strconv.FormatFloat(row[0], 'g', -1, 64))
		} else {
			bw.WriteByte('(')
			for k, v := range row {
				if k > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
			bw.WriteByte(')')
		}
		bw.WriteByte('\n')
	}
	tail := in.Line + 3 + in.Count
	if tail < len(lines)-1 {
		for _, line := range lines[tail : len(lines)-1] {
			bw.Write(line)
		}
	}
	return bw.Flush()
}

// DiffFiles diffs file2 against file1 and writes the result next to file1
// as "<name of file2>_diff". The path written is returned.
func DiffFiles(file1, file2 string, percentage bool, opts ...foamfile.Option) (string, error) {
	log.Info().Str(logging.File, file1).Str("other", file2).Bool("percentage", percentage).Msg("diffing fields")
	a, err := ReadFile(file1, opts...)
	if err != nil {
		return "", err
	}
	b, err := ReadFile(file2, opts...)
	if err != nil {
		return "", err
	}
	diff, err := Diff(a, b, percentage)
	if err != nil {
		return "", errors.Wrapf(err, "cannot diff %s and %s", file1, file2)
	}

	out := filepath.Join(filepath.Dir(file1), filepath.Base(file2)+"_diff")
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := WriteDiff(f, a, diff); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	log.Info().Str(logging.File, out).Int(logging.Count, diff.Len()).Msg("diff written")
	return out, nil
}
