package field

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/foamcase/foamfile"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarField(values ...float64) *Field {
	return &Field{
		Content: foamfile.NewContent("mem", nil),
		Internal: InternalField{
			Data: foamfile.Data{
				Form:   foamfile.Nonuniform,
				Values: foamfile.Array{Kind: foamfile.Scalar, Data: values},
			},
			Count: len(values),
		},
	}
}

func TestDiff(t *testing.T) {
	a := scalarField(1, 2, 4)
	b := scalarField(1.5, 2, 3)

	t.Run("Absolute", func(t *testing.T) {
		d, err := Diff(a, b, false)
		require.NoError(t, err)
		assert.Equal(t, foamfile.Scalar, d.Kind)
		assert.InDeltaSlicef(t, []float64{0.5, 0, -1}, d.Data, 1e-15, "b - a")
	})

	t.Run("Percentage", func(t *testing.T) {
		d, err := Diff(a, b, true)
		require.NoError(t, err)
		assert.InDeltaSlicef(t, []float64{50, 0, -25}, d.Data, 1e-12, "100*(b-a)/a")
	})

	t.Run("Guards", func(t *testing.T) {
		a := scalarField(0, 5e-324, -5e-324, 1)
		b := scalarField(3, 1e300, 1e300, math.NaN())
		d, err := Diff(a, b, true)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, math.MaxFloat64, -math.MaxFloat64, 0}, d.Data)
	})

	t.Run("DoesNotModifyInputs", func(t *testing.T) {
		_, err := Diff(a, b, true)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 4}, a.Internal.Values.Data)
		assert.Equal(t, []float64{1.5, 2, 3}, b.Internal.Values.Data)
	})
}

// Identical files diff to zero everywhere, including where the base value
// is zero
func TestDiffIdenticalPercentage(t *testing.T) {
	src := []byte(velocityFile("ascii", asciiList))
	a, err := Parse(foamfile.NewContent("a", src))
	require.NoError(t, err)
	b, err := Parse(foamfile.NewContent("b", src))
	require.NoError(t, err)

	d, err := Diff(a, b, true)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	for i, v := range d.Data {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d is %v", i, v)
		assert.Equal(t, 0.0, v)
	}
}

func TestDiffShapeMismatch(t *testing.T) {
	u, err := Parse(foamfile.NewContent("U", []byte(velocityFile("ascii", asciiList))))
	require.NoError(t, err)
	p, err := Parse(foamfile.NewContent("p", []byte(scalarFile([]float64{1, 2, 3}))))
	require.NoError(t, err)

	_, err = Diff(u, p, false)
	var shape *foamfile.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, foamfile.Vector, shape.KindA)
	assert.Equal(t, foamfile.Scalar, shape.KindB)

	_, err = Diff(scalarField(1, 2), scalarField(1, 2, 3), false)
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 2, shape.CountA)
	assert.Equal(t, 3, shape.CountB)
}

func TestWriteDiff(t *testing.T) {
	pre := foamHeader("ascii", "volScalarField", "p") +
		"dimensions      [0 2 -2 0 0 0 0];\n\n" +
		"internalField   nonuniform List<scalar> \n3\n(\n"
	post := ")\n;\n\nboundaryField\n{\n}\n"
	last := "// ************************************************************************* //\n"

	src, err := Parse(foamfile.NewContent("p", []byte(pre+"1\n2\n4\n"+post+last)))
	require.NoError(t, err)

	var buf bytes.Buffer
	diff := foamfile.Array{Kind: foamfile.Scalar, Data: []float64{0.5, 0, -1}}
	require.NoError(t, WriteDiff(&buf, src, diff))
	assert.Equal(t, pre+"0.5\n0\n-1\n"+post, buf.String())

	t.Run("Vector", func(t *testing.T) {
		u, err := Parse(foamfile.NewContent("U", []byte(velocityFile("ascii", asciiList))))
		require.NoError(t, err)
		var buf bytes.Buffer
		diff := foamfile.Array{Kind: foamfile.Vector, Data: []float64{1, 2, 3, 0, 0, 0, -1.5, 0, 1e-20}}
		require.NoError(t, WriteDiff(&buf, u, diff))
		assert.Contains(t, buf.String(), "(\n(1 2 3)\n(0 0 0)\n(-1.5 0 1e-20)\n)\n;\n")

		// The output parses back to the diff
		out, err := Parse(foamfile.NewContent("U_diff", buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, diff.Data, out.Internal.Values.Data)
	})

	t.Run("BinaryTemplate", func(t *testing.T) {
		u, err := Parse(foamfile.NewContent("U", []byte(velocityFile("binary", binaryList))))
		require.NoError(t, err)
		assert.Error(t, WriteDiff(&bytes.Buffer{}, u, u.Internal.Values))
	})

	t.Run("CountMismatch", func(t *testing.T) {
		err := WriteDiff(&bytes.Buffer{}, src, foamfile.Array{Kind: foamfile.Scalar, Data: []float64{1}})
		var shape *foamfile.ShapeMismatchError
		assert.True(t, errors.As(err, &shape))
	})
}

func TestDiffFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, dir, "run1/0/p", scalarFile([]float64{1, 2, 4}))
	file2 := writeFile(t, dir, "run2/0/p", scalarFile([]float64{2, 2, 2}))

	out, err := DiffFiles(file1, file2, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run1/0/p_diff"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	diff, err := Parse(foamfile.NewContent(out, data))
	require.NoError(t, err)
	assert.InDeltaSlicef(t, []float64{100, 0, -50}, diff.Internal.Values.Data, 1e-12, "percentage diff")

	_, err = DiffFiles(file1, filepath.Join(dir, "nope"), false)
	var missing *foamfile.MissingFileError
	assert.True(t, errors.As(err, &missing))
}
