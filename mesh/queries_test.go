package mesh

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/notargets/foamcase/foamfile"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoundaryQueries(t *testing.T) {
	m := chainMesh(t)

	t.Run("IsFaceOnBoundary", func(t *testing.T) {
		assert.False(t, m.IsFaceOnBoundary(9))
		assert.True(t, m.IsFaceOnBoundary(10))
		assert.True(t, m.IsFaceOnBoundary(12, "inlet"))
		assert.False(t, m.IsFaceOnBoundary(12, "outlet"))
		assert.True(t, m.IsFaceOnBoundary(15, "outlet"))
		assert.False(t, m.IsFaceOnBoundary(15, "nope"))
		assert.False(t, m.IsFaceOnBoundary(-1))
		assert.False(t, m.IsFaceOnBoundary(20))
	})

	t.Run("IsCellOnBoundary", func(t *testing.T) {
		assert.True(t, m.IsCellOnBoundary(10))
		assert.True(t, m.IsCellOnBoundary(5, "inlet"))
		assert.False(t, m.IsCellOnBoundary(5, "outlet"))
		assert.True(t, m.IsCellOnBoundary(6, "outlet"))
		// cell 0 only has its internal face
		assert.False(t, m.IsCellOnBoundary(0))
		assert.False(t, m.IsCellOnBoundary(11))
	})

	t.Run("BoundaryCells", func(t *testing.T) {
		seq := m.BoundaryCells("outlet")
		assert.Equal(t, []int{6, 7, 8, 9, 10}, slices.Collect(seq))
		assert.Equal(t, m.Owner[15:20], slices.Collect(seq))
		// restartable
		assert.Equal(t, []int{6, 7, 8, 9, 10}, slices.Collect(seq))
		assert.Empty(t, slices.Collect(m.BoundaryCells("nope")))

		var first []int
		for c := range m.BoundaryCells("inlet") {
			first = append(first, c)
			if len(first) == 2 {
				break
			}
		}
		assert.Equal(t, []int{1, 2}, first)
	})

	t.Run("CellNeighbourCells", func(t *testing.T) {
		assert.Equal(t, []int{1}, m.CellNeighbourCells(0))
		assert.Equal(t, []int{4, 6}, m.CellNeighbourCells(5))
		assert.Equal(t, []int{9}, m.CellNeighbourCells(10))
		assert.Equal(t, []int{9, FirstPatchID - 1}, m.CellNeighbours[10])
		assert.Nil(t, m.CellNeighbourCells(-1))
	})

	t.Run("Patch", func(t *testing.T) {
		p, ok := m.Patch("inlet")
		require.True(t, ok)
		assert.Equal(t, 15, p.EndFace())
		assert.True(t, p.Contains(14))
		assert.False(t, p.Contains(15))
		_, ok = m.Patch("nope")
		assert.False(t, ok)
	})
}

func TestFaceGeometry(t *testing.T) {
	m := twoCellMesh(t)

	assert.Equal(t, r3.Vec{X: 1}, m.FaceAreaVector(0))
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r3.Vec{X: 1, Y: 0.5, Z: 0.5}, m.FaceCentre(0))), 1e-12)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r3.Vec{X: 2, Y: 0.5, Z: 0.5}, m.FaceCentre(2))), 1e-12)

	for f, a := range m.FaceAreaMagnitudes() {
		assert.InDelta(t, 1.0, a, 1e-12, "face %d", f)
	}

	// the outward normals of a closed cell sum to zero
	for c, faces := range m.CellFaces {
		var sum r3.Vec
		for _, f := range faces {
			s := m.FaceAreaVector(f)
			if m.Owner[f] != c {
				s = r3.Scale(-1, s)
			}
			sum = r3.Add(sum, s)
		}
		assert.InDelta(t, 0, r3.Norm(sum), 1e-12, "cell %d", c)
	}

	t.Run("Degenerate", func(t *testing.T) {
		m, err := Build([]r3.Vec{{}, {X: 2}}, [][]int{{0, 1}}, []int{0}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, r3.Vec{}, m.FaceAreaVector(0))
		assert.Equal(t, r3.Vec{X: 1}, m.FaceCentre(0))
	})

	t.Run("UnknownFace", func(t *testing.T) {
		for _, f := range []int{-1, m.NumFaces, UnpatchedFace, FirstPatchID} {
			assert.Equal(t, r3.Vec{}, m.FaceAreaVector(f), "face %d", f)
			assert.Equal(t, r3.Vec{}, m.FaceCentre(f), "face %d", f)
		}
	})
}

func fieldFile(class, object, internal string) string {
	return meshHeader("ascii", class, object) +
		"dimensions      [0 1 0 0 0 0 0];\n\n" + internal + "\n\nboundaryField\n{\n}\n" + meshFooter
}

func TestGeometryFields(t *testing.T) {
	m := twoCellMesh(t)
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	c := write("C", fieldFile("volVectorField", "C",
		"internalField   nonuniform List<vector> \n2\n(\n(0.5 0.5 0.5)\n(1.5 0.5 0.5)\n)\n;"))
	require.NoError(t, m.ReadCellCentres(c))
	assert.Equal(t, []r3.Vec{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 1.5, Y: 0.5, Z: 0.5}}, m.CellCentres)

	v := write("V", fieldFile("volScalarField::Internal", "V", "internalField   uniform 1;"))
	require.NoError(t, m.ReadCellVolumes(v))
	assert.Equal(t, []float64{1, 1}, m.CellVolumes)

	areas := make([]float64, 0, 11)
	for range 11 {
		areas = append(areas, 2)
	}
	sf := write("magSf", fieldFile("surfaceScalarField", "magSf",
		"internalField   nonuniform List<scalar> 11{2};"))
	require.NoError(t, m.ReadFaceAreas(sf))
	assert.Equal(t, areas, m.FaceAreaMagnitudes())

	t.Run("WrongCount", func(t *testing.T) {
		bad := write("V3", fieldFile("volScalarField", "V", "internalField   nonuniform List<scalar> 3(1 1 1);"))
		err := m.ReadCellVolumes(bad)
		var shape *foamfile.ShapeMismatchError
		require.True(t, errors.As(err, &shape), "got %v", err)
		assert.Equal(t, 2, shape.CountA)
		assert.Equal(t, 3, shape.CountB)
	})

	t.Run("WrongKind", func(t *testing.T) {
		err := m.ReadCellCentres(v)
		var shape *foamfile.ShapeMismatchError
		assert.True(t, errors.As(err, &shape), "got %v", err)
	})

	t.Run("NoInternalField", func(t *testing.T) {
		empty := write("empty", meshHeader("ascii", "volScalarField", "x")+meshFooter)
		assert.Error(t, m.ReadCellVolumes(empty))
	})

	t.Run("InternalFaceAreas", func(t *testing.T) {
		m := twoCellMesh(t)
		inner := write("magSfInner", fieldFile("surfaceScalarField", "magSf",
			"internalField   nonuniform List<scalar> 1(4);"))
		require.NoError(t, m.ReadFaceAreas(inner))

		mags := m.FaceAreaMagnitudes()
		require.Len(t, mags, m.NumFaces)
		assert.Equal(t, 4.0, mags[0])
		for f := 1; f < m.NumFaces; f++ {
			assert.InDelta(t, 1.0, mags[f], 1e-12, "face %d", f)
		}

		got, err := m.PhaseSurfaceArea([]float64{1, 0}, nil, 1)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, got, 1e-12)
	})

	t.Run("UniformFaceAreaVector", func(t *testing.T) {
		m := twoCellMesh(t)
		sf := write("Sf", fieldFile("surfaceVectorField", "Sf", "internalField   uniform (0 0 3);"))
		require.NoError(t, m.ReadFaceAreas(sf))
		for f, a := range m.FaceAreaMagnitudes() {
			assert.InDelta(t, 3.0, a, 1e-12, "face %d", f)
		}
	})

	t.Run("FaceAreaCount", func(t *testing.T) {
		m := twoCellMesh(t)
		bad := write("magSf3", fieldFile("surfaceScalarField", "magSf",
			"internalField   nonuniform List<scalar> 3(1 1 1);"))
		err := m.ReadFaceAreas(bad)
		var shape *foamfile.ShapeMismatchError
		require.True(t, errors.As(err, &shape), "got %v", err)
		assert.Equal(t, m.NumFaces, shape.CountA)
		assert.Equal(t, 3, shape.CountB)
		assert.Zero(t, m.FaceAreas.Len())

		tensor := write("T", fieldFile("surfaceTensorField", "T",
			"internalField   nonuniform List<tensor> 1((1 0 0 0 1 0 0 0 1));"))
		assert.True(t, errors.As(m.ReadFaceAreas(tensor), &shape))
	})
}

func TestPhaseSurfaceArea(t *testing.T) {
	m := twoCellMesh(t)

	got, err := m.PhaseSurfaceArea([]float64{1, 0}, nil, DefaultSurfaceExponent)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = m.PhaseSurfaceArea([]float64{0.75, 0.25}, nil, DefaultSurfaceExponent)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(0.5, 1.5), got, 1e-12)

	got, err = m.PhaseSurfaceArea([]float64{0.75, 0.25}, []float64{3}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-12)

	// boundary faces do not count
	got, err = m.PhaseSurfaceArea([]float64{0.5, 0.5}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = m.PhaseSurfaceArea([]float64{1}, nil, 1.5)
	assert.Error(t, err)

	c := chainMesh(t)
	_, err = c.PhaseSurfaceArea(make([]float64, 11), []float64{1, 1}, 1.5)
	assert.Error(t, err)

	t.Run("UnitAreaWithoutFaceAreas", func(t *testing.T) {
		points := make([]r3.Vec, len(twoCellPoints))
		for i, p := range twoCellPoints {
			points[i] = r3.Scale(2, p)
		}
		big, err := Build(points, twoCellFaces, twoCellOwner, twoCellNeighbour, twoCellPatches)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, big.FaceAreaMagnitudes()[0], 1e-12)

		got, err := big.PhaseSurfaceArea([]float64{1, 0}, nil, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-12)
	})
}
