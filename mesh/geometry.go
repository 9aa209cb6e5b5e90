package mesh

import (
	"fmt"

	"github.com/notargets/foamcase/field"
	"github.com/notargets/foamcase/foamfile"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadCellCentres loads a cell centre field (such as 0/C) into CellCentres
func (m *PolyMesh) ReadCellCentres(path string, opts ...foamfile.Option) error {
	arr, err := m.readCellField(path, foamfile.Vector, opts...)
	if err != nil {
		return err
	}
	m.CellCentres = make([]r3.Vec, arr.Len())
	for i := range m.CellCentres {
		row := arr.Row(i)
		m.CellCentres[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	return nil
}

// ReadCellVolumes loads a cell volume field (such as 0/V) into CellVolumes
func (m *PolyMesh) ReadCellVolumes(path string, opts ...foamfile.Option) error {
	arr, err := m.readCellField(path, foamfile.Scalar, opts...)
	if err != nil {
		return err
	}
	m.CellVolumes = arr.Data
	return nil
}

// ReadFaceAreas loads a face area field into FaceAreas. Both area vectors
// and magnitudes are accepted, with one value per internal face (as
// written for a surfaceField) or one per face.
func (m *PolyMesh) ReadFaceAreas(path string, opts ...foamfile.Option) error {
	in, err := field.ReadInternalField(path, opts...)
	if err != nil {
		return err
	}
	var arr foamfile.Array
	switch in.Form {
	case foamfile.Nonuniform:
		arr = in.Values
	case foamfile.Uniform:
		arr = broadcast(in.Uniform, m.NumFaces)
	default:
		return fmt.Errorf("%s has no internalField", path)
	}
	kindOK := arr.Kind == foamfile.Scalar || arr.Kind == foamfile.Vector
	if !kindOK || (arr.Len() != m.NumInnerFaces && arr.Len() != m.NumFaces) {
		return errors.Wrap(&foamfile.ShapeMismatchError{
			CountA: m.NumFaces, CountB: arr.Len(), KindA: foamfile.Scalar, KindB: arr.Kind,
		}, path)
	}
	m.FaceAreas = arr
	return nil
}

// readCellField decodes the internal field of path as one value of kind
// per cell. A uniform field is repeated for every cell.
func (m *PolyMesh) readCellField(path string, kind foamfile.Kind, opts ...foamfile.Option) (foamfile.Array, error) {
	in, err := field.ReadInternalField(path, opts...)
	if err != nil {
		return foamfile.Array{}, err
	}
	var arr foamfile.Array
	switch in.Form {
	case foamfile.Nonuniform:
		arr = in.Values
	case foamfile.Uniform:
		arr = broadcast(in.Uniform, m.NumCells)
	default:
		return arr, fmt.Errorf("%s has no internalField", path)
	}
	if arr.Kind != kind || arr.Len() != m.NumCells {
		return arr, errors.Wrap(&foamfile.ShapeMismatchError{
			CountA: m.NumCells, CountB: arr.Len(), KindA: kind, KindB: arr.Kind,
		}, path)
	}
	return arr, nil
}

func broadcast(v foamfile.Value, n int) foamfile.Array {
	comps := v.Components()
	arr := foamfile.Array{Kind: v.Kind(), Data: make([]float64, 0, n*len(comps))}
	for range n {
		arr.Data = append(arr.Data, comps...)
	}
	return arr
}

// FaceAreaVector returns the area-weighted normal of face f, pointing out
// of its owner cell for a face written in OpenFOAM's right-hand order. It
// sums the triangles fanned from the first vertex, which is exact for
// planar faces.
func (m *PolyMesh) FaceAreaVector(f int) r3.Vec {
	var sum r3.Vec
	if f < 0 || f >= len(m.Faces) || len(m.Faces[f]) < 3 {
		return sum
	}
	face := m.Faces[f]
	p0 := m.Points[face[0]]
	for k := 1; k+1 < len(face); k++ {
		a := r3.Sub(m.Points[face[k]], p0)
		b := r3.Sub(m.Points[face[k+1]], p0)
		sum = r3.Add(sum, r3.Scale(0.5, r3.Cross(a, b)))
	}
	return sum
}

// FaceCentre returns the area-weighted centroid of face f. Degenerate faces
// fall back to the mean of their vertices. Unknown faces give the origin.
func (m *PolyMesh) FaceCentre(f int) r3.Vec {
	if f < 0 || f >= len(m.Faces) || len(m.Faces[f]) == 0 {
		return r3.Vec{}
	}
	face := m.Faces[f]
	var mean r3.Vec
	for _, p := range face {
		mean = r3.Add(mean, m.Points[p])
	}
	mean = r3.Scale(1/float64(len(face)), mean)
	if len(face) < 3 {
		return mean
	}

	p0 := m.Points[face[0]]
	var (
		centre r3.Vec
		area   float64
	)
	for k := 1; k+1 < len(face); k++ {
		p1, p2 := m.Points[face[k]], m.Points[face[k+1]]
		a := r3.Norm(r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))) / 2
		c := r3.Scale(1.0/3, r3.Add(p0, r3.Add(p1, p2)))
		centre = r3.Add(centre, r3.Scale(a, c))
		area += a
	}
	if area == 0 {
		return mean
	}
	return r3.Scale(1/area, centre)
}

// FaceAreaMagnitudes returns |S_f| for every face, taken from FaceAreas
// for the faces it covers and computed from the points otherwise
func (m *PolyMesh) FaceAreaMagnitudes() []float64 {
	out := make([]float64, m.NumFaces)
	n := copy(out, m.loadedFaceAreas())
	for f := n; f < len(out); f++ {
		out[f] = r3.Norm(m.FaceAreaVector(f))
	}
	return out
}

// loadedFaceAreas returns the magnitudes held in FaceAreas, or nil when it
// does not cover at least the internal faces
func (m *PolyMesh) loadedFaceAreas() []float64 {
	n := min(m.FaceAreas.Len(), m.NumFaces)
	if n == 0 || n < m.NumInnerFaces {
		return nil
	}
	switch m.FaceAreas.Kind {
	case foamfile.Scalar:
		return m.FaceAreas.Data[:n]
	case foamfile.Vector:
		out := make([]float64, n)
		for f := range out {
			row := m.FaceAreas.Row(f)
			out[f] = r3.Norm(r3.Vec{X: row[0], Y: row[1], Z: row[2]})
		}
		return out
	}
	return nil
}
