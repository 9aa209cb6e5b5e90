package mesh

import (
	"iter"
)

// Patch finds a patch by name
func (m *PolyMesh) Patch(name string) (Patch, bool) {
	for _, p := range m.Patches {
		if p.Name == name {
			return p, true
		}
	}
	return Patch{}, false
}

// IsFaceOnBoundary reports whether face f lies on the boundary. Given a
// patch name it reports whether f belongs to that patch; an unknown name
// never matches.
func (m *PolyMesh) IsFaceOnBoundary(f int, patch ...string) bool {
	if f < m.NumInnerFaces || f >= m.NumFaces {
		return false
	}
	if len(patch) == 0 {
		return true
	}
	p, ok := m.Patch(patch[0])
	return ok && p.Contains(f)
}

// IsCellOnBoundary reports whether any face of cell lies on the boundary,
// or on the named patch
func (m *PolyMesh) IsCellOnBoundary(cell int, patch ...string) bool {
	if cell < 0 || cell >= m.NumCells {
		return false
	}
	if len(patch) == 0 {
		for _, n := range m.CellNeighbours[cell] {
			if n < 0 {
				return true
			}
		}
		return false
	}
	p, ok := m.Patch(patch[0])
	if !ok {
		return false
	}
	for _, n := range m.CellNeighbours[cell] {
		if n == p.ID {
			return true
		}
	}
	return false
}

// BoundaryCells yields the owner cell of every face of the named patch in
// face order. A cell with several faces on the patch is yielded once per
// face. An unknown patch yields nothing.
func (m *PolyMesh) BoundaryCells(patch string) iter.Seq[int] {
	return func(yield func(int) bool) {
		p, ok := m.Patch(patch)
		if !ok {
			return
		}
		for f := p.StartFace; f < p.EndFace(); f++ {
			if !yield(m.Owner[f]) {
				return
			}
		}
	}
}

// CellNeighbourCells returns the cells sharing a face with cell, leaving out
// boundary markers
func (m *PolyMesh) CellNeighbourCells(cell int) []int {
	if cell < 0 || cell >= m.NumCells {
		return nil
	}
	out := make([]int, 0, len(m.CellNeighbours[cell]))
	for _, n := range m.CellNeighbours[cell] {
		if n >= 0 {
			out = append(out, n)
		}
	}
	return out
}

// PatchOf returns the patch holding boundary face f
func (m *PolyMesh) PatchOf(f int) (Patch, bool) {
	if f < m.NumInnerFaces || f >= m.NumFaces {
		return Patch{}, false
	}
	i, ok := PatchIndex(m.Neighbour[f])
	if !ok || i >= len(m.Patches) {
		return Patch{}, false
	}
	return m.Patches[i], true
}
