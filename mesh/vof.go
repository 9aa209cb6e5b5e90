package mesh

import (
	"fmt"
	"math"
)

// DefaultSurfaceExponent is the exponent applied to phase jumps by
// PhaseSurfaceArea when none is given
const DefaultSurfaceExponent = 1.5

// PhaseSurfaceArea estimates the interface area of a volume fraction field
// phi as the sum over internal faces of |S_f| * |phi_owner - phi_neighbour|^omega.
// area holds |S_f| per face and a single entry is used for every face. A nil
// area takes the loaded FaceAreas, or 1 per face when none are loaded.
func (m *PolyMesh) PhaseSurfaceArea(phi, area []float64, omega float64) (float64, error) {
	if len(phi) != m.NumCells {
		return 0, fmt.Errorf("phase field has %d values for %d cells", len(phi), m.NumCells)
	}
	switch len(area) {
	case 0:
		area = m.loadedFaceAreas()
		if area == nil {
			area = []float64{1}
		}
	case 1:
	default:
		if len(area) < m.NumInnerFaces {
			return 0, fmt.Errorf("%d face areas for %d internal faces", len(area), m.NumInnerFaces)
		}
	}

	var sum float64
	for f := 0; f < m.NumInnerFaces; f++ {
		a := area[0]
		if len(area) > 1 {
			a = area[f]
		}
		jump := math.Abs(phi[m.Owner[f]] - phi[m.Neighbour[f]])
		sum += a * math.Pow(jump, omega)
	}
	return sum, nil
}
