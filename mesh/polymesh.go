package mesh

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// PolyMesh is a polyhedral finite-volume mesh and the cell topology derived
// from it. Faces 0..NumInnerFaces-1 separate two cells, the rest lie on the
// boundary.
type PolyMesh struct {
	Dir string

	Points    []r3.Vec
	Faces     [][]int // vertex indices of each face
	Owner     []int   // cell on the owner side of each face
	Neighbour []int   // cell across each face; a patch id or UnpatchedFace on the boundary
	Patches   []Patch

	NumPoints     int
	NumFaces      int
	NumInnerFaces int
	NumCells      int

	CellFaces      [][]int // faces bounding each cell, ascending
	CellNeighbours [][]int // what lies across CellFaces[i][k]: a cell or a patch id

	// Optional geometry, filled by the Read* methods
	CellCentres []r3.Vec
	CellVolumes []float64
	FaceAreas   foamfile.Array
}

// File names inside a polyMesh directory
const (
	PointsFile    = "points"
	FacesFile     = "faces"
	OwnerFile     = "owner"
	NeighbourFile = "neighbour"
	BoundaryFile  = "boundary"
)

// ReadCase loads the mesh under caseDir/constant/polyMesh
func ReadCase(caseDir string, opts ...foamfile.Option) (*PolyMesh, error) {
	return ReadPolyMesh(filepath.Join(caseDir, "constant", "polyMesh"), opts...)
}

// ReadPolyMesh loads the five polyMesh files of dir in parallel and builds
// the cell topology. Files may be stored compressed with a .gz or .zst
// suffix.
func ReadPolyMesh(dir string, opts ...foamfile.Option) (*PolyMesh, error) {
	o := foamfile.NewOptions(opts...)
	var (
		points           []r3.Vec
		faces            [][]int
		owner, neighbour []int
		patches          []Patch
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		var m *meshFile
		if m, err = openMeshFile(filepath.Join(dir, PointsFile), o); err == nil {
			points, err = m.points()
		}
		return
	})
	g.Go(func() (err error) {
		var m *meshFile
		if m, err = openMeshFile(filepath.Join(dir, FacesFile), o); err == nil {
			faces, err = m.faces()
		}
		return
	})
	g.Go(func() (err error) {
		var m *meshFile
		if m, err = openMeshFile(filepath.Join(dir, OwnerFile), o); err == nil {
			owner, err = m.labels()
		}
		return
	})
	g.Go(func() (err error) {
		var m *meshFile
		if m, err = openMeshFile(filepath.Join(dir, NeighbourFile), o); err == nil {
			neighbour, err = m.labels()
		}
		return
	})
	g.Go(func() (err error) {
		patches, err = ReadBoundary(filepath.Join(dir, BoundaryFile), opts...)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "reading mesh %s", dir)
	}

	pm, err := Build(points, faces, owner, neighbour, patches)
	if err != nil {
		return nil, errors.Wrapf(err, "building mesh %s", dir)
	}
	pm.Dir = dir
	log.Info().Str(logging.File, dir).Int("points", pm.NumPoints).Int("faces", pm.NumFaces).
		Int("inner_faces", pm.NumInnerFaces).Int("cells", pm.NumCells).
		Int("patches", len(pm.Patches)).Msg("mesh loaded")
	return pm, nil
}

// Build derives the cell topology from the raw mesh lists. neighbour holds
// one cell per internal face; it is extended over the boundary faces with
// the id of the patch that claims each face, or UnpatchedFace. Patches are
// renumbered in the order given.
func Build(points []r3.Vec, faces [][]int, owner, neighbour []int, patches []Patch) (*PolyMesh, error) {
	numFaces, numInner := len(owner), len(neighbour)
	if len(faces) != numFaces {
		return nil, fmt.Errorf("%d faces but %d owners", len(faces), numFaces)
	}
	if numInner > numFaces {
		return nil, fmt.Errorf("%d neighbours exceed %d faces", numInner, numFaces)
	}
	numCells := 0
	if numFaces > 0 {
		numCells = slices.Max(owner) + 1
	}
	for f, c := range owner {
		if c < 0 {
			return nil, fmt.Errorf("face %d has negative owner %d", f, c)
		}
	}
	for f, c := range neighbour {
		if c < 0 || c >= numCells {
			return nil, fmt.Errorf("face %d has neighbour %d outside [0,%d)", f, c, numCells)
		}
	}
	for f, face := range faces {
		for _, p := range face {
			if p < 0 || p >= len(points) {
				return nil, fmt.Errorf("face %d references point %d of %d", f, p, len(points))
			}
		}
	}

	nb := make([]int, numFaces)
	copy(nb, neighbour)
	for f := numInner; f < numFaces; f++ {
		nb[f] = UnpatchedFace
	}
	pts := make([]Patch, len(patches))
	for i, p := range patches {
		p.ID = PatchID(i)
		if p.NFaces < 0 || p.StartFace < numInner || p.EndFace() > numFaces {
			return nil, fmt.Errorf("patch %s faces [%d,%d) outside boundary faces [%d,%d)",
				p.Name, p.StartFace, p.EndFace(), numInner, numFaces)
		}
		for f := p.StartFace; f < p.EndFace(); f++ {
			if nb[f] != UnpatchedFace {
				return nil, fmt.Errorf("patch %s overlaps patch at face %d", p.Name, f)
			}
			nb[f] = p.ID
		}
		pts[i] = p
	}
	unpatched := 0
	for f := numInner; f < numFaces; f++ {
		if nb[f] == UnpatchedFace {
			unpatched++
		}
	}
	if unpatched > 0 {
		log.Warn().Int(logging.Count, unpatched).Msg("boundary faces belong to no patch")
	}

	cellFaces := make([][]int, numCells)
	cellNeighbours := make([][]int, numCells)
	for f := 0; f < numFaces; f++ {
		o, n := owner[f], nb[f]
		cellFaces[o] = append(cellFaces[o], f)
		cellNeighbours[o] = append(cellNeighbours[o], n)
		if n >= 0 {
			cellFaces[n] = append(cellFaces[n], f)
			cellNeighbours[n] = append(cellNeighbours[n], o)
		}
	}

	return &PolyMesh{
		Points:         points,
		Faces:          faces,
		Owner:          owner,
		Neighbour:      nb,
		Patches:        pts,
		NumPoints:      len(points),
		NumFaces:       numFaces,
		NumInnerFaces:  numInner,
		NumCells:       numCells,
		CellFaces:      cellFaces,
		CellNeighbours: cellNeighbours,
	}, nil
}

// String returns a formatted summary of the mesh
func (m *PolyMesh) String() string {
	var sb strings.Builder
	sb.WriteString("PolyMesh Summary\n")
	sb.WriteString("================\n")
	if m.Dir != "" {
		sb.WriteString(fmt.Sprintf("Directory: %s\n", m.Dir))
	}
	sb.WriteString(fmt.Sprintf("Points: %d\n", m.NumPoints))
	sb.WriteString(fmt.Sprintf("Faces: %d (%d internal, %d boundary)\n",
		m.NumFaces, m.NumInnerFaces, m.NumFaces-m.NumInnerFaces))
	sb.WriteString(fmt.Sprintf("Cells: %d\n", m.NumCells))

	if len(m.Patches) > 0 {
		sb.WriteString("\nPatches:\n")
		for _, p := range m.Patches {
			sb.WriteString(fmt.Sprintf("  %-20s %-12s id %4d faces [%d,%d)\n",
				p.Name, p.Type, p.ID, p.StartFace, p.EndFace()))
		}
	}

	if m.NumCells > 0 {
		minF, maxF, total := len(m.CellFaces[0]), 0, 0
		for _, cf := range m.CellFaces {
			minF, maxF = min(minF, len(cf)), max(maxF, len(cf))
			total += len(cf)
		}
		sb.WriteString(fmt.Sprintf("\nFaces per cell: min %d, max %d, mean %.2f\n",
			minF, maxF, float64(total)/float64(m.NumCells)))
	}
	return sb.String()
}
