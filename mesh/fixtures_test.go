package mesh

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// Two unit hexahedra side by side along x. Points are numbered
// i + 3j + 6k for the corner at (i, j, k).
var (
	twoCellPoints = func() []r3.Vec {
		pts := make([]r3.Vec, 12)
		for k := 0; k < 2; k++ {
			for j := 0; j < 2; j++ {
				for i := 0; i < 3; i++ {
					pts[i+3*j+6*k] = r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}
				}
			}
		}
		return pts
	}()
	twoCellFaces = [][]int{
		{1, 4, 10, 7}, // internal, x = 1
		{0, 6, 9, 3},  // inlet, x = 0
		{2, 5, 11, 8}, // outlet, x = 2
		{0, 1, 7, 6},  // walls of cell 0
		{3, 9, 10, 4},
		{0, 3, 4, 1},
		{6, 7, 10, 9},
		{1, 2, 8, 7}, // walls of cell 1
		{4, 10, 11, 5},
		{1, 4, 5, 2},
		{7, 8, 11, 10},
	}
	twoCellOwner     = []int{0, 0, 1, 0, 0, 0, 0, 1, 1, 1, 1}
	twoCellNeighbour = []int{1}
	twoCellPatches   = []Patch{
		{Name: "inlet", Type: "patch", NFaces: 1, StartFace: 1},
		{Name: "outlet", Type: "patch", NFaces: 1, StartFace: 2},
		{Name: "walls", Type: "wall", NFaces: 8, StartFace: 3},
	}
)

func meshHeader(format, class, object string) string {
	return `/*--------------------------------*- C++ -*----------------------------------*\
| =========                 |                                                 |
| \\      /  F ield         | OpenFOAM: The Open Source CFD Toolbox           |
\*---------------------------------------------------------------------------*/
FoamFile
{
    version     2.0;
    format      ` + format + `;
    arch        "LSB;label=32;scalar=64";
    class       ` + class + `;
    location    "constant/polyMesh";
    object      ` + object + `;
}
// * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * //

`
}

const meshFooter = "\n\n// ************************************************************************* //\n"

func asciiPoints(pts []r3.Vec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n(\n", len(pts))
	for _, p := range pts {
		fmt.Fprintf(&sb, "(%g %g %g)\n", p.X, p.Y, p.Z)
	}
	sb.WriteString(")\n")
	return sb.String()
}

func asciiFaces(faces [][]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n(\n", len(faces))
	for _, f := range faces {
		sb.WriteString(inlineLabels(f) + "\n")
	}
	sb.WriteString(")\n")
	return sb.String()
}

func asciiLabels(labels []int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n(\n", len(labels))
	for _, l := range labels {
		fmt.Fprintf(&sb, "%d\n", l)
	}
	sb.WriteString(")\n")
	return sb.String()
}

func inlineLabels(labels []int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprint(l)
	}
	return fmt.Sprintf("%d(%s)", len(labels), strings.Join(parts, " "))
}

func compactFaces(faces [][]int) (offsets, verts []int) {
	offsets = []int{0}
	for _, f := range faces {
		verts = append(verts, f...)
		offsets = append(offsets, len(verts))
	}
	return offsets, verts
}

func binaryPoints(pts []r3.Vec) string {
	buf := []byte(fmt.Sprintf("%d\n(", len(pts)))
	for _, p := range pts {
		for _, v := range []float64{p.X, p.Y, p.Z} {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return string(append(buf, ")\n"...))
}

func binaryLabels(labels []int) string {
	buf := []byte(fmt.Sprintf("%d\n(", len(labels)))
	for _, l := range labels {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(l)))
	}
	return string(append(buf, ")\n"...))
}

func boundaryText(patches []Patch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n(\n", len(patches))
	for _, p := range patches {
		fmt.Fprintf(&sb, "    %s\n    {\n        type            %s;\n", p.Name, p.Type)
		if p.Type == "wall" {
			sb.WriteString("        inGroups        List<word> 1(wall);\n")
		}
		fmt.Fprintf(&sb, "        nFaces          %d;\n        startFace       %d;\n    }\n", p.NFaces, p.StartFace)
	}
	sb.WriteString(")\n")
	return sb.String()
}

type meshFiles map[string]string

func (mf meshFiles) write(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "case", "constant", "polyMesh")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range mf {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func twoCellASCII() meshFiles {
	return meshFiles{
		PointsFile:    meshHeader("ascii", "vectorField", "points") + asciiPoints(twoCellPoints) + meshFooter,
		FacesFile:     meshHeader("ascii", "faceList", "faces") + asciiFaces(twoCellFaces) + meshFooter,
		OwnerFile:     meshHeader("ascii", "labelList", "owner") + asciiLabels(twoCellOwner) + meshFooter,
		NeighbourFile: meshHeader("ascii", "labelList", "neighbour") + asciiLabels(twoCellNeighbour) + meshFooter,
		BoundaryFile:  meshHeader("ascii", "polyBoundaryMesh", "boundary") + boundaryText(twoCellPatches) + meshFooter,
	}
}

func twoCellCompactASCII() meshFiles {
	mf := twoCellASCII()
	offsets, verts := compactFaces(twoCellFaces)
	mf[FacesFile] = meshHeader("ascii", "faceCompactList", "faces") +
		asciiLabels(offsets) + "\n\n" + asciiLabels(verts) + meshFooter
	return mf
}

func twoCellBinary() meshFiles {
	offsets, verts := compactFaces(twoCellFaces)
	return meshFiles{
		PointsFile:    meshHeader("binary", "vectorField", "points") + binaryPoints(twoCellPoints) + meshFooter,
		FacesFile:     meshHeader("binary", "faceCompactList", "faces") + binaryLabels(offsets) + "\n\n" + binaryLabels(verts) + meshFooter,
		OwnerFile:     meshHeader("binary", "labelList", "owner") + binaryLabels(twoCellOwner) + meshFooter,
		NeighbourFile: meshHeader("binary", "labelList", "neighbour") + binaryLabels(twoCellNeighbour) + meshFooter,
		BoundaryFile:  meshHeader("ascii", "polyBoundaryMesh", "boundary") + boundaryText(twoCellPatches) + meshFooter,
	}
}

func gzipFile(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	f, err := os.Create(path + ".gz")
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	require.NoError(t, os.Remove(path))
}

func twoCellMesh(t *testing.T) *PolyMesh {
	t.Helper()
	m, err := Build(twoCellPoints, twoCellFaces, twoCellOwner, twoCellNeighbour, twoCellPatches)
	require.NoError(t, err)
	return m
}
