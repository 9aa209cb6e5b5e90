package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/foamcase/logging"
	"github.com/notargets/foamcase/mesh"
	"github.com/notargets/foamcase/utils"
	"github.com/rs/zerolog/log"
)

// PartitionBuilder constructs partitions from mesh connectivity
type PartitionBuilder struct {
	// Mesh connectivity
	Mesh *MeshConnectivity

	// Partitioning parameters. NumPartitions wins when set, otherwise the
	// count follows from TargetPartitionSize.
	NumPartitions       int
	TargetPartitionSize int
	Strategy            PartitionStrategy
}

// MeshConnectivity provides the mesh topology needed for partitioning
type MeshConnectivity struct {
	NumElements int

	// Cells across each face of a cell; negative entries are boundary
	// markers
	EToE [][]int
}

// NewMeshConnectivity takes the cell graph of a mesh
func NewMeshConnectivity(m *mesh.PolyMesh) *MeshConnectivity {
	return &MeshConnectivity{NumElements: m.NumCells, EToE: m.CellNeighbours}
}

// PartitionStrategy defines how cells are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive cells
	RoundRobin                              // Distribute cyclically
	GraphPartition                          // Breadth-first growth over the cell graph
)

func (s PartitionStrategy) String() string {
	switch s {
	case RoundRobin:
		return "roundrobin"
	case GraphPartition:
		return "graph"
	}
	return "block"
}

// ParseStrategy maps a strategy name back to its value
func ParseStrategy(name string) (PartitionStrategy, error) {
	for _, s := range []PartitionStrategy{BlockPartition, RoundRobin, GraphPartition} {
		if s.String() == name {
			return s, nil
		}
	}
	return BlockPartition, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout from mesh connectivity
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	numPartitions := pb.calculateNumPartitions()

	eToP := pb.partitionElements(numPartitions)

	partitions := pb.createPartitions(eToP, numPartitions)

	kpartMax := pb.calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxElements = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.Mesh.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines the partition count. There are never
// more partitions than cells, and always at least one.
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := pb.NumPartitions
	if numPartitions <= 0 && pb.TargetPartitionSize > 0 {
		numPartitions = int(math.Ceil(float64(pb.Mesh.NumElements) / float64(pb.TargetPartitionSize)))
	}
	if numPartitions > pb.Mesh.NumElements {
		numPartitions = pb.Mesh.NumElements
	}
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionElements assigns cells to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	eToP := make([]int, pb.Mesh.NumElements)

	switch pb.Strategy {
	case RoundRobin:
		for i := 0; i < pb.Mesh.NumElements; i++ {
			eToP[i] = i % numPartitions
		}

	case GraphPartition:
		return pb.growPartitions(numPartitions)

	default:
		// Consecutive runs differing in size by at most one cell
		for i := 0; i < pb.Mesh.NumElements; i++ {
			eToP[i] = i * numPartitions / pb.Mesh.NumElements
		}
	}

	return eToP
}

// growPartitions fills partitions one at a time by breadth-first search
// from the lowest unassigned cell, so each partition is a connected patch
// of the cell graph where the mesh allows. The last partition takes what
// is left.
func (pb *PartitionBuilder) growPartitions(numPartitions int) []int {
	n := pb.Mesh.NumElements
	eToP := make([]int, n)
	for i := range eToP {
		eToP[i] = -1
	}

	assigned, seed := 0, 0
	for part := 0; part < numPartitions; part++ {
		// Spread the remainder over the first partitions
		target := n / numPartitions
		if part < n%numPartitions {
			target++
		}
		if part == numPartitions-1 {
			target = n - assigned
		}

		count := 0
		var queue []int
		for count < target {
			if len(queue) == 0 {
				for seed < n && eToP[seed] >= 0 {
					seed++
				}
				if seed == n {
					break
				}
				eToP[seed] = part
				queue = append(queue, seed)
				count++
				continue
			}
			cell := queue[0]
			queue = queue[1:]
			for _, nb := range pb.Mesh.EToE[cell] {
				if count == target {
					break
				}
				if nb >= 0 && eToP[nb] < 0 {
					eToP[nb] = part
					queue = append(queue, nb)
					count++
				}
			}
		}
		assigned += count
	}
	return eToP
}

// createPartitions builds partition structures from cell assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}

	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}
	return partitions
}

// calculateKpartMax finds maximum cells across all partitions
func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}

// ProcessorPatch is the set of internal faces shared by two partitions,
// the faces a decomposed case turns into processor boundaries
type ProcessorPatch struct {
	Partitions [2]int // lower id first
	Faces      []int  // ascending
}

// ProcessorFaces lists the internal faces whose owner and neighbour cells
// fall in different partitions, grouped per partition pair and ordered by
// pair
func ProcessorFaces(layout *PartitionLayout, owner, neighbour []int) []ProcessorPatch {
	groups := make(map[[2]int][]int)
	for f := 0; f < len(neighbour) && f < len(owner); f++ {
		if neighbour[f] < 0 {
			continue
		}
		po, pn := layout.GetPartition(owner[f]), layout.GetPartition(neighbour[f])
		if po == pn || po < 0 || pn < 0 {
			continue
		}
		key := [2]int{min(po, pn), max(po, pn)}
		groups[key] = append(groups[key], f)
	}

	patches := make([]ProcessorPatch, 0, len(groups))
	for key, faces := range groups {
		patches = append(patches, ProcessorPatch{Partitions: key, Faces: faces})
	}
	sort.Slice(patches, func(i, j int) bool {
		a, b := patches[i].Partitions, patches[j].Partitions
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})
	return patches
}

// Decomposition is a mesh split into partitions together with the
// exchange pattern between them
type Decomposition struct {
	Layout     *PartitionLayout
	Processors []ProcessorPatch
	Connector  *utils.FaceConnector
}

// Decompose partitions the cells of m and builds the halo exchange indices
func Decompose(m *mesh.PolyMesh, numPartitions int, strategy PartitionStrategy) (*Decomposition, error) {
	pb := &PartitionBuilder{
		Mesh:          NewMeshConnectivity(m),
		NumPartitions: numPartitions,
		Strategy:      strategy,
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, err
	}
	inner := m.Neighbour[:m.NumInnerFaces]
	fc, err := utils.NewFaceConnector(m.Owner, inner, layout.EToP)
	if err != nil {
		return nil, err
	}
	if err := fc.Verify(); err != nil {
		return nil, err
	}

	d := &Decomposition{
		Layout:     layout,
		Processors: ProcessorFaces(layout, m.Owner, inner),
		Connector:  fc,
	}
	stats := layout.PartitionStatistics()
	log.Info().Str(logging.File, m.Dir).Str("strategy", strategy.String()).
		Int("partitions", stats.NumPartitions).Float64("imbalance", stats.Imbalance).
		Int("processor_patches", len(d.Processors)).Msg("mesh decomposed")
	return d, nil
}
