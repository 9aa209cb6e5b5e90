package utils

import (
	"fmt"
)

// FaceConnector manages pick and place indices for a mesh split into
// partitions. Each partition stores its own cells first, followed by one
// halo slot per processor face holding the value of the cell across it.
type FaceConnector struct {
	NumPartitions int
	K             int // Total cells

	// Input connectivity, internal faces only
	Owner     []int
	Neighbour []int
	EToP      []int // Cell → partition mapping

	// Partition mappings
	ElemsPerPartition []int         // Cells per partition
	HaloPerPartition  []int         // Halo slots per partition
	GlobalToLocalElem []map[int]int // [partition][globalCell] → localCell
	LocalToGlobalElem [][]int       // [partition][localCell] → globalCell

	// Pick/Place indices per partition
	PickIndices  [][]PickBuffer  // [sourcePartition][targetPartition]
	PlaceIndices [][]PlaceBuffer // [targetPartition][sourcePartition]
}

// PickBuffer contains indices for gathering values to send
type PickBuffer struct {
	Indices         []int // Local cell indices
	TargetPartition int
}

// PlaceBuffer contains indices for scattering received values
type PlaceBuffer struct {
	Indices         []int // Halo slot positions
	SourcePartition int
}

// NewFaceConnector creates a face connector from the owner and neighbour
// lists of the internal faces and a cell to partition map
func NewFaceConnector(owner, neighbour, eToP []int) (*FaceConnector, error) {
	if len(neighbour) > len(owner) {
		return nil, fmt.Errorf("neighbour length %d exceeds owner length %d", len(neighbour), len(owner))
	}
	K := len(eToP)
	for f, n := range neighbour {
		if o := owner[f]; o < 0 || o >= K || n < 0 || n >= K {
			return nil, fmt.Errorf("face %d joins cells %d and %d outside [0,%d)", f, o, n, K)
		}
	}

	numPartitions := 0
	for k, p := range eToP {
		if p < 0 {
			return nil, fmt.Errorf("cell %d has no partition", k)
		}
		if p+1 > numPartitions {
			numPartitions = p + 1
		}
	}

	fc := &FaceConnector{
		NumPartitions: numPartitions,
		K:             K,
		Owner:         owner,
		Neighbour:     neighbour,
		EToP:          eToP,
	}

	fc.buildPartitionMappings()
	fc.initializeBuffers()
	fc.BuildIndices()
	return fc, nil
}

// buildPartitionMappings creates bidirectional mappings between global and
// local cell numbering
func (fc *FaceConnector) buildPartitionMappings() {
	fc.ElemsPerPartition = make([]int, fc.NumPartitions)
	for _, p := range fc.EToP {
		fc.ElemsPerPartition[p]++
	}

	fc.GlobalToLocalElem = make([]map[int]int, fc.NumPartitions)
	fc.LocalToGlobalElem = make([][]int, fc.NumPartitions)
	for p := 0; p < fc.NumPartitions; p++ {
		fc.GlobalToLocalElem[p] = make(map[int]int)
		fc.LocalToGlobalElem[p] = make([]int, 0, fc.ElemsPerPartition[p])
	}

	for globalElem := 0; globalElem < fc.K; globalElem++ {
		partition := fc.EToP[globalElem]
		localElem := len(fc.LocalToGlobalElem[partition])

		fc.GlobalToLocalElem[partition][globalElem] = localElem
		fc.LocalToGlobalElem[partition] = append(fc.LocalToGlobalElem[partition], globalElem)
	}
}

// initializeBuffers creates empty pick and place buffer structures
func (fc *FaceConnector) initializeBuffers() {
	fc.HaloPerPartition = make([]int, fc.NumPartitions)
	fc.PickIndices = make([][]PickBuffer, fc.NumPartitions)
	fc.PlaceIndices = make([][]PlaceBuffer, fc.NumPartitions)

	for p := 0; p < fc.NumPartitions; p++ {
		fc.PickIndices[p] = make([]PickBuffer, fc.NumPartitions)
		fc.PlaceIndices[p] = make([]PlaceBuffer, fc.NumPartitions)

		for q := 0; q < fc.NumPartitions; q++ {
			fc.PickIndices[p][q] = PickBuffer{
				Indices:         make([]int, 0),
				TargetPartition: q,
			}
			fc.PlaceIndices[p][q] = PlaceBuffer{
				Indices:         make([]int, 0),
				SourcePartition: q,
			}
		}
	}
}

// BuildIndices constructs pick and place indices for all partitions. A
// face between cells in partitions p and q makes each side pick its own
// cell and place the other's into a fresh halo slot.
func (fc *FaceConnector) BuildIndices() {
	for f, n := range fc.Neighbour {
		o := fc.Owner[f]
		po, pn := fc.EToP[o], fc.EToP[n]
		if po == pn {
			continue
		}
		fc.connect(o, po, pn)
		fc.connect(n, pn, po)
	}
}

// connect sends cell, living in partition source, to a new halo slot of
// partition target
func (fc *FaceConnector) connect(cell, source, target int) {
	slot := fc.ElemsPerPartition[target] + fc.HaloPerPartition[target]
	fc.HaloPerPartition[target]++

	fc.PickIndices[source][target].Indices = append(
		fc.PickIndices[source][target].Indices, fc.GlobalToLocalElem[source][cell])
	fc.PlaceIndices[target][source].Indices = append(
		fc.PlaceIndices[target][source].Indices, slot)
}

// LocalSize is the number of cells plus halo slots of partition p
func (fc *FaceConnector) LocalSize(p int) int {
	return fc.ElemsPerPartition[p] + fc.HaloPerPartition[p]
}

// GetPickIndices returns pick indices for sending from source to target partition
func (fc *FaceConnector) GetPickIndices(sourcePartition, targetPartition int) []int {
	if sourcePartition < 0 || sourcePartition >= fc.NumPartitions ||
		targetPartition < 0 || targetPartition >= fc.NumPartitions {
		return nil
	}
	return fc.PickIndices[sourcePartition][targetPartition].Indices
}

// GetPlaceIndices returns place indices for target partition receiving from source
func (fc *FaceConnector) GetPlaceIndices(targetPartition, sourcePartition int) []int {
	if targetPartition < 0 || targetPartition >= fc.NumPartitions ||
		sourcePartition < 0 || sourcePartition >= fc.NumPartitions {
		return nil
	}
	return fc.PlaceIndices[targetPartition][sourcePartition].Indices
}

// Exchange fills the halo slots of every partition's local array from the
// cells they mirror. local[p] must hold LocalSize(p) values.
func (fc *FaceConnector) Exchange(local [][]float64) error {
	if len(local) != fc.NumPartitions {
		return fmt.Errorf("%d local arrays for %d partitions", len(local), fc.NumPartitions)
	}
	for p := range local {
		if len(local[p]) != fc.LocalSize(p) {
			return fmt.Errorf("partition %d: local array has %d values, want %d",
				p, len(local[p]), fc.LocalSize(p))
		}
	}
	for p := 0; p < fc.NumPartitions; p++ {
		for q := 0; q < fc.NumPartitions; q++ {
			place := fc.GetPlaceIndices(q, p)
			for i, idx := range fc.GetPickIndices(p, q) {
				local[q][place[i]] = local[p][idx]
			}
		}
	}
	return nil
}

// Verify checks index validity and conservation properties
func (fc *FaceConnector) Verify() error {
	// Local validity: pick indices address owned cells, place indices
	// address halo slots
	for p := 0; p < fc.NumPartitions; p++ {
		for q := 0; q < fc.NumPartitions; q++ {
			for _, idx := range fc.PickIndices[p][q].Indices {
				if idx < 0 || idx >= fc.ElemsPerPartition[p] {
					return fmt.Errorf("invalid pick index %d for partition %d (max %d)",
						idx, p, fc.ElemsPerPartition[p]-1)
				}
			}
			for _, idx := range fc.PlaceIndices[p][q].Indices {
				if idx < fc.ElemsPerPartition[p] || idx >= fc.LocalSize(p) {
					return fmt.Errorf("invalid place index %d for partition %d (halo [%d,%d))",
						idx, p, fc.ElemsPerPartition[p], fc.LocalSize(p))
				}
			}
		}
	}

	// Correspondence: pick and place arrays have same length
	for p := 0; p < fc.NumPartitions; p++ {
		for q := 0; q < fc.NumPartitions; q++ {
			pickLen := len(fc.PickIndices[p][q].Indices)
			placeLen := len(fc.PlaceIndices[q][p].Indices)
			if pickLen != placeLen {
				return fmt.Errorf("length mismatch: pick[%d][%d]=%d, place[%d][%d]=%d",
					p, q, pickLen, q, p, placeLen)
			}
		}
	}

	// Conservation: every halo slot is placed exactly once
	totalPicks, totalHalo := 0, 0
	for p := 0; p < fc.NumPartitions; p++ {
		seen := make([]bool, fc.HaloPerPartition[p])
		for q := 0; q < fc.NumPartitions; q++ {
			totalPicks += len(fc.PickIndices[p][q].Indices)
			for _, idx := range fc.PlaceIndices[p][q].Indices {
				slot := idx - fc.ElemsPerPartition[p]
				if seen[slot] {
					return fmt.Errorf("halo slot %d of partition %d placed twice", idx, p)
				}
				seen[slot] = true
			}
		}
		totalHalo += fc.HaloPerPartition[p]
	}
	if totalPicks != totalHalo {
		return fmt.Errorf("conservation error: total picks %d != total halo slots %d",
			totalPicks, totalHalo)
	}

	return nil
}
