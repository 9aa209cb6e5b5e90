package partitions

import (
	"fmt"
	"math"

	"github.com/notargets/foamcase/foamfile"
	"gonum.org/v1/gonum/mat"
)

// Partition is a set of cells handled together, as one processor
// directory of a decomposed case would be
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Cell membership
	Elements    []int // Global cell indices in this partition, ascending
	NumElements int   // Actual number of cells
	MaxElements int   // Padded size shared by all partitions
}

// PartitionLayout manages the complete mesh decomposition
type PartitionLayout struct {
	// All partitions in the mesh
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumElements) across all partitions
	TotalElements int // Sum of all actual cells across partitions
	NumPartitions int // Total number of partitions

	// Cell to partition mapping
	EToP []int // Length TotalElements: cell k belongs to partition EToP[k]
}

// PartitionedArray holds a cell field split per partition
type PartitionedArray struct {
	// Contiguous global storage for all partitions
	// Layout: [Partition 0 Data][Partition 1 Data]...[Partition N-1 Data]
	GlobalData []float64

	// Partition p's data starts at GlobalData[Offsets[p]]
	Offsets []int

	// Number of values per cell, the width of the field kind
	Stride int

	// Total allocated size including padding
	AllocatedSize int
}

// GetPartition returns the partition containing cell k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency: KpartMax is the largest
// partition and every cell belongs to exactly the partition EToP names
func (pl *PartitionLayout) ValidateLayout() error {
	// Verify KpartMax
	actualMax := 0
	for _, p := range pl.Partitions {
		if p.NumElements > actualMax {
			actualMax = p.NumElements
		}
		if p.MaxElements != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxElements %d != KpartMax %d",
				p.ID, p.MaxElements, pl.KpartMax)
		}
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}

	// Verify coverage
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("EToP covers %d cells, layout has %d", len(pl.EToP), pl.TotalElements)
	}
	seen := make([]bool, pl.TotalElements)
	total := 0
	for _, p := range pl.Partitions {
		if len(p.Elements) != p.NumElements {
			return fmt.Errorf("partition %d: %d elements listed, NumElements %d",
				p.ID, len(p.Elements), p.NumElements)
		}
		for _, e := range p.Elements {
			if e < 0 || e >= pl.TotalElements {
				return fmt.Errorf("partition %d: cell %d out of range", p.ID, e)
			}
			if seen[e] {
				return fmt.Errorf("cell %d assigned twice", e)
			}
			if pl.EToP[e] != p.ID {
				return fmt.Errorf("cell %d listed in partition %d but EToP says %d", e, p.ID, pl.EToP[e])
			}
			seen[e] = true
		}
		total += p.NumElements
	}
	if total != pl.TotalElements {
		return fmt.Errorf("partitions hold %d cells, expected %d", total, pl.TotalElements)
	}
	return nil
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
		AvgElements:   float64(pl.TotalElements) / float64(pl.NumPartitions),
	}

	for _, p := range pl.Partitions {
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}

	if stats.AvgElements > 0 {
		stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	}
	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}

func (s PartitionStats) String() string {
	return fmt.Sprintf("%d partitions, cells min %d max %d avg %.1f, imbalance %.3f",
		s.NumPartitions, s.MinElements, s.MaxElements, s.AvgElements, s.Imbalance)
}

// ScatterField splits a cell field over the partitions of layout. Each
// partition's block is padded with zeros to KpartMax cells.
func ScatterField(layout *PartitionLayout, field foamfile.Array) (*PartitionedArray, error) {
	if field.Len() != layout.TotalElements {
		return nil, fmt.Errorf("field has %d values for %d cells", field.Len(), layout.TotalElements)
	}
	stride := field.Kind.Width()
	pa := AllocatePartitionedArray(layout, stride)
	rows := field.Matrix()
	for i, p := range layout.Partitions {
		data := pa.GlobalData[pa.Offsets[i]:pa.Offsets[i+1]]
		for local, cell := range p.Elements {
			mat.Row(data[local*stride:(local+1)*stride], cell, rows)
		}
	}
	return pa, nil
}

// AllocatePartitionedArray creates zeroed storage for a cell field of the
// given stride, KpartMax cells per partition
func AllocatePartitionedArray(layout *PartitionLayout, stride int) *PartitionedArray {
	offsets := make([]int, layout.NumPartitions+1)
	for i := range layout.Partitions {
		offsets[i+1] = offsets[i] + layout.KpartMax*stride
	}
	totalSize := offsets[layout.NumPartitions]

	return &PartitionedArray{
		GlobalData:    make([]float64, totalSize),
		Offsets:       offsets,
		Stride:        stride,
		AllocatedSize: totalSize,
	}
}

// GetPartitionData returns a slice for partition p's data
func (pa *PartitionedArray) GetPartitionData(partitionID int) []float64 {
	if partitionID < 0 || partitionID >= len(pa.Offsets)-1 {
		return nil
	}
	start := pa.Offsets[partitionID]
	end := pa.Offsets[partitionID+1]
	return pa.GlobalData[start:end]
}

// Gather reassembles the cell field from its partitioned form
func (pa *PartitionedArray) Gather(layout *PartitionLayout, kind foamfile.Kind) foamfile.Array {
	out := foamfile.Array{Kind: kind, Data: make([]float64, layout.TotalElements*pa.Stride)}
	for i, p := range layout.Partitions {
		data := pa.GetPartitionData(i)
		for local, cell := range p.Elements {
			copy(out.Data[cell*pa.Stride:(cell+1)*pa.Stride], data[local*pa.Stride:])
		}
	}
	return out
}
