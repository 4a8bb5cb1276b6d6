package volume

import (
	"fmt"
	"math"

	"roidecode/domain/core"
)

// Shape is the voxel grid extent along x, y and z
type Shape [3]int

// String returns the shape as "NXxNYxNZ"
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}

// Len returns the number of voxels in the grid
func (s Shape) Len() int {
	return s[0] * s[1] * s[2]
}

// Index returns the flat index of voxel (x, y, z), x varying fastest
func (s Shape) Index(x, y, z int) int {
	return x + s[0]*(y+s[1]*z)
}

// Volume is a 3D scalar field stored flat in x-fastest order
type Volume struct {
	Shape Shape
	Data  []float64
}

// NewVolume allocates a zero-filled volume
func NewVolume(shape Shape) Volume {
	return Volume{Shape: shape, Data: make([]float64, shape.Len())}
}

// Validate checks that the data length matches the grid
func (v Volume) Validate() error {
	if v.Shape[0] <= 0 || v.Shape[1] <= 0 || v.Shape[2] <= 0 {
		return core.NewValidationError("volume", fmt.Sprintf("non-positive shape %s", v.Shape))
	}
	if len(v.Data) != v.Shape.Len() {
		return core.NewLengthMismatchError("volume data", len(v.Data), v.Shape.Len())
	}
	return nil
}

// At returns the value at voxel (x, y, z)
func (v Volume) At(x, y, z int) float64 {
	return v.Data[v.Shape.Index(x, y, z)]
}

// Valence is the binarized emotional polarity of a stimulus
type Valence int

const (
	Positive Valence = 0
	Negative Valence = 1
)

// String returns "positive" or "negative"
func (v Valence) String() string {
	switch v {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	}
	return fmt.Sprintf("valence(%d)", int(v))
}

// Valid reports whether v is one of the two defined classes
func (v Valence) Valid() bool {
	return v == Positive || v == Negative
}

// Sample is one labeled beta image
type Sample struct {
	Image   Volume
	Label   Valence
	Subject core.SubjectID
	Source  string // file the image was read from, empty for synthetic data
}

// Mask is a named binary region over the sample voxel grid
type Mask struct {
	Name    string
	Shape   Shape
	Members []bool
}

// MaskFromVolume binarizes a scalar volume: finite non-zero voxels are members
func MaskFromVolume(name string, v Volume) Mask {
	members := make([]bool, len(v.Data))
	for i, val := range v.Data {
		members[i] = val != 0 && !math.IsNaN(val) && !math.IsInf(val, 0)
	}
	return Mask{Name: name, Shape: v.Shape, Members: members}
}

// Count returns the number of member voxels
func (m Mask) Count() int {
	n := 0
	for _, in := range m.Members {
		if in {
			n++
		}
	}
	return n
}

// Indices returns the flat indices of member voxels in ascending order
func (m Mask) Indices() []int {
	idx := make([]int, 0, m.Count())
	for i, in := range m.Members {
		if in {
			idx = append(idx, i)
		}
	}
	return idx
}

// FeatureMatrix holds one scalar per sample per accepted ROI.
// Columns[j] belongs to ROIs[j]; column order is acceptance order.
type FeatureMatrix struct {
	Rows    int
	ROIs    []string
	Columns [][]float64
}

// NumROIs returns the number of accepted ROI columns
func (f *FeatureMatrix) NumROIs() int {
	return len(f.ROIs)
}

// Column returns a copy of the j-th ROI column
func (f *FeatureMatrix) Column(j int) []float64 {
	out := make([]float64, len(f.Columns[j]))
	copy(out, f.Columns[j])
	return out
}

// Labels extracts the label vector of a sample set
func Labels(samples []Sample) []Valence {
	labels := make([]Valence, len(samples))
	for i, s := range samples {
		labels[i] = s.Label
	}
	return labels
}

// Subjects extracts the subject vector of a sample set
func Subjects(samples []Sample) []core.SubjectID {
	subjects := make([]core.SubjectID, len(samples))
	for i, s := range samples {
		subjects[i] = s.Subject
	}
	return subjects
}
