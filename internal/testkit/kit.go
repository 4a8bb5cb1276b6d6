// Package testkit generates seeded synthetic cohorts and provides in-memory
// adapters for tests and demos.
package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/domain/volume"
	"roidecode/ports"
)

// ROISpec places a box-shaped ROI with a valence effect in the synthetic grid
type ROISpec struct {
	Name   string
	Min    [3]int // inclusive corner
	Max    [3]int // exclusive corner
	Effect float64
}

// CohortSpec describes a synthetic cohort
type CohortSpec struct {
	Subjects           int
	TrialsPerValence   int
	Shape              volume.Shape
	ROIs               []ROISpec
	Noise              float64
	SubjectOffsetNoise float64
	Seed               int64
}

// DefaultCohortSpec is a small cohort with one informative and one null ROI
func DefaultCohortSpec() CohortSpec {
	return CohortSpec{
		Subjects:         6,
		TrialsPerValence: 2,
		Shape:            volume.Shape{6, 6, 4},
		ROIs: []ROISpec{
			{Name: "informative", Min: [3]int{0, 0, 0}, Max: [3]int{2, 2, 2}, Effect: 2.0},
			{Name: "null", Min: [3]int{3, 3, 2}, Max: [3]int{5, 5, 4}, Effect: 0},
		},
		Noise:              1.0,
		SubjectOffsetNoise: 0.5,
		Seed:               42,
	}
}

// GenerateCohort draws samples subject by subject, positive trials first.
// Voxels inside an ROI shift by +Effect/2 for negative and -Effect/2 for
// positive trials on top of Gaussian noise and a per-subject offset.
func GenerateCohort(spec CohortSpec) ([]volume.Sample, []volume.Mask) {
	rng := NewRNGAdapter()
	masks := make([]volume.Mask, len(spec.ROIs))
	effect := make([]float64, spec.Shape.Len())
	for r, roi := range spec.ROIs {
		masks[r] = BoxMask(roi.Name, spec.Shape, roi.Min, roi.Max)
		for _, idx := range masks[r].Indices() {
			effect[idx] = roi.Effect
		}
	}

	var samples []volume.Sample
	for s := 0; s < spec.Subjects; s++ {
		subject := core.SubjectID(fmt.Sprintf("sub-%02d", s+1))
		r := rng.Stream(subject.String(), spec.Seed)
		offset := r.NormFloat64() * spec.SubjectOffsetNoise

		for _, label := range []volume.Valence{volume.Positive, volume.Negative} {
			sign := -0.5
			if label == volume.Negative {
				sign = 0.5
			}
			for t := 0; t < spec.TrialsPerValence; t++ {
				img := volume.NewVolume(spec.Shape)
				for i := range img.Data {
					img.Data[i] = offset + sign*effect[i] + r.NormFloat64()*spec.Noise
				}
				samples = append(samples, volume.Sample{
					Image:   img,
					Label:   label,
					Subject: subject,
					Source:  fmt.Sprintf("synthetic/%s/%s_%02d", subject, label, t+1),
				})
			}
		}
	}
	return samples, masks
}

// BoxMask builds a mask covering [min, max) on every axis
func BoxMask(name string, shape volume.Shape, min, max [3]int) volume.Mask {
	members := make([]bool, shape.Len())
	for z := min[2]; z < max[2] && z < shape[2]; z++ {
		for y := min[1]; y < max[1] && y < shape[1]; y++ {
			for x := min[0]; x < max[0] && x < shape[0]; x++ {
				members[shape.Index(x, y, z)] = true
			}
		}
	}
	return volume.Mask{Name: name, Shape: shape, Members: members}
}

// RNGAdapter implements ports.RNGPort with name-derived seeds
type RNGAdapter struct{}

// NewRNGAdapter creates an RNG adapter
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{}
}

// Stream creates a deterministic RNG stream for a named purpose
func (r *RNGAdapter) Stream(name string, seed int64) *rand.Rand {
	if name != "" {
		seed = int64(hashString(name)) + seed
	}
	return rand.New(rand.NewSource(seed))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

var _ ports.RNGPort = (*RNGAdapter)(nil)

// InMemoryResultsStore implements ports.ResultsRepository in memory
type InMemoryResultsStore struct {
	runs map[core.RunID]*ports.StoredRun
	mu   sync.RWMutex
}

// NewInMemoryResultsStore creates an empty store
func NewInMemoryResultsStore() *InMemoryResultsStore {
	return &InMemoryResultsStore{runs: make(map[core.RunID]*ports.StoredRun)}
}

func (s *InMemoryResultsStore) SaveRun(ctx context.Context, manifest *run.Manifest, table *decoding.ResultsTable) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[manifest.RunID] = &ports.StoredRun{Manifest: manifest, Table: table}
	return nil
}

func (s *InMemoryResultsStore) GetRun(ctx context.Context, runID core.RunID) (*ports.StoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return stored, nil
}

func (s *InMemoryResultsStore) ListRuns(ctx context.Context, limit int) ([]*run.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifests := make([]*run.Manifest, 0, len(s.runs))
	for _, r := range s.runs {
		manifests = append(manifests, r.Manifest)
	}
	// newest first; v7 run ids sort by creation time
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].RunID > manifests[j].RunID
	})
	if limit > 0 && len(manifests) > limit {
		manifests = manifests[:limit]
	}
	return manifests, nil
}

var _ ports.ResultsRepository = (*InMemoryResultsStore)(nil)
