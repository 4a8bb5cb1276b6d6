// Package extraction turns labeled beta images into one scalar feature per
// sample per ROI: the mean of voxel-wise standardized signal inside the mask.
package extraction

import (
	"fmt"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/volume"
	"roidecode/internal"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Extractor builds the per-ROI feature matrix
type Extractor struct {
	cache  *Cache
	logger *internal.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithCache memoizes standardized ROI columns across Extract calls
func WithCache(c *Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithLogger sets the logger used for skipped-mask warnings
func WithLogger(l *internal.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: internal.DefaultLogger.With("extraction")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes one column per usable mask, in mask input order.
// Masks whose grid differs from the sample grid or that have no voxels are
// skipped and reported; if none survive, core.ErrNoUsableROI is returned.
func (e *Extractor) Extract(samples []volume.Sample, masks []volume.Mask) (*volume.FeatureMatrix, []decoding.SkippedROI, error) {
	if len(samples) == 0 {
		return nil, nil, core.NewInsufficientDataError("no samples to extract from")
	}
	grid := samples[0].Image.Shape
	for i, s := range samples {
		if err := s.Image.Validate(); err != nil {
			return nil, nil, fmt.Errorf("sample %d: %w", i, err)
		}
		if s.Image.Shape != grid {
			return nil, nil, core.NewShapeMismatchError(fmt.Sprintf("sample %d", i), s.Image.Shape, grid)
		}
	}

	var fingerprint core.Hash
	if e.cache != nil {
		fingerprint = sampleFingerprint(samples)
	}

	features := &volume.FeatureMatrix{Rows: len(samples)}
	var skipped []decoding.SkippedROI

	for _, m := range masks {
		if reason := rejectReason(m, grid); reason != "" {
			e.logger.Warn("skipping ROI %s: %s", m.Name, reason)
			skipped = append(skipped, decoding.SkippedROI{ROIName: m.Name, Stage: "extraction", Reason: reason})
			continue
		}

		var column []float64
		if e.cache != nil {
			column = e.cache.Get(m, fingerprint)
		}
		if column == nil {
			column = ROISignal(samples, m.Indices())
			if e.cache != nil {
				e.cache.Put(m, fingerprint, column)
			}
		}

		features.ROIs = append(features.ROIs, m.Name)
		features.Columns = append(features.Columns, column)
		e.logger.Debug("ROI %s: %d voxels", m.Name, len(m.Indices()))
	}

	if len(features.ROIs) == 0 {
		return nil, skipped, fmt.Errorf("%w: all %d masks were rejected", core.ErrNoUsableROI, len(masks))
	}
	return features, skipped, nil
}

func rejectReason(m volume.Mask, grid volume.Shape) string {
	if m.Shape != grid {
		return fmt.Sprintf("mask shape %s does not match sample grid %s", m.Shape, grid)
	}
	if len(m.Members) != grid.Len() {
		return fmt.Sprintf("mask has %d voxels, grid has %d", len(m.Members), grid.Len())
	}
	if m.Count() == 0 {
		return core.ErrEmptyMask.Error()
	}
	return ""
}

// ROISignal standardizes each voxel across samples (population moments,
// constant voxels map to zero) and averages the standardized voxels per sample.
func ROISignal(samples []volume.Sample, voxels []int) []float64 {
	n, k := len(samples), len(voxels)
	block := mat.NewDense(n, k, nil)
	for i, s := range samples {
		for j, v := range voxels {
			block.Set(i, j, s.Image.Data[v])
		}
	}

	col := make([]float64, n)
	for j := 0; j < k; j++ {
		mat.Col(col, j, block)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i := 0; i < n; i++ {
			block.Set(i, j, (col[i]-mean)/std)
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if k == 1 {
			out[i] = block.At(i, 0)
			continue
		}
		out[i] = stat.Mean(block.RawRowView(i), nil)
	}
	return out
}
