package extraction

import (
	"errors"
	"testing"

	"roidecode/domain/core"
	"roidecode/domain/volume"
	"roidecode/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grid = volume.Shape{2, 2, 1}

func sample(subject string, label volume.Valence, data ...float64) volume.Sample {
	return volume.Sample{
		Image:   volume.Volume{Shape: grid, Data: data},
		Label:   label,
		Subject: core.SubjectID(subject),
	}
}

func mask(name string, shape volume.Shape, members ...bool) volume.Mask {
	return volume.Mask{Name: name, Shape: shape, Members: members}
}

func newTestExtractor(opts ...Option) *Extractor {
	return NewExtractor(append([]Option{WithLogger(internal.Discard)}, opts...)...)
}

func TestExtract_StandardizesPerVoxelThenAverages(t *testing.T) {
	samples := []volume.Sample{
		sample("s1", volume.Positive, 1, 10, 0, 0),
		sample("s1", volume.Negative, 3, 10, 0, 0),
	}
	masks := []volume.Mask{
		mask("single", grid, true, false, false, false),
		mask("pair", grid, true, true, false, false),
	}

	fm, skipped, err := newTestExtractor().Extract(samples, masks)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, 2, fm.Rows)
	assert.Equal(t, []string{"single", "pair"}, fm.ROIs)

	// voxel 0 -> [-1, 1]; voxel 1 is constant -> [0, 0]
	assert.InDeltaSlice(t, []float64{-1, 1}, fm.Columns[0], 1e-12)
	assert.InDeltaSlice(t, []float64{-0.5, 0.5}, fm.Columns[1], 1e-12)
}

func TestExtract_SkipsEmptyAndMismatchedMasks(t *testing.T) {
	samples := []volume.Sample{
		sample("s1", volume.Positive, 1, 2, 3, 4),
		sample("s2", volume.Negative, 4, 3, 2, 1),
	}
	masks := []volume.Mask{
		mask("empty", grid, false, false, false, false),
		mask("kept_b", grid, false, true, true, false),
		mask("wrong_shape", volume.Shape{4, 1, 1}, true, true, true, true),
		mask("kept_a", grid, true, false, false, true),
	}

	fm, skipped, err := newTestExtractor().Extract(samples, masks)
	require.NoError(t, err)

	assert.Equal(t, []string{"kept_b", "kept_a"}, fm.ROIs)
	assert.Len(t, fm.Columns, 2)
	require.Len(t, skipped, 2)
	assert.Equal(t, "empty", skipped[0].ROIName)
	assert.Equal(t, "wrong_shape", skipped[1].ROIName)
	assert.Equal(t, "extraction", skipped[1].Stage)
}

func TestExtract_AllMasksInvalid(t *testing.T) {
	samples := []volume.Sample{sample("s1", volume.Positive, 1, 2, 3, 4)}
	masks := []volume.Mask{
		mask("a", grid, false, false, false, false),
		mask("b", grid, false, false, false, false),
	}

	fm, skipped, err := newTestExtractor().Extract(samples, masks)
	assert.Nil(t, fm)
	assert.Len(t, skipped, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoUsableROI))
	assert.True(t, core.IsConfigurationError(err))
}

func TestExtract_SampleGridMismatch(t *testing.T) {
	samples := []volume.Sample{
		sample("s1", volume.Positive, 1, 2, 3, 4),
		{Image: volume.Volume{Shape: volume.Shape{4, 1, 1}, Data: []float64{1, 2, 3, 4}}, Subject: "s2"},
	}
	_, _, err := newTestExtractor().Extract(samples, []volume.Mask{mask("a", grid, true, true, true, true)})
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}

func TestExtract_NoSamples(t *testing.T) {
	_, _, err := newTestExtractor().Extract(nil, []volume.Mask{mask("a", grid, true, true, true, true)})
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestExtract_CacheReusesColumns(t *testing.T) {
	samples := []volume.Sample{
		sample("s1", volume.Positive, 1, 2, 3, 4),
		sample("s2", volume.Negative, 2, 2, 5, 1),
	}
	masks := []volume.Mask{mask("roi", grid, true, true, false, false)}
	cache := NewCache()
	ex := newTestExtractor(WithCache(cache))

	first, _, err := ex.Extract(samples, masks)
	require.NoError(t, err)
	second, _, err := ex.Extract(samples, masks)
	require.NoError(t, err)

	assert.Equal(t, first.Columns, second.Columns)
	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, cache.Len())

	// mutating a returned column must not poison the cache
	second.Columns[0][0] = 1000
	third, _, err := ex.Extract(samples, masks)
	require.NoError(t, err)
	assert.Equal(t, first.Columns, third.Columns)
}

func TestROISignal_ZeroMeanColumns(t *testing.T) {
	samples := []volume.Sample{
		sample("a", volume.Positive, 5, 1, 7, 2),
		sample("b", volume.Negative, 3, 4, 1, 2),
		sample("c", volume.Positive, 9, 0, 2, 8),
	}
	out := ROISignal(samples, []int{0, 1, 2, 3})
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
}
