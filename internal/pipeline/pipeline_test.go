package pipeline

import (
	"context"
	"errors"
	"testing"

	"roidecode/domain/core"
	"roidecode/domain/volume"
	"roidecode/internal"
	"roidecode/internal/extraction"
	"roidecode/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(workers int) *Pipeline {
	cfg := DefaultConfig()
	cfg.Workers = workers
	return New(cfg, nil, internal.Discard)
}

func smallCohort() ([]volume.Sample, []volume.Mask) {
	return testkit.GenerateCohort(testkit.CohortSpec{
		Subjects:         3,
		TrialsPerValence: 1,
		Shape:            volume.Shape{4, 1, 1},
		ROIs: []testkit.ROISpec{
			{Name: "roi", Min: [3]int{0, 0, 0}, Max: [3]int{4, 1, 1}, Effect: 2},
		},
		Noise: 1,
		Seed:  1,
	})
}

func TestRun_ThreeSubjectsTwoSamplesEach(t *testing.T) {
	samples, masks := smallCohort()
	require.Len(t, samples, 6)
	require.Equal(t, 4, masks[0].Count())

	out, err := newTestPipeline(1).Run(context.Background(), samples, masks)
	require.NoError(t, err)

	require.Len(t, out.Table.Rows, 1)
	row := out.Table.Rows[0]
	assert.Equal(t, "roi", row.ROIName)
	assert.Equal(t, 3, row.TotalFolds)
	assert.Len(t, row.Evaluation.SVM, 3)
	assert.Len(t, row.Evaluation.Dummy, 3)
	assert.Empty(t, out.Table.Skipped)

	assert.Equal(t, 6, out.Manifest.Samples)
	assert.Equal(t, 3, out.Manifest.Subjects)
	assert.Equal(t, []string{"roi"}, out.Manifest.ROIs)
	assert.NoError(t, out.Manifest.Validate())
}

func TestRun_InformativeROIDecodes(t *testing.T) {
	samples, masks := testkit.GenerateCohort(testkit.DefaultCohortSpec())

	out, err := newTestPipeline(2).Run(context.Background(), samples, masks)
	require.NoError(t, err)
	require.Equal(t, []string{"informative", "null"}, out.Table.Names())

	informative := out.Table.Rows[0]
	assert.Equal(t, 6, informative.TotalFolds)
	assert.Equal(t, 6, informative.DefinedFolds)
	assert.Greater(t, informative.SVMAUC, 0.75)
	assert.InDelta(t, informative.SVMAUC-informative.DummyAUC, informative.Difference, 1e-12)
}

func TestRun_SingleSubjectFailsBeforeClassification(t *testing.T) {
	spec := testkit.DefaultCohortSpec()
	spec.Subjects = 1
	samples, masks := testkit.GenerateCohort(spec)

	out, err := newTestPipeline(1).Run(context.Background(), samples, masks)
	assert.Nil(t, out)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestRun_NoUsableMask(t *testing.T) {
	samples, _ := smallCohort()
	masks := []volume.Mask{
		testkit.BoxMask("wrong_grid", volume.Shape{2, 2, 2}, [3]int{0, 0, 0}, [3]int{2, 2, 2}),
		{Name: "empty", Shape: volume.Shape{4, 1, 1}, Members: make([]bool, 4)},
	}

	cache := extraction.NewCache()
	p := New(DefaultConfig(), extraction.NewExtractor(extraction.WithCache(cache)), internal.Discard)

	out, err := p.Run(context.Background(), samples, masks)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, core.ErrNoUsableROI))
	assert.True(t, core.IsConfigurationError(err))
	assert.Equal(t, 0, cache.Len())
}

func TestRun_InvalidMaskSkippedOthersKept(t *testing.T) {
	samples, masks := smallCohort()
	masks = append([]volume.Mask{
		{Name: "empty", Shape: volume.Shape{4, 1, 1}, Members: make([]bool, 4)},
	}, masks...)

	out, err := newTestPipeline(1).Run(context.Background(), samples, masks)
	require.NoError(t, err)

	assert.Equal(t, []string{"roi"}, out.Table.Names())
	require.Len(t, out.Table.Skipped, 1)
	assert.Equal(t, "empty", out.Table.Skipped[0].ROIName)
	assert.Equal(t, "extraction", out.Table.Skipped[0].Stage)
}

func TestRun_PreservesROIOrderUnderParallelism(t *testing.T) {
	spec := testkit.DefaultCohortSpec()
	samples, _ := testkit.GenerateCohort(spec)

	var masks []volume.Mask
	var names []string
	for i, name := range []string{"h", "c", "a", "f", "b", "g", "d", "e"} {
		x := i % spec.Shape[0]
		masks = append(masks, testkit.BoxMask(name, spec.Shape, [3]int{x, 0, 0}, [3]int{x + 1, 6, 4}))
		names = append(names, name)
	}

	out, err := newTestPipeline(4).Run(context.Background(), samples, masks)
	require.NoError(t, err)
	assert.Equal(t, names, out.Table.Names())
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	samples, masks := testkit.GenerateCohort(testkit.DefaultCohortSpec())

	serial, err := newTestPipeline(1).Run(context.Background(), samples, masks)
	require.NoError(t, err)
	parallel, err := newTestPipeline(8).Run(context.Background(), samples, masks)
	require.NoError(t, err)

	assert.Equal(t, serial.Table, parallel.Table)
	assert.Equal(t, serial.Manifest.Fingerprint, parallel.Manifest.Fingerprint)
	assert.NotEqual(t, serial.Manifest.RunID, parallel.Manifest.RunID)
}

func TestRun_SeedChangesFingerprint(t *testing.T) {
	samples, masks := smallCohort()

	a, err := newTestPipeline(1).Run(context.Background(), samples, masks)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SVM.Seed = 7
	b, err := New(cfg, nil, internal.Discard).Run(context.Background(), samples, masks)
	require.NoError(t, err)

	assert.Equal(t, a.Manifest.CohortHash, b.Manifest.CohortHash)
	assert.NotEqual(t, a.Manifest.ConfigHash, b.Manifest.ConfigHash)
	assert.NotEqual(t, a.Manifest.Fingerprint, b.Manifest.Fingerprint)
}

func TestRun_CancelledContext(t *testing.T) {
	samples, masks := testkit.GenerateCohort(testkit.DefaultCohortSpec())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newTestPipeline(2).Run(ctx, samples, masks)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateROI_TooFewDefinedFoldsIsSkipped(t *testing.T) {
	p := newTestPipeline(1)
	column := []float64{-1, 1, 0.5, 0.7}
	labels := []volume.Valence{volume.Positive, volume.Negative, volume.Positive, volume.Positive}
	subjects := []core.SubjectID{"s1", "s1", "s2", "s2"}

	out := p.EvaluateROI("lopsided", column, labels, subjects)
	assert.Nil(t, out.Scores)
	require.NotNil(t, out.Skipped)
	assert.Equal(t, "comparison", out.Skipped.Stage)
	assert.Equal(t, "lopsided", out.Skipped.ROIName)
}

func TestEvaluateROI_InvalidInputIsSkipped(t *testing.T) {
	p := newTestPipeline(1)

	out := p.EvaluateROI("short", []float64{1}, []volume.Valence{volume.Positive, volume.Negative}, []core.SubjectID{"a", "b"})
	require.NotNil(t, out.Skipped)
	assert.Equal(t, "cross_validation", out.Skipped.Stage)
}

func TestConfigParams_IgnoresWorkers(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Workers, b.Workers = 1, 16

	assert.Equal(t, core.ComputeConfigHash(a.Params()), core.ComputeConfigHash(b.Params()))
}
