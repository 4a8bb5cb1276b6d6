package testkit

import (
	"context"
	"testing"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/domain/volume"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCohort_Layout(t *testing.T) {
	spec := DefaultCohortSpec()
	samples, masks := GenerateCohort(spec)

	assert.Len(t, samples, spec.Subjects*spec.TrialsPerValence*2)
	require.Len(t, masks, 2)
	assert.Equal(t, 8, masks[0].Count())
	assert.Equal(t, "informative", masks[0].Name)

	for _, s := range samples {
		assert.Equal(t, spec.Shape, s.Image.Shape)
		assert.NoError(t, s.Image.Validate())
	}
	assert.Equal(t, core.SubjectID("sub-01"), samples[0].Subject)
	assert.Equal(t, volume.Positive, samples[0].Label)
	assert.Equal(t, volume.Negative, samples[spec.TrialsPerValence].Label)
}

func TestGenerateCohort_Deterministic(t *testing.T) {
	a, _ := GenerateCohort(DefaultCohortSpec())
	b, _ := GenerateCohort(DefaultCohortSpec())
	assert.Equal(t, a, b)

	spec := DefaultCohortSpec()
	spec.Seed = 7
	c, _ := GenerateCohort(spec)
	assert.NotEqual(t, a[0].Image.Data, c[0].Image.Data)
}

func TestBoxMask_ClipsToGrid(t *testing.T) {
	m := BoxMask("edge", volume.Shape{2, 2, 2}, [3]int{1, 1, 1}, [3]int{5, 5, 5})
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []int{7}, m.Indices())
}

func TestInMemoryResultsStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryResultsStore()

	first := run.NewManifest("cfg", "cohort", 42, 6, 3, []string{"a"})
	second := run.NewManifest("cfg", "cohort", 42, 6, 3, []string{"a"})
	table := &decoding.ResultsTable{Rows: []decoding.ROIResult{{ROIName: "a"}}}

	require.NoError(t, store.SaveRun(ctx, first, table))
	require.NoError(t, store.SaveRun(ctx, second, table))

	got, err := store.GetRun(ctx, first.RunID)
	require.NoError(t, err)
	assert.Equal(t, table, got.Table)

	_, err = store.GetRun(ctx, "missing")
	assert.True(t, core.IsNotFoundError(err))

	runs, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.RunID, runs[0].RunID)
}
