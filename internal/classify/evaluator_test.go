package classify

import (
	"testing"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/volume"
	"roidecode/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(p SVMParams) *Evaluator {
	return NewEvaluator(p, internal.Discard)
}

func threeSubjects() ([]float64, []volume.Valence, []core.SubjectID) {
	features := []float64{-1.0, 1.1, -0.9, 0.8, -1.2, 1.0}
	labels := []volume.Valence{
		volume.Positive, volume.Negative,
		volume.Positive, volume.Negative,
		volume.Positive, volume.Negative,
	}
	subjects := []core.SubjectID{"s1", "s1", "s2", "s2", "s3", "s3"}
	return features, labels, subjects
}

func TestEvaluate_ThreeSubjectsTwoSamples(t *testing.T) {
	features, labels, subjects := threeSubjects()

	eval, err := newTestEvaluator(DefaultSVMParams()).Evaluate(features, labels, subjects)
	require.NoError(t, err)

	assert.Equal(t, 3, eval.NumFolds())
	assert.Len(t, eval.SVM, 3)
	assert.Len(t, eval.Dummy, 3)
	assert.Equal(t, []core.SubjectID{"s1", "s2", "s3"}, eval.HeldOut)

	for i, s := range eval.SVM {
		require.True(t, s.Defined, "fold %d", i)
		assert.Equal(t, 1.0, s.Value, "separable feature should rank perfectly in fold %d", i)
		assert.True(t, eval.Dummy[i].Defined)
		assert.Contains(t, []float64{0, 0.5, 1}, eval.Dummy[i].Value)
	}
	assert.Empty(t, eval.Warnings)
}

func TestEvaluate_Deterministic(t *testing.T) {
	features, labels, subjects := threeSubjects()
	ev := newTestEvaluator(DefaultSVMParams())

	a, err := ev.Evaluate(features, labels, subjects)
	require.NoError(t, err)
	b, err := ev.Evaluate(features, labels, subjects)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t,
		core.HashFloats(decoding.DefinedValues(a.Dummy)),
		core.HashFloats(decoding.DefinedValues(b.Dummy)))
}

func TestEvaluate_SingleSubject(t *testing.T) {
	_, err := newTestEvaluator(DefaultSVMParams()).Evaluate(
		[]float64{1, 2, 3, 4},
		[]volume.Valence{0, 1, 0, 1},
		[]core.SubjectID{"s1", "s1", "s1", "s1"},
	)
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestEvaluate_DegenerateTestFold(t *testing.T) {
	features := []float64{-1, -1.1, -0.9, 1, 1.2, 0.8}
	labels := []volume.Valence{0, 0, 0, 1, 1, 1}
	subjects := []core.SubjectID{"s1", "s1", "s2", "s2", "s3", "s3"}

	eval, err := newTestEvaluator(DefaultSVMParams()).Evaluate(features, labels, subjects)
	require.NoError(t, err)

	// s1 holds only positives, s3 only negatives
	assert.False(t, eval.SVM[0].Defined)
	assert.True(t, eval.SVM[1].Defined)
	assert.False(t, eval.SVM[2].Defined)
	assert.False(t, eval.Dummy[0].Defined)
	assert.False(t, eval.Dummy[2].Defined)

	var degenerate []int
	for _, w := range eval.Warnings {
		if w.Kind == decoding.WarningDegenerateFold {
			degenerate = append(degenerate, w.Fold)
		}
	}
	assert.Equal(t, []int{0, 2}, degenerate)
}

func TestEvaluate_DegenerateTrainingFold(t *testing.T) {
	eval, err := newTestEvaluator(DefaultSVMParams()).Evaluate(
		[]float64{-1, 1},
		[]volume.Valence{volume.Positive, volume.Negative},
		[]core.SubjectID{"a", "b"},
	)
	require.NoError(t, err)

	for i := range eval.SVM {
		assert.False(t, eval.SVM[i].Defined)
		assert.False(t, eval.Dummy[i].Defined)
		assert.Contains(t, eval.SVM[i].Reason, "training")
	}
	assert.Len(t, eval.Warnings, 2)
}

func TestEvaluate_ConvergenceWarningIsNonFatal(t *testing.T) {
	x, y := noisyData(24, 11)
	features := make([]float64, len(x))
	labels := make([]volume.Valence, len(x))
	subjects := make([]core.SubjectID, len(x))
	for i := range x {
		features[i] = x[i][0]
		if y[i] {
			labels[i] = volume.Negative
		}
		subjects[i] = core.SubjectID([]string{"a", "b", "c"}[(i/2)%3])
	}

	eval, err := newTestEvaluator(SVMParams{C: 1, Tol: 1e-12, MaxIter: 1, Seed: 42}).Evaluate(features, labels, subjects)
	require.NoError(t, err)

	converge := 0
	for _, w := range eval.Warnings {
		if w.Kind == decoding.WarningConvergence {
			converge++
		}
	}
	assert.Equal(t, 3, converge)
	for _, s := range eval.SVM {
		assert.True(t, s.Defined)
	}
}

func TestEvaluate_InputValidation(t *testing.T) {
	ev := newTestEvaluator(DefaultSVMParams())

	_, err := ev.Evaluate([]float64{1, 2}, []volume.Valence{0}, []core.SubjectID{"a", "b"})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = ev.Evaluate([]float64{1, 2}, []volume.Valence{0, 1}, []core.SubjectID{"a"})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = ev.Evaluate([]float64{1, 2}, []volume.Valence{0, 5}, []core.SubjectID{"a", "b"})
	assert.ErrorIs(t, err, core.ErrInvalidLabel)
}
