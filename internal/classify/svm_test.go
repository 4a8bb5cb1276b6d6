package classify

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func column(values ...float64) [][]float64 {
	x := make([][]float64, len(values))
	for i, v := range values {
		x[i] = []float64{v}
	}
	return x
}

func TestLinearSVM_SeparableData(t *testing.T) {
	m := NewLinearSVM(DefaultSVMParams())
	m.Fit(column(-2, -1.5, -1, 1, 1.5, 2), []bool{false, false, false, true, true, true})

	assert.True(t, m.Converged)
	assert.Greater(t, m.W[0], 0.0)

	d := m.Decision(column(-3, 3))
	assert.Less(t, d[0], 0.0)
	assert.Greater(t, d[1], 0.0)
}

func TestLinearSVM_Deterministic(t *testing.T) {
	x, y := noisyData(40, 7)
	a := NewLinearSVM(DefaultSVMParams())
	b := NewLinearSVM(DefaultSVMParams())
	a.Fit(x, y)
	b.Fit(x, y)

	assert.Equal(t, a.W, b.W)
	assert.Equal(t, a.Bias, b.Bias)
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestLinearSVM_IterationCap(t *testing.T) {
	x, y := noisyData(40, 3)
	m := NewLinearSVM(SVMParams{C: 1, Tol: 1e-12, MaxIter: 1, Seed: 42})
	m.Fit(x, y)

	assert.False(t, m.Converged)
	assert.Equal(t, 1, m.Iterations)
	assert.Len(t, m.Decision(x), len(x)) // still usable
}

func TestStratifiedDummy(t *testing.T) {
	d := NewStratifiedDummy(42)
	d.Fit([]bool{true, false, false, false})
	assert.InDelta(t, 0.25, d.Positive, 1e-12)

	first := d.PredictProba(50)
	second := d.PredictProba(50)
	assert.Equal(t, first, second)
	for _, p := range first {
		assert.Contains(t, []float64{0, 1}, p)
	}

	d.Fit([]bool{false, false})
	assert.Equal(t, []float64{0, 0, 0}, d.PredictProba(3))

	d.Fit([]bool{true})
	assert.Equal(t, []float64{1, 1, 1}, d.PredictProba(3))
}

// noisyData draws overlapping classes so the solver needs several passes
func noisyData(n int, seed int64) ([][]float64, []bool) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]bool, n)
	for i := range x {
		y[i] = i%2 == 0
		center := -0.3
		if y[i] {
			center = 0.3
		}
		x[i] = []float64{center + rng.NormFloat64()}
	}
	return x, y
}
