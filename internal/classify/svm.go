package classify

import (
	"math"
	"math/rand"
)

// SVMParams are the fixed settings of the linear SVM
type SVMParams struct {
	C       float64 // inverse regularization strength
	Tol     float64 // stopping tolerance on the projected gradient gap
	MaxIter int     // outer iteration cap
	Seed    int64   // seeds the coordinate permutation
}

// DefaultSVMParams mirrors the configuration defaults
func DefaultSVMParams() SVMParams {
	return SVMParams{C: 1.0, Tol: 1e-4, MaxIter: 10000, Seed: 42}
}

// LinearSVM is an L2-regularized squared-hinge linear SVM with an intercept
// (appended as a constant feature, so it is regularized too), trained by dual
// coordinate descent.
type LinearSVM struct {
	Params SVMParams

	W          []float64
	Bias       float64
	Iterations int
	Converged  bool
}

// NewLinearSVM creates an untrained model
func NewLinearSVM(p SVMParams) *LinearSVM {
	return &LinearSVM{Params: p}
}

// Fit trains on rows x with binary targets y (true = positive class).
// A model that stops at MaxIter is still usable; Converged reports it.
func (m *LinearSVM) Fit(x [][]float64, y []bool) {
	n := len(x)
	dim := 0
	if n > 0 {
		dim = len(x[0])
	}

	// augmented weight vector; the last entry is the intercept
	w := make([]float64, dim+1)
	alpha := make([]float64, n)
	sign := make([]float64, n)
	diag := 0.5 / m.Params.C
	qd := make([]float64, n)
	for i := range x {
		sign[i] = -1
		if y[i] {
			sign[i] = 1
		}
		qd[i] = diag + 1 // intercept feature contributes 1
		for _, v := range x[i] {
			qd[i] += v * v
		}
	}

	rng := rand.New(rand.NewSource(m.Params.Seed))
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}

	m.Converged = false
	iter := 0
	for iter < m.Params.MaxIter {
		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		rng.Shuffle(n, func(a, b int) { index[a], index[b] = index[b], index[a] })

		for _, i := range index {
			g := sign[i]*dot(w, x[i]) - 1 + alpha[i]*diag

			pg := g
			if alpha[i] == 0 && g > 0 {
				pg = 0
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Max(alpha[i]-g/qd[i], 0)
				d := (alpha[i] - old) * sign[i]
				for j, v := range x[i] {
					w[j] += d * v
				}
				w[dim] += d
			}
		}
		iter++

		if pgMax-pgMin <= m.Params.Tol {
			m.Converged = true
			break
		}
	}

	m.W = w[:dim]
	m.Bias = w[dim]
	m.Iterations = iter
}

// Decision returns the signed distance score w·x + b for each row
func (m *LinearSVM) Decision(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		s := m.Bias
		for j, v := range row {
			s += m.W[j] * v
		}
		out[i] = s
	}
	return out
}

// dot multiplies the feature part of the augmented w with x and adds the intercept
func dot(w, x []float64) float64 {
	s := w[len(w)-1]
	for j, v := range x {
		s += w[j] * v
	}
	return s
}
