package classify

import "math/rand"

// StratifiedDummy guesses classes at random following the training prior.
// Each prediction call starts a fresh generator from Seed, so identical
// inputs always receive identical guesses.
type StratifiedDummy struct {
	Seed     int64
	Positive float64 // training prior of the positive class
}

// NewStratifiedDummy creates an unfitted baseline
func NewStratifiedDummy(seed int64) *StratifiedDummy {
	return &StratifiedDummy{Seed: seed}
}

// Fit records the positive-class prior of y
func (d *StratifiedDummy) Fit(y []bool) {
	if len(y) == 0 {
		d.Positive = 0
		return
	}
	pos := 0
	for _, v := range y {
		if v {
			pos++
		}
	}
	d.Positive = float64(pos) / float64(len(y))
}

// PredictProba returns the positive-class probability of n samples: each is a
// one-hot draw, so the value is 0 or 1
func (d *StratifiedDummy) PredictProba(n int) []float64 {
	rng := rand.New(rand.NewSource(d.Seed))
	out := make([]float64, n)
	for i := range out {
		if rng.Float64() < d.Positive {
			out[i] = 1
		}
	}
	return out
}
