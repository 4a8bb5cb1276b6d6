// Package comparison tests whether decoder fold scores differ from the
// chance baseline fold scores.
package comparison

import (
	"fmt"
	"math"

	"roidecode/domain/core"
	"roidecode/domain/decoding"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PairedTTest runs a two-sided paired t-test of a against b; a[i] pairs with b[i].
// When every difference is identical the statistic degenerates: no difference
// gives t=0, p=1, a constant non-zero difference gives t=±Inf, p=0.
func PairedTTest(a, b []float64) (decoding.TestResult, error) {
	if len(a) != len(b) {
		return decoding.TestResult{}, core.NewLengthMismatchError("baseline scores", len(b), len(a))
	}
	n := len(a)
	if n < 2 {
		return decoding.TestResult{}, core.NewInsufficientDataError(
			fmt.Sprintf("paired t-test needs at least 2 pairs, got %d", n))
	}

	diffs := make([]float64, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}
	mean, sd := stat.MeanStdDev(diffs, nil)
	df := n - 1
	result := decoding.TestResult{DF: df, Pairs: n}

	if sd == 0 {
		switch {
		case mean == 0:
			result.TStatistic, result.PValue = 0, 1
		case mean > 0:
			result.TStatistic, result.PValue = math.Inf(1), 0
		default:
			result.TStatistic, result.PValue = math.Inf(-1), 0
		}
		return result, nil
	}

	t := mean / stat.StdErr(sd, float64(n))
	result.TStatistic = t
	result.PValue = TwoSidedPValue(t, df)
	return result, nil
}

// TwoSidedPValue returns P(|T| >= |t|) for Student's t with df degrees of freedom
func TwoSidedPValue(t float64, df int) float64 {
	if df <= 0 {
		return 1.0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Min(p, 1)
}

// Compare pairs the classifier and baseline fold scores, keeping only folds
// where both are defined, and runs the paired test on what remains.
func Compare(svm, dummy []decoding.FoldScore) (decoding.TestResult, error) {
	if len(svm) != len(dummy) {
		return decoding.TestResult{}, core.NewLengthMismatchError("baseline fold scores", len(dummy), len(svm))
	}
	a := make([]float64, 0, len(svm))
	b := make([]float64, 0, len(svm))
	for i := range svm {
		if svm[i].Defined && dummy[i].Defined {
			a = append(a, svm[i].Value)
			b = append(b, dummy[i].Value)
		}
	}
	return PairedTTest(a, b)
}
