package classify

import (
	"roidecode/domain/decoding"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC returns the area under the ROC curve of scores against classes
// (true = positive). Tied scores earn half credit. With only one class
// present the score is undefined.
func AUC(scores []float64, classes []bool) decoding.FoldScore {
	pos, neg := countClasses(classes)
	if pos == 0 || neg == 0 {
		return decoding.Undefined("only one class present in held-out samples")
	}

	y := make([]float64, len(scores))
	c := make([]bool, len(classes))
	copy(y, scores)
	copy(c, classes)
	stat.SortWeightedLabeled(y, c, nil)

	tpr, fpr, _ := stat.ROC(nil, y, c, nil)
	return decoding.Defined(integrate.Trapezoidal(fpr, tpr))
}

func countClasses(classes []bool) (pos, neg int) {
	for _, c := range classes {
		if c {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}
