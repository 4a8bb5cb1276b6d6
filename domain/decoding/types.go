package decoding

import (
	"fmt"
	"math"
	"strconv"

	"roidecode/domain/core"
)

// FoldScore is a per-fold AUC that may be undefined when the fold is degenerate
type FoldScore struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Reason  string  `json:"reason,omitempty"` // why the score is undefined
}

// Defined wraps a computed score
func Defined(v float64) FoldScore {
	return FoldScore{Value: v, Defined: true}
}

// Undefined marks a fold whose ranking score cannot be computed
func Undefined(reason string) FoldScore {
	return FoldScore{Reason: reason}
}

// String renders the score, "undefined" when not defined
func (s FoldScore) String() string {
	if !s.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(s.Value, 'f', 4, 64)
}

// DefinedValues returns the values of the defined scores, in order
func DefinedValues(scores []FoldScore) []float64 {
	out := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s.Defined {
			out = append(out, s.Value)
		}
	}
	return out
}

// WarningKind classifies non-fatal evaluation issues
type WarningKind string

const (
	WarningDegenerateFold WarningKind = "degenerate_fold"
	WarningConvergence    WarningKind = "convergence"
)

// Warning is a non-fatal issue attached to an ROI result
type Warning struct {
	Kind    WarningKind    `json:"kind"`
	Fold    int            `json:"fold"`
	Subject core.SubjectID `json:"subject,omitempty"`
	Message string         `json:"message"`
}

// String renders the warning for logs and reports
func (w Warning) String() string {
	return fmt.Sprintf("%s (fold %d, subject %s): %s", w.Kind, w.Fold, w.Subject, w.Message)
}

// Evaluation is the cross-validated output for one ROI column.
// SVM[i], Dummy[i] and HeldOut[i] all refer to fold i.
type Evaluation struct {
	HeldOut  []core.SubjectID `json:"held_out"`
	SVM      []FoldScore      `json:"svm_scores"`
	Dummy    []FoldScore      `json:"dummy_scores"`
	Warnings []Warning        `json:"warnings,omitempty"`
}

// NumFolds returns the number of folds evaluated
func (e *Evaluation) NumFolds() int {
	return len(e.HeldOut)
}

// TestResult is the outcome of the paired comparison
type TestResult struct {
	TStatistic float64 `json:"t_statistic"`
	PValue     float64 `json:"p_value"`
	DF         int     `json:"df"`
	Pairs      int     `json:"pairs"`
}

// ROIResult is one row of the results table
type ROIResult struct {
	ROIName     string  `json:"roi_name" db:"roi_name"`
	SVMAUC      float64 `json:"svm_auc" db:"svm_auc"`
	SVMStd      float64 `json:"svm_std" db:"svm_std"`
	DummyAUC    float64 `json:"dummy_auc" db:"dummy_auc"`
	DummyStd    float64 `json:"dummy_std" db:"dummy_std"`
	Difference  float64 `json:"difference" db:"difference"`
	TStatistic  float64 `json:"t_statistic" db:"t_statistic"`
	PValue      float64 `json:"p_value" db:"p_value"`
	Significant bool    `json:"significant" db:"significant"`

	DefinedFolds int         `json:"defined_folds" db:"defined_folds"`
	TotalFolds   int         `json:"total_folds" db:"total_folds"`
	Evaluation   *Evaluation `json:"evaluation,omitempty" db:"-"`
	Warnings     []Warning   `json:"warnings,omitempty" db:"-"`
}

// SkippedROI records an ROI that produced no row, with the reason
type SkippedROI struct {
	ROIName string `json:"roi_name" db:"roi_name"`
	Stage   string `json:"stage" db:"stage"` // extraction, cross_validation or comparison
	Reason  string `json:"reason" db:"reason"`
}

// ResultsTable is the final per-ROI output, rows in processing order
type ResultsTable struct {
	Rows    []ROIResult  `json:"rows"`
	Skipped []SkippedROI `json:"skipped,omitempty"`
}

// Columns is the header of the persisted results table
var Columns = []string{
	"roi_name", "svm_auc", "svm_std", "dummy_auc", "dummy_std",
	"difference", "t_statistic", "p_value", "significant",
}

// Record renders a row as strings in Columns order
func (r ROIResult) Record() []string {
	return []string{
		r.ROIName,
		formatFloat(r.SVMAUC),
		formatFloat(r.SVMStd),
		formatFloat(r.DummyAUC),
		formatFloat(r.DummyStd),
		formatFloat(r.Difference),
		formatFloat(r.TStatistic),
		formatFloat(r.PValue),
		strconv.FormatBool(r.Significant),
	}
}

// Names returns the ROI names of the table rows in order
func (t *ResultsTable) Names() []string {
	names := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.ROIName
	}
	return names
}

// SignificantCount returns how many rows pass the significance threshold
func (t *ResultsTable) SignificantCount() int {
	n := 0
	for _, r := range t.Rows {
		if r.Significant {
			n++
		}
	}
	return n
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
