// Package results assembles per-ROI evaluations into the final results table.
package results

import (
	"math"

	"roidecode/domain/decoding"

	"github.com/montanaflynn/stats"
)

// DefaultAlpha is the significance threshold used when none is configured
const DefaultAlpha = 0.05

// ROIScores is everything known about one ROI once its comparison is done
type ROIScores struct {
	Name       string
	Evaluation *decoding.Evaluation
	Test       decoding.TestResult
}

// Aggregate turns ROI scores into table rows, keeping input order. Means and
// standard deviations (population) are taken over defined folds only.
func Aggregate(rows []ROIScores, alpha float64) *decoding.ResultsTable {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	table := &decoding.ResultsTable{Rows: make([]decoding.ROIResult, 0, len(rows))}
	for _, r := range rows {
		table.Rows = append(table.Rows, Row(r, alpha))
	}
	return table
}

// Row computes a single results row
func Row(r ROIScores, alpha float64) decoding.ROIResult {
	svm := decoding.DefinedValues(r.Evaluation.SVM)
	dummy := decoding.DefinedValues(r.Evaluation.Dummy)

	svmMean, svmStd := summarize(svm)
	dummyMean, dummyStd := summarize(dummy)

	defined := 0
	for i := range r.Evaluation.SVM {
		if r.Evaluation.SVM[i].Defined && r.Evaluation.Dummy[i].Defined {
			defined++
		}
	}

	return decoding.ROIResult{
		ROIName:      r.Name,
		SVMAUC:       svmMean,
		SVMStd:       svmStd,
		DummyAUC:     dummyMean,
		DummyStd:     dummyStd,
		Difference:   svmMean - dummyMean,
		TStatistic:   r.Test.TStatistic,
		PValue:       r.Test.PValue,
		Significant:  r.Test.PValue < alpha,
		DefinedFolds: defined,
		TotalFolds:   r.Evaluation.NumFolds(),
		Evaluation:   r.Evaluation,
		Warnings:     r.Evaluation.Warnings,
	}
}

func summarize(values []float64) (mean, std float64) {
	data := stats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil {
		return math.NaN(), math.NaN()
	}
	std, err = data.StandardDeviationPopulation()
	if err != nil {
		return mean, math.NaN()
	}
	return mean, std
}
