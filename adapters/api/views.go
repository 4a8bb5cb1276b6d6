package api

import (
	"math"

	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/ports"
)

// rowView is a results row as served over JSON; non-finite statistics
// (an infinite t for a constant non-zero difference) become null
type rowView struct {
	ROIName      string               `json:"roi_name"`
	SVMAUC       *float64             `json:"svm_auc"`
	SVMStd       *float64             `json:"svm_std"`
	DummyAUC     *float64             `json:"dummy_auc"`
	DummyStd     *float64             `json:"dummy_std"`
	Difference   *float64             `json:"difference"`
	TStatistic   *float64             `json:"t_statistic"`
	PValue       *float64             `json:"p_value"`
	Significant  bool                 `json:"significant"`
	DefinedFolds int                  `json:"defined_folds"`
	TotalFolds   int                  `json:"total_folds"`
	Evaluation   *decoding.Evaluation `json:"evaluation,omitempty"`
	Warnings     []decoding.Warning   `json:"warnings,omitempty"`
}

type runView struct {
	Manifest *run.Manifest         `json:"manifest"`
	Rows     []rowView             `json:"rows"`
	Skipped  []decoding.SkippedROI `json:"skipped"`
}

func newRunView(stored *ports.StoredRun) runView {
	view := runView{
		Manifest: stored.Manifest,
		Rows:     make([]rowView, 0, len(stored.Table.Rows)),
		Skipped:  stored.Table.Skipped,
	}
	if view.Skipped == nil {
		view.Skipped = []decoding.SkippedROI{}
	}
	for _, r := range stored.Table.Rows {
		view.Rows = append(view.Rows, rowView{
			ROIName:      r.ROIName,
			SVMAUC:       finite(r.SVMAUC),
			SVMStd:       finite(r.SVMStd),
			DummyAUC:     finite(r.DummyAUC),
			DummyStd:     finite(r.DummyStd),
			Difference:   finite(r.Difference),
			TStatistic:   finite(r.TStatistic),
			PValue:       finite(r.PValue),
			Significant:  r.Significant,
			DefinedFolds: r.DefinedFolds,
			TotalFolds:   r.TotalFolds,
			Evaluation:   r.Evaluation,
			Warnings:     r.Warnings,
		})
	}
	return view
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
