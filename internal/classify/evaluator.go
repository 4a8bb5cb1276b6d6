// Package classify scores one ROI feature column with a linear SVM and a
// stratified chance baseline under leave-one-subject-out cross-validation.
package classify

import (
	"fmt"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/volume"
	"roidecode/internal"
)

// Evaluator runs the cross-validation for one ROI at a time. It holds no
// mutable state, so one Evaluator can serve concurrent ROI evaluations.
type Evaluator struct {
	params SVMParams
	logger *internal.Logger
}

// NewEvaluator creates an evaluator with fixed classifier settings
func NewEvaluator(params SVMParams, logger *internal.Logger) *Evaluator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Evaluator{params: params, logger: logger.With("classify")}
}

// Params returns the classifier settings
func (e *Evaluator) Params() SVMParams {
	return e.params
}

// Evaluate returns per-fold AUCs for the SVM and the baseline, aligned by fold.
// Fewer than two subjects is an insufficient-data error. Degenerate folds and
// solver non-convergence are reported as warnings, never as errors.
func (e *Evaluator) Evaluate(features []float64, labels []volume.Valence, subjects []core.SubjectID) (*decoding.Evaluation, error) {
	if len(labels) != len(features) {
		return nil, core.NewLengthMismatchError("labels", len(labels), len(features))
	}
	if len(subjects) != len(features) {
		return nil, core.NewLengthMismatchError("subject ids", len(subjects), len(features))
	}
	classes := make([]bool, len(labels))
	for i, l := range labels {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: sample %d has label %d", core.ErrInvalidLabel, i, int(l))
		}
		classes[i] = l == volume.Negative
	}

	folds, err := LeaveOneSubjectOut(subjects)
	if err != nil {
		return nil, err
	}

	eval := &decoding.Evaluation{
		HeldOut: make([]core.SubjectID, len(folds)),
		SVM:     make([]decoding.FoldScore, len(folds)),
		Dummy:   make([]decoding.FoldScore, len(folds)),
	}

	for _, fold := range folds {
		eval.HeldOut[fold.Index] = fold.Subject
		svmScore, dummyScore, warnings := e.scoreFold(fold, features, classes)
		eval.SVM[fold.Index] = svmScore
		eval.Dummy[fold.Index] = dummyScore
		eval.Warnings = append(eval.Warnings, warnings...)
	}
	return eval, nil
}

func (e *Evaluator) scoreFold(fold Fold, features []float64, classes []bool) (decoding.FoldScore, decoding.FoldScore, []decoding.Warning) {
	xTrain, yTrain := gather(fold.Train, features, classes)
	xTest, yTest := gather(fold.Test, features, classes)

	if pos, neg := countClasses(yTrain); pos == 0 || neg == 0 {
		reason := "only one class present in training samples"
		e.logger.Debug("fold %d (%s): %s", fold.Index, fold.Subject, reason)
		return decoding.Undefined(reason), decoding.Undefined(reason), []decoding.Warning{{
			Kind: decoding.WarningDegenerateFold, Fold: fold.Index, Subject: fold.Subject, Message: reason,
		}}
	}

	var warnings []decoding.Warning

	svm := NewLinearSVM(e.params)
	svm.Fit(xTrain, yTrain)
	if !svm.Converged {
		warnings = append(warnings, decoding.Warning{
			Kind:    decoding.WarningConvergence,
			Fold:    fold.Index,
			Subject: fold.Subject,
			Message: fmt.Sprintf("linear solver did not converge within %d iterations", e.params.MaxIter),
		})
	}
	svmScore := AUC(svm.Decision(xTest), yTest)

	dummy := NewStratifiedDummy(e.params.Seed)
	dummy.Fit(yTrain)
	dummyScore := AUC(dummy.PredictProba(len(xTest)), yTest)

	if !svmScore.Defined {
		e.logger.Debug("fold %d (%s): %s", fold.Index, fold.Subject, svmScore.Reason)
		warnings = append(warnings, decoding.Warning{
			Kind: decoding.WarningDegenerateFold, Fold: fold.Index, Subject: fold.Subject, Message: svmScore.Reason,
		})
	}
	return svmScore, dummyScore, warnings
}

// gather reshapes the selected single-feature values into one-column rows
func gather(idx []int, features []float64, classes []bool) ([][]float64, []bool) {
	x := make([][]float64, len(idx))
	y := make([]bool, len(idx))
	for k, i := range idx {
		x[k] = []float64{features[i]}
		y[k] = classes[i]
	}
	return x, y
}
