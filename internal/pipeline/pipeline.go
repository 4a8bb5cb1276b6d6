// Package pipeline wires extraction, per-ROI cross-validation, the paired
// comparison and aggregation into one decoding run.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/domain/volume"
	"roidecode/internal"
	"roidecode/internal/classify"
	"roidecode/internal/comparison"
	"roidecode/internal/extraction"
	"roidecode/internal/results"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Config is the explicit, fixed configuration of a decoding run
type Config struct {
	SVM     classify.SVMParams
	Alpha   float64
	Workers int
}

// DefaultConfig returns the standard classifier settings with alpha 0.05
func DefaultConfig() Config {
	return Config{
		SVM:     classify.DefaultSVMParams(),
		Alpha:   results.DefaultAlpha,
		Workers: runtime.NumCPU(),
	}
}

// Params flattens the configuration for hashing. Workers is left out: it
// changes scheduling, not results.
func (c Config) Params() map[string]interface{} {
	return map[string]interface{}{
		"svm_c":        c.SVM.C,
		"svm_tol":      c.SVM.Tol,
		"svm_max_iter": c.SVM.MaxIter,
		"seed":         c.SVM.Seed,
		"alpha":        c.Alpha,
	}
}

// Outcome is the product of a run
type Outcome struct {
	Manifest *run.Manifest
	Table    *decoding.ResultsTable
}

// ROIOutcome is the result of evaluating one ROI column; exactly one of
// Scores and Skipped is set
type ROIOutcome struct {
	Scores  *results.ROIScores
	Skipped *decoding.SkippedROI
}

// Pipeline runs decoding over a cohort
type Pipeline struct {
	cfg       Config
	extractor *extraction.Extractor
	evaluator *classify.Evaluator
	logger    *internal.Logger
}

// New creates a pipeline. A nil extractor gets a default one.
func New(cfg Config, extractor *extraction.Extractor, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if extractor == nil {
		extractor = extraction.NewExtractor(extraction.WithLogger(logger.With("extraction")))
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		evaluator: classify.NewEvaluator(cfg.SVM, logger),
		logger:    logger.With("pipeline"),
	}
}

// Run decodes valence in every usable ROI. A run with no usable mask fails
// with a configuration error, and fewer than two subjects fails before any
// classification. Problems confined to one ROI skip that ROI only.
func (p *Pipeline) Run(ctx context.Context, samples []volume.Sample, masks []volume.Mask) (*Outcome, error) {
	features, skipped, err := p.extractor.Extract(samples, masks)
	if err != nil {
		return nil, fmt.Errorf("signal extraction: %w", err)
	}

	labels := volume.Labels(samples)
	subjects := volume.Subjects(samples)
	folds, err := classify.LeaveOneSubjectOut(subjects)
	if err != nil {
		return nil, fmt.Errorf("cross-validation setup: %w", err)
	}

	intLabels := make([]int, len(labels))
	for i, l := range labels {
		intLabels[i] = int(l)
	}
	manifest := run.NewManifest(
		core.ComputeConfigHash(p.cfg.Params()),
		core.ComputeCohortHash(subjects, intLabels),
		p.cfg.SVM.Seed,
		len(samples), len(folds), features.ROIs,
	)
	p.logger.Info("run %s: %d samples, %d subjects, %d ROIs (%d skipped)",
		manifest.RunID, len(samples), len(folds), features.NumROIs(), len(skipped))

	outcomes, err := p.evaluateAll(ctx, features, labels, subjects)
	if err != nil {
		return nil, err
	}

	var scored []results.ROIScores
	for _, o := range outcomes {
		if o.Skipped != nil {
			skipped = append(skipped, *o.Skipped)
			continue
		}
		scored = append(scored, *o.Scores)
	}

	table := results.Aggregate(scored, p.cfg.Alpha)
	table.Skipped = skipped
	p.logger.Info("run %s: %d/%d ROIs significant at alpha=%.3g",
		manifest.RunID, table.SignificantCount(), len(table.Rows), p.cfg.Alpha)

	return &Outcome{Manifest: manifest, Table: table}, nil
}

// evaluateAll maps EvaluateROI over the feature columns with bounded
// parallelism; outcomes[j] always belongs to features.ROIs[j].
func (p *Pipeline) evaluateAll(ctx context.Context, features *volume.FeatureMatrix, labels []volume.Valence, subjects []core.SubjectID) ([]ROIOutcome, error) {
	outcomes := make([]ROIOutcome, features.NumROIs())
	sem := semaphore.NewWeighted(int64(p.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)

	for j, name := range features.ROIs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		j, name := j, name
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[j] = p.EvaluateROI(name, features.Column(j), labels, subjects)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// EvaluateROI cross-validates and compares a single ROI column. It reads
// only its arguments, so calls for different ROIs are independent.
func (p *Pipeline) EvaluateROI(name string, column []float64, labels []volume.Valence, subjects []core.SubjectID) ROIOutcome {
	eval, err := p.evaluator.Evaluate(column, labels, subjects)
	if err != nil {
		p.logger.Warn("ROI %s skipped during cross-validation: %v", name, err)
		return ROIOutcome{Skipped: &decoding.SkippedROI{ROIName: name, Stage: "cross_validation", Reason: err.Error()}}
	}
	for _, w := range eval.Warnings {
		p.logger.Debug("ROI %s: %s", name, w)
	}

	test, err := comparison.Compare(eval.SVM, eval.Dummy)
	if err != nil {
		p.logger.Warn("ROI %s skipped during comparison: %v", name, err)
		return ROIOutcome{Skipped: &decoding.SkippedROI{ROIName: name, Stage: "comparison", Reason: err.Error()}}
	}

	return ROIOutcome{Scores: &results.ROIScores{Name: name, Evaluation: eval, Test: test}}
}
