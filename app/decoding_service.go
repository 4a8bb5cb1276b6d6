package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"roidecode/adapters/excel"
	"roidecode/adapters/masks"
	"roidecode/internal"
	"roidecode/internal/classify"
	"roidecode/internal/config"
	"roidecode/internal/errors"
	"roidecode/internal/pipeline"
	"roidecode/internal/report"
	"roidecode/ports"
)

// Output file names written to the output directory
const (
	ResultsCSVFile  = "results.csv"
	ResultsXLSXFile = "results.xlsx"
	ReportFile      = "report.html"
	ManifestFile    = "manifest.json"
)

// DecodingService runs a configured decoding job from files to outputs
type DecodingService struct {
	volumes ports.VolumeReader
	repo    ports.ResultsRepository
	logger  *internal.Logger
}

// NewDecodingService creates the service. repo may be nil, in which case
// runs are written to disk only.
func NewDecodingService(volumes ports.VolumeReader, repo ports.ResultsRepository, logger *internal.Logger) *DecodingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DecodingService{volumes: volumes, repo: repo, logger: logger}
}

// PipelineConfig maps application configuration onto the pipeline's
func PipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		SVM: classify.SVMParams{
			C:       cfg.Classifier.C,
			Tol:     cfg.Classifier.Tol,
			MaxIter: cfg.Classifier.MaxIter,
			Seed:    cfg.Classifier.Seed,
		},
		Alpha:   cfg.Stats.Alpha,
		Workers: cfg.Workers,
	}
}

// Run loads the sample table, images and masks named by cfg, decodes every
// ROI, writes the outputs and, when a repository is set, stores the run
func (s *DecodingService) Run(ctx context.Context, cfg *config.Config) (*pipeline.Outcome, error) {
	records, err := excel.NewSampleTableReader(cfg.Data.SamplesFile, excel.SelectionFromConfig(cfg.Data), s.logger).Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sample table")
	}
	samples, err := excel.LoadSamples(records, s.volumes)
	if err != nil {
		return nil, err
	}

	loaded, missing, err := masks.NewLoader(cfg.Data.MaskDir, s.volumes, s.logger).Load(cfg.Data.ROIMasks)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.logger.Warn("%d configured ROI masks not found: %v", len(missing), missing)
	}

	outcome, err := pipeline.New(PipelineConfig(cfg), nil, s.logger).Run(ctx, samples, loaded)
	if err != nil {
		return nil, err
	}

	if err := WriteOutputs(cfg.Data.OutputDir, outcome); err != nil {
		return nil, err
	}
	s.logger.Info("wrote results for run %s to %s", outcome.Manifest.RunID, cfg.Data.OutputDir)

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, outcome.Manifest, outcome.Table); err != nil {
			return nil, errors.Wrap(err, "failed to store run")
		}
		s.logger.Info("stored run %s", outcome.Manifest.RunID)
	}
	return outcome, nil
}

// WriteOutputs writes the results table (CSV and XLSX), the HTML report and
// the run manifest into dir
func WriteOutputs(dir string, outcome *pipeline.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IOError(dir, err)
	}

	if err := excel.WriteResultsCSV(filepath.Join(dir, ResultsCSVFile), outcome.Table); err != nil {
		return err
	}
	if err := excel.WriteResultsXLSX(filepath.Join(dir, ResultsXLSXFile), outcome.Table); err != nil {
		return err
	}

	reportPath := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, report.HTML(outcome.Manifest, outcome.Table), 0o644); err != nil {
		return errors.IOError(reportPath, err)
	}

	manifest, err := json.MarshalIndent(outcome.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
		return errors.IOError(manifestPath, err)
	}
	return nil
}
