package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"roidecode/adapters/nifti"
	"roidecode/domain/volume"
	"roidecode/internal"
	"roidecode/internal/config"
	"roidecode/internal/errors"
	"roidecode/internal/testkit"
)

// SynthResult describes a synthetic cohort written to disk
type SynthResult struct {
	SamplesFile string
	MaskDir     string
	ROIMasks    []config.ROIMask
	Samples     int
}

// WriteSyntheticCohort writes a generated cohort under dir as NIfTI betas,
// NIfTI masks and a CSV sample table labelled with cfg's group and targets
func WriteSyntheticCohort(dir string, spec testkit.CohortSpec, cfg config.DataConfig, logger *internal.Logger) (*SynthResult, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	betaDir := filepath.Join(dir, "betas")
	maskDir := filepath.Join(dir, "masks")
	for _, d := range []string{betaDir, maskDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, errors.IOError(d, err)
		}
	}

	samples, roiMasks := testkit.GenerateCohort(spec)

	result := &SynthResult{
		SamplesFile: filepath.Join(dir, "samples.csv"),
		MaskDir:     maskDir,
		Samples:     len(samples),
	}
	for _, m := range roiMasks {
		file := m.Name + ".nii.gz"
		if err := nifti.WriteFile(filepath.Join(maskDir, file), maskVolume(m)); err != nil {
			return nil, err
		}
		result.ROIMasks = append(result.ROIMasks, config.ROIMask{Name: m.Name, File: file})
	}

	rows := [][]string{{"beta_path", "group", "target", "subject"}}
	counts := make(map[string]int)
	for _, s := range samples {
		target := cfg.PositiveTarget
		if s.Label == volume.Negative {
			target = cfg.NegativeTarget
		}
		key := fmt.Sprintf("%s_%s", s.Subject, s.Label)
		counts[key]++
		file := fmt.Sprintf("%s_%02d.nii.gz", key, counts[key])

		if err := nifti.WriteFile(filepath.Join(betaDir, file), s.Image); err != nil {
			return nil, err
		}
		rows = append(rows, []string{filepath.Join("betas", file), cfg.CohortGroup, target, s.Subject.String()})
	}

	if err := writeCSV(result.SamplesFile, rows); err != nil {
		return nil, err
	}
	logger.Info("wrote %d synthetic samples and %d masks under %s", len(samples), len(roiMasks), dir)
	return result, nil
}

func maskVolume(m volume.Mask) volume.Volume {
	v := volume.NewVolume(m.Shape)
	for _, idx := range m.Indices() {
		v.Data[idx] = 1
	}
	return v
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.IOError(path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return errors.IOError(path, err)
	}
	return f.Close()
}
