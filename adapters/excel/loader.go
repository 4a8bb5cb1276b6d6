package excel

import (
	"roidecode/domain/volume"
	"roidecode/internal/errors"
	"roidecode/ports"
)

// LoadSamples reads every record's image. The first failure aborts the load.
func LoadSamples(records []SampleRecord, reader ports.VolumeReader) ([]volume.Sample, error) {
	samples := make([]volume.Sample, 0, len(records))
	for _, rec := range records {
		img, err := reader.ReadVolume(rec.BetaPath)
		if err != nil {
			return nil, errors.Wrapf(err, "load sample for subject %s (row %d)", rec.Subject, rec.Row)
		}
		samples = append(samples, volume.Sample{
			Image:   img,
			Label:   rec.Label,
			Subject: rec.Subject,
			Source:  rec.BetaPath,
		})
	}
	return samples, nil
}
