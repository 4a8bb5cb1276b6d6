// Package masks loads named ROI masks from a mask directory.
package masks

import (
	stderrors "errors"
	"io/fs"
	"os"

	"roidecode/domain/volume"
	"roidecode/internal"
	"roidecode/internal/config"
	"roidecode/internal/errors"
	"roidecode/ports"
)

// Loader resolves configured ROI masks to binarized volumes
type Loader struct {
	dir    string
	reader ports.VolumeReader
	logger *internal.Logger
}

// NewLoader creates a loader for masks under dir
func NewLoader(dir string, reader ports.VolumeReader, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{dir: dir, reader: reader, logger: logger.With("masks")}
}

// Load reads the masks in mapping order. A mask whose file does not exist
// is left out and its name returned in missing; any other read failure is
// an error.
func (l *Loader) Load(mapping []config.ROIMask) (loaded []volume.Mask, missing []string, err error) {
	for _, m := range mapping {
		path := config.MaskPathIn(l.dir, m)
		if _, statErr := os.Stat(path); stderrors.Is(statErr, fs.ErrNotExist) {
			l.logger.Warn("mask file for ROI %s not found at %s; ROI skipped", m.Name, path)
			missing = append(missing, m.Name)
			continue
		}

		img, readErr := l.reader.ReadVolume(path)
		if readErr != nil {
			return nil, nil, errors.Wrapf(readErr, "load mask %s", m.Name)
		}
		mask := volume.MaskFromVolume(m.Name, img)
		l.logger.Debug("mask %s: %d voxels on %s grid", m.Name, mask.Count(), mask.Shape)
		loaded = append(loaded, mask)
	}
	l.logger.Info("loaded %d of %d ROI masks", len(loaded), len(mapping))
	return loaded, missing, nil
}
