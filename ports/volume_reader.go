package ports

import "roidecode/domain/volume"

// VolumeReader loads a 3D scalar image from a path
type VolumeReader interface {
	ReadVolume(path string) (volume.Volume, error)
}
