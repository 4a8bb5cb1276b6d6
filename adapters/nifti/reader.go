// Package nifti reads and writes single-file NIfTI-1 images (.nii, .nii.gz).
package nifti

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"roidecode/domain/volume"
	"roidecode/internal/errors"
	"roidecode/ports"
)

// Reader implements ports.VolumeReader for NIfTI-1 files
type Reader struct{}

// NewReader creates a NIfTI reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadVolume loads the first 3D volume of the image at path
func (r *Reader) ReadVolume(path string) (volume.Volume, error) {
	return ReadFile(path)
}

var _ ports.VolumeReader = (*Reader)(nil)

// ReadFile loads the first 3D volume of a .nii or .nii.gz file with
// scl_slope/scl_inter applied
func ReadFile(path string) (volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return volume.Volume{}, errors.IOError(path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return volume.Volume{}, errors.IOError(path, err)
		}
		defer gz.Close()
		src = gz
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return volume.Volume{}, errors.IOError(path, err)
	}

	v, err := Decode(raw)
	if err != nil {
		return volume.Volume{}, errors.Wrapf(err, "read %s", path)
	}
	return v, nil
}

// Decode parses an uncompressed single-file NIfTI-1 image held in memory
func Decode(raw []byte) (volume.Volume, error) {
	h, order, err := decodeHeader(raw)
	if err != nil {
		return volume.Volume{}, err
	}

	size, err := bytesPerVoxel(h.Datatype)
	if err != nil {
		return volume.Volume{}, err
	}

	shape := volume.Shape(h.spatialShape())
	for i, n := range shape {
		if n < 1 {
			return volume.Volume{}, fmt.Errorf("invalid dim[%d]=%d", i+1, n)
		}
	}

	offset := int(h.VoxOffset)
	if offset < minVoxOffset {
		offset = minVoxOffset
	}
	need := offset + shape.Len()*size
	if len(raw) < need {
		return volume.Volume{}, fmt.Errorf("truncated voxel data: have %d bytes, need %d", len(raw), need)
	}

	v := volume.NewVolume(shape)
	data := raw[offset:need]
	for i := range v.Data {
		v.Data[i] = decodeVoxel(data[i*size:(i+1)*size], h.Datatype, order)
	}

	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	if slope != 0 && !math.IsNaN(slope) && !math.IsInf(slope, 0) {
		if math.IsNaN(inter) || math.IsInf(inter, 0) {
			inter = 0
		}
		if slope != 1 || inter != 0 {
			for i, x := range v.Data {
				v.Data[i] = x*slope + inter
			}
		}
	}
	return v, nil
}

func decodeVoxel(b []byte, datatype int16, order binary.ByteOrder) float64 {
	switch datatype {
	case DTUint8:
		return float64(b[0])
	case DTInt8:
		return float64(int8(b[0]))
	case DTInt16:
		return float64(int16(order.Uint16(b)))
	case DTUint16:
		return float64(order.Uint16(b))
	case DTInt32:
		return float64(int32(order.Uint32(b)))
	case DTUint32:
		return float64(order.Uint32(b))
	case DTFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case DTFloat64:
		return math.Float64frombits(order.Uint64(b))
	}
	return math.NaN()
}
