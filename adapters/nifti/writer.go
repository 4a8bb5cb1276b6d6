package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"strings"

	"roidecode/domain/volume"
	"roidecode/internal/errors"
)

// Encode renders a volume as a little-endian float32 NIfTI-1 image with
// unit voxel size
func Encode(v volume.Volume) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	h := Header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  DTFloat32,
		Bitpix:    32,
		VoxOffset: minVoxOffset,
		SclSlope:  1,
		Pixdim:    [8]float32{1, 1, 1, 1, 1, 1, 1, 1},
	}
	h.Dim = [8]int16{3, int16(v.Shape[0]), int16(v.Shape[1]), int16(v.Shape[2]), 1, 1, 1, 1}
	copy(h.Magic[:], magicSingle)
	copy(h.Descrip[:], "roidecode")

	var buf bytes.Buffer
	buf.Grow(minVoxOffset + 4*len(v.Data))
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	// empty extension block
	buf.Write([]byte{0, 0, 0, 0})

	word := make([]byte, 4)
	for _, x := range v.Data {
		binary.LittleEndian.PutUint32(word, math.Float32bits(float32(x)))
		buf.Write(word)
	}
	return buf.Bytes(), nil
}

// WriteFile writes v to path, gzip-compressed when path ends in .gz
func WriteFile(path string, v volume.Volume) error {
	raw, err := Encode(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.IOError(path, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz := gzip.NewWriter(f)
		if _, err := gz.Write(raw); err != nil {
			return errors.IOError(path, err)
		}
		if err := gz.Close(); err != nil {
			return errors.IOError(path, err)
		}
	} else if _, err := f.Write(raw); err != nil {
		return errors.IOError(path, err)
	}
	return f.Close()
}
