package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	headerSize    = 348
	minVoxOffset  = 352
	magicSingle   = "n+1\x00"
	maxDimensions = 7
)

// NIfTI-1 datatype codes
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
	DTInt8    int16 = 256
	DTUint16  int16 = 512
	DTUint32  int16 = 768
)

// Header is the fixed 348-byte NIfTI-1 header, laid out field for field
type Header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// decodeHeader parses the header and reports the byte order it was written in
func decodeHeader(raw []byte) (*Header, binary.ByteOrder, error) {
	if len(raw) < headerSize {
		return nil, nil, fmt.Errorf("truncated header: %d bytes", len(raw))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(raw[:4]) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw[:4]) == headerSize:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("not a NIfTI-1 file: sizeof_hdr=%d", binary.LittleEndian.Uint32(raw[:4]))
	}

	var h Header
	if err := binary.Read(bytes.NewReader(raw[:headerSize]), order, &h); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}
	if string(h.Magic[:]) != magicSingle {
		return nil, nil, fmt.Errorf("unsupported NIfTI magic %q", h.Magic[:3])
	}
	if h.Dim[0] < 1 || h.Dim[0] > maxDimensions {
		return nil, nil, fmt.Errorf("invalid dim[0]=%d", h.Dim[0])
	}
	return &h, order, nil
}

// spatialShape returns the first three dimensions; missing ones count as 1
func (h *Header) spatialShape() [3]int {
	shape := [3]int{1, 1, 1}
	for i := 0; i < 3 && i < int(h.Dim[0]); i++ {
		shape[i] = int(h.Dim[i+1])
	}
	return shape
}

// bytesPerVoxel returns the storage size of the header's datatype
func bytesPerVoxel(datatype int16) (int, error) {
	switch datatype {
	case DTUint8, DTInt8:
		return 1, nil
	case DTInt16, DTUint16:
		return 2, nil
	case DTInt32, DTUint32, DTFloat32:
		return 4, nil
	case DTFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported NIfTI datatype %d", datatype)
	}
}
