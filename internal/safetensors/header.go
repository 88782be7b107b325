package safetensors

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MetadataKey is the reserved header key holding free-form string metadata.
const MetadataKey = "__metadata__"

// DType is a safetensors element type.
type DType string

// Supported dtypes.
const (
	Bool   DType = "BOOL"
	F4     DType = "F4"
	F6E2M3 DType = "F6_E2M3"
	F6E3M2 DType = "F6_E3M2"
	U8     DType = "U8"
	I8     DType = "I8"
	F8E5M2 DType = "F8_E5M2"
	F8E4M3 DType = "F8_E4M3"
	F8E8M0 DType = "F8_E8M0"
	I16    DType = "I16"
	U16    DType = "U16"
	F16    DType = "F16"
	BF16   DType = "BF16"
	I32    DType = "I32"
	U32    DType = "U32"
	F32    DType = "F32"
	C64    DType = "C64"
	F64    DType = "F64"
	I64    DType = "I64"
	U64    DType = "U64"
)

// Bits returns the element size in bits, or 0 for an unknown dtype. F4 and the F6
// types pack several elements per byte.
func (d DType) Bits() uint64 {
	switch d {
	case F4:
		return 4
	case F6E2M3, F6E3M2:
		return 6
	case Bool, U8, I8, F8E5M2, F8E4M3, F8E8M0:
		return 8
	case I16, U16, F16, BF16:
		return 16
	case I32, U32, F32:
		return 32
	case F64, I64, U64, C64:
		return 64
	default:
		return 0
	}
}

// TensorInfo describes one tensor entry of the header.
type TensorInfo struct {
	DType       DType     `json:"dtype"`
	Shape       []uint64  `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"` // [start, end) relative to the data section
}

// TensorEntry is a (name, shape) row of the tensor catalog.
type TensorEntry struct {
	Name  string   `json:"name"`
	Shape []uint64 `json:"shape"`
}

// Header is the decoded JSON header.
type Header struct {
	Metadata map[string]string     // nil when the file has no __metadata__
	Tensors  map[string]TensorInfo // everything except __metadata__
}

// UnmarshalJSON implements custom JSON unmarshaling for Header.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}
	if rawMap == nil {
		return &ValidationError{Err: ErrInvalidHeader, Details: "header is not a JSON object"}
	}

	if metadataRaw, ok := rawMap[MetadataKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return &ValidationError{Err: ErrInvalidMetadata, Details: err.Error()}
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == MetadataKey {
			continue
		}
		info, err := decodeTensorInfo(value)
		if err != nil {
			return &ValidationError{Err: ErrInvalidHeader, Tensor: key, Details: err.Error()}
		}
		h.Tensors[key] = info
	}

	return nil
}

// decodeTensorInfo requires all three fields to be present.
func decodeTensorInfo(raw json.RawMessage) (TensorInfo, error) {
	var probe struct {
		DType       *DType     `json:"dtype"`
		Shape       []uint64   `json:"shape"`
		DataOffsets *[2]uint64 `json:"data_offsets"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return TensorInfo{}, err
	}
	if probe.DType == nil || probe.DataOffsets == nil || probe.Shape == nil {
		return TensorInfo{}, fmt.Errorf("missing dtype, shape or data_offsets")
	}
	return TensorInfo{DType: *probe.DType, Shape: probe.Shape, DataOffsets: *probe.DataOffsets}, nil
}

// TensorNames returns the tensor names sorted alphabetically.
func (h *Header) TensorNames() []string {
	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
