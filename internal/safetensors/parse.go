package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
)

// File is a fully deserialized safetensors header.
type File struct {
	Header
	HeaderSize uint64 // Length of the JSON header, excluding the 8-byte prefix
}

// ReadMetadata validates the framing, JSON header and tensor byte ranges of buffer and
// returns the decoded header. buffer must span the whole file; the tensor data itself is
// never inspected, so a zero-filled payload from ReadHeader is fine.
func ReadMetadata(buffer []byte) (*Header, error) {
	header, _, err := readMetadata(buffer)
	return header, err
}

func readMetadata(buffer []byte) (*Header, uint64, error) {
	if len(buffer) < prefixSize {
		return nil, 0, &ValidationError{
			Err:     ErrInvalidHeader,
			Details: fmt.Sprintf("buffer of %d bytes is shorter than the length prefix", len(buffer)),
		}
	}

	headerSize := binary.LittleEndian.Uint64(buffer[:prefixSize])
	total, err := totalHeaderSize(headerSize)
	if err != nil {
		return nil, 0, err
	}
	if total > uint64(len(buffer)) {
		return nil, 0, &ValidationError{
			Err:     ErrInvalidHeader,
			Details: fmt.Sprintf("declared header of %d bytes exceeds buffer of %d", total, len(buffer)),
		}
	}

	headerBytes := buffer[prefixSize:total]
	if len(headerBytes) == 0 || headerBytes[0] != '{' {
		return nil, 0, &ValidationError{Err: ErrInvalidHeaderStart, Details: "not a JSON object"}
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	if err := validateOffsets(header.Tensors, uint64(len(buffer))-total); err != nil {
		return nil, 0, err
	}

	return &header, headerSize, nil
}

// validateOffsets checks that the tensor byte ranges, ordered by (start, end), tile the
// data section exactly: no gaps, no overlaps, nothing past the end. Empty tensors may
// share their start with the tensor that follows them.
func validateOffsets(tensors map[string]TensorInfo, dataSize uint64) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := tensors[names[i]].DataOffsets, tensors[names[j]].DataOffsets
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return names[i] < names[j]
	})

	var cursor uint64
	for _, name := range names {
		start, end := tensors[name].DataOffsets[0], tensors[name].DataOffsets[1]
		if start != cursor || end < start {
			return &ValidationError{
				Err:     ErrInvalidOffset,
				Tensor:  name,
				Details: fmt.Sprintf("range [%d, %d) does not start at %d", start, end, cursor),
			}
		}
		cursor = end
	}

	if cursor != dataSize {
		return &ValidationError{
			Err:     ErrIncompleteBuffer,
			Details: fmt.Sprintf("tensors cover %d bytes, data section has %d", cursor, dataSize),
		}
	}
	return nil
}

// Deserialize validates buffer like ReadMetadata and additionally checks every tensor's
// dtype and that its shape matches its byte range.
func Deserialize(buffer []byte) (*File, error) {
	header, headerSize, err := readMetadata(buffer)
	if err != nil {
		return nil, err
	}

	for _, name := range header.TensorNames() {
		if err := validateTensorInfo(name, header.Tensors[name]); err != nil {
			return nil, err
		}
	}

	return &File{Header: *header, HeaderSize: headerSize}, nil
}

func validateTensorInfo(name string, info TensorInfo) error {
	bitSize := info.DType.Bits()
	if bitSize == 0 {
		return &ValidationError{Err: ErrUnknownDType, Tensor: name, Details: string(info.DType)}
	}

	elements := uint64(1)
	for _, dim := range info.Shape {
		hi, lo := bits.Mul64(elements, dim)
		if hi != 0 {
			return &ValidationError{Err: ErrInvalidTensorInfo, Tensor: name, Details: "element count overflows"}
		}
		elements = lo
	}
	hi, nbits := bits.Mul64(elements, bitSize)
	if hi != 0 {
		return &ValidationError{Err: ErrInvalidTensorInfo, Tensor: name, Details: "byte size overflows"}
	}
	if nbits%8 != 0 {
		return &ValidationError{
			Err:     ErrInvalidTensorInfo,
			Tensor:  name,
			Details: fmt.Sprintf("%d elements of %s do not fill whole bytes", elements, info.DType),
		}
	}
	nbytes := nbits / 8

	if span := info.DataOffsets[1] - info.DataOffsets[0]; span != nbytes {
		return &ValidationError{
			Err:     ErrInvalidTensorInfo,
			Tensor:  name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, range holds %d", info.Shape, info.DType, nbytes, span),
		}
	}
	return nil
}

// Catalog returns the tensor names and shapes sorted by name.
func (f *File) Catalog() []TensorEntry {
	names := f.TensorNames()
	entries := make([]TensorEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, TensorEntry{Name: name, Shape: f.Tensors[name].Shape})
	}
	return entries
}
