// Package testutil builds safetensors fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Tensor describes a fixture tensor. DType defaults to F32.
type Tensor struct {
	DType string
	Shape []uint64
}

// PayloadByte fills the tensor data section of generated files so tests can tell
// payload bytes apart from zero padding.
const PayloadByte = 0xAB

// SafeTensors encodes tensors and metadata in safetensors format.
// Tensors are laid out in alphabetical order by name.
func SafeTensors(t *testing.T, tensors map[string]Tensor, metadata map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	var offset uint64
	for _, name := range names {
		info := tensors[name]
		dtype := info.DType
		if dtype == "" {
			dtype = "F32"
		}
		size := elementSize(dtype)
		for _, dim := range info.Shape {
			size *= dim
		}
		shape := info.Shape
		if shape == nil {
			shape = []uint64{}
		}
		header[name] = map[string]any{
			"dtype":        dtype,
			"shape":        shape,
			"data_offsets": [2]uint64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("Failed to marshal header: %v", err)
	}

	return Raw(headerJSON, int(offset)) //nolint:gosec // G115: fixture sizes are tiny
}

// Raw frames an arbitrary header with its length prefix and appends dataSize payload bytes.
func Raw(header []byte, dataSize int) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
	buf.Write(header)
	buf.Write(bytes.Repeat([]byte{PayloadByte}, dataSize))
	return buf.Bytes()
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

// WriteSafeTensors encodes a fixture and writes it to name inside dir.
func WriteSafeTensors(t *testing.T, dir, name string, tensors map[string]Tensor, metadata map[string]string) string {
	t.Helper()
	return WriteFile(t, dir, name, SafeTensors(t, tensors, metadata))
}

func elementSize(dtype string) uint64 {
	switch dtype {
	case "BOOL", "U8", "I8", "F8_E5M2", "F8_E4M3", "F8_E8M0":
		return 1
	case "I16", "U16", "F16", "BF16":
		return 2
	case "F64", "I64", "U64", "C64":
		return 8
	default:
		return 4
	}
}
