package safetensors

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karonar1/lora-viewer/internal/testutil"
)

func TestReadMetadata_Valid(t *testing.T) {
	buf := testutil.SafeTensors(t, map[string]testutil.Tensor{
		"weight": {Shape: []uint64{2, 3}},
		"bias":   {Shape: []uint64{3}, DType: "F16"},
	}, map[string]string{"format": "pt"})

	header, err := ReadMetadata(buf)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"format": "pt"}, header.Metadata)
	assert.Equal(t, []string{"bias", "weight"}, header.TensorNames())
	assert.Equal(t, F16, header.Tensors["bias"].DType)
}

func TestReadMetadata_EmptyTensorSharesStart(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "empty tensor sorts after",
			header: `{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"b":{"dtype":"F32","shape":[0],"data_offsets":[0,0]}}`,
		},
		{
			name:   "empty tensor sorts before",
			header: `{"a":{"dtype":"F32","shape":[0],"data_offsets":[0,0]},"b":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`,
		},
		{
			name:   "empty tensor at the end",
			header: `{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"z":{"dtype":"F32","shape":[0],"data_offsets":[4,4]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := testutil.Raw([]byte(tt.header), 4)

			header, err := ReadMetadata(buf)
			require.NoError(t, err)
			assert.Len(t, header.Tensors, 2)

			file, err := Deserialize(buf)
			require.NoError(t, err)
			assert.Len(t, file.Catalog(), 2)
		})
	}
}

func TestReadMetadata_NoMetadata(t *testing.T) {
	buf := testutil.SafeTensors(t, map[string]testutil.Tensor{"w": {Shape: []uint64{1}}}, nil)

	header, err := ReadMetadata(buf)
	require.NoError(t, err)
	assert.Nil(t, header.Metadata)
	assert.Len(t, header.Tensors, 1)
}

func TestReadMetadata_ZeroPaddedPayload(t *testing.T) {
	buf := testutil.SafeTensors(t, map[string]testutil.Tensor{"w": {Shape: []uint64{16}}}, nil)
	headerSize := binary.LittleEndian.Uint64(buf[:8])
	for i := int(headerSize) + 8; i < len(buf); i++ {
		buf[i] = 0
	}

	_, err := Deserialize(buf)
	assert.NoError(t, err)
}

func TestReadMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		buffer  []byte
		wantErr error
	}{
		{
			name:    "short buffer",
			buffer:  []byte{1, 0, 0},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "declared header past end",
			buffer:  testutil.Raw([]byte("{}"), 0)[:9],
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "not an object",
			buffer:  testutil.Raw([]byte(`["x"]`), 0),
			wantErr: ErrInvalidHeaderStart,
		},
		{
			name:    "non-string metadata",
			buffer:  testutil.Raw([]byte(`{"__metadata__":{"epochs":10}}`), 0),
			wantErr: ErrInvalidMetadata,
		},
		{
			name:    "missing data_offsets",
			buffer:  testutil.Raw([]byte(`{"w":{"dtype":"F32","shape":[1]}}`), 4),
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "gap before first tensor",
			buffer:  testutil.Raw([]byte(`{"w":{"dtype":"F32","shape":[1],"data_offsets":[4,8]}}`), 8),
			wantErr: ErrInvalidOffset,
		},
		{
			name: "overlap",
			buffer: testutil.Raw([]byte(`{"a":{"dtype":"F32","shape":[2],"data_offsets":[0,8]},`+
				`"b":{"dtype":"F32","shape":[2],"data_offsets":[4,12]}}`), 12),
			wantErr: ErrInvalidOffset,
		},
		{
			name:    "trailing bytes",
			buffer:  testutil.Raw([]byte(`{"w":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`), 8),
			wantErr: ErrIncompleteBuffer,
		},
		{
			name:    "range past end",
			buffer:  testutil.Raw([]byte(`{"w":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`), 4),
			wantErr: ErrIncompleteBuffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMetadata(tt.buffer)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = Deserialize(tt.buffer)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadMetadata_MalformedJSON(t *testing.T) {
	_, err := ReadMetadata(testutil.Raw([]byte(`{"w":`), 0))
	assert.Error(t, err)
}

func TestDeserialize_TensorChecks(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int
		wantErr error
	}{
		{
			name:    "unknown dtype",
			header:  `{"w":{"dtype":"Q4","shape":[4],"data_offsets":[0,2]}}`,
			size:    2,
			wantErr: ErrUnknownDType,
		},
		{
			name:    "shape does not match range",
			header:  `{"w":{"dtype":"F16","shape":[4],"data_offsets":[0,4]}}`,
			size:    4,
			wantErr: ErrInvalidTensorInfo,
		},
		{
			name:    "element count overflow",
			header:  `{"w":{"dtype":"U8","shape":[4294967296,4294967296],"data_offsets":[0,0]}}`,
			size:    0,
			wantErr: ErrInvalidTensorInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := testutil.Raw([]byte(tt.header), tt.size)

			// The header framing and offsets are fine on their own.
			_, err := ReadMetadata(buf)
			require.NoError(t, err)

			_, err = Deserialize(buf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDeserialize_PackedDTypes(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int
		wantErr error
	}{
		{
			name:   "F4 pairs per byte",
			header: `{"w":{"dtype":"F4","shape":[2,3],"data_offsets":[0,3]}}`,
			size:   3,
		},
		{
			name:   "F6 four per three bytes",
			header: `{"w":{"dtype":"F6_E2M3","shape":[4],"data_offsets":[0,3]}}`,
			size:   3,
		},
		{
			name:   "F8_E8M0",
			header: `{"w":{"dtype":"F8_E8M0","shape":[5],"data_offsets":[0,5]}}`,
			size:   5,
		},
		{
			name:   "C64",
			header: `{"w":{"dtype":"C64","shape":[2],"data_offsets":[0,16]}}`,
			size:   16,
		},
		{
			name:    "F4 odd element count",
			header:  `{"w":{"dtype":"F4","shape":[3],"data_offsets":[0,2]}}`,
			size:    2,
			wantErr: ErrInvalidTensorInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(testutil.Raw([]byte(tt.header), tt.size))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFile_CatalogSorted(t *testing.T) {
	buf := testutil.SafeTensors(t, map[string]testutil.Tensor{
		"zeta":  {Shape: []uint64{1}},
		"alpha": {Shape: []uint64{2, 2}},
		"mid":   {Shape: []uint64{}},
	}, nil)

	file, err := Deserialize(buf)
	require.NoError(t, err)

	assert.Equal(t, []TensorEntry{
		{Name: "alpha", Shape: []uint64{2, 2}},
		{Name: "mid", Shape: []uint64{}},
		{Name: "zeta", Shape: []uint64{1}},
	}, file.Catalog())
	assert.Equal(t, binary.LittleEndian.Uint64(buf[:8]), file.HeaderSize)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Err: ErrInvalidOffset, Tensor: "w", Details: "bad"}
	assert.Equal(t, `invalid tensor offset: tensor "w": bad`, err.Error())

	err = &ValidationError{Err: ErrHeaderTooLarge, Details: "got 1"}
	assert.Equal(t, "header exceeds maximum size: got 1", err.Error())
}
