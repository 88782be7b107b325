package safetensors

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// MaxHeaderSize bounds the length prefix plus JSON header accepted by ReadHeader.
const MaxHeaderSize = 100 << 20 // 100 MiB

// prefixSize is the length of the little-endian header size field.
const prefixSize = 8

// ReadHeader returns a buffer as long as the file at path, holding the length prefix and
// JSON header read from disk followed by zero bytes in place of the tensor data.
func ReadHeader(path string) ([]byte, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model inspection
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Read-only, nothing to flush
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	fileSize := stat.Size()

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}

	total, err := totalHeaderSize(headerSize)
	if err != nil {
		return nil, err
	}
	if total > uint64(fileSize) { //nolint:gosec // G115: Stat sizes are never negative
		return nil, &ValidationError{
			Err:     ErrInvalidHeader,
			Details: fmt.Sprintf("header of %d bytes exceeds file size %d", total, fileSize),
		}
	}

	// make zero-fills; only the header prefix is overwritten with file content.
	buffer := make([]byte, fileSize)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to start: %w", err)
	}
	if _, err := io.ReadFull(file, buffer[:total]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return buffer, nil
}

// totalHeaderSize returns headerSize plus the length prefix, checking overflow and the
// MaxHeaderSize bound.
func totalHeaderSize(headerSize uint64) (uint64, error) {
	if headerSize > math.MaxUint64-prefixSize {
		return 0, &ValidationError{
			Err:     ErrInvalidHeader,
			Details: fmt.Sprintf("header size %d overflows", headerSize),
		}
	}
	total := headerSize + prefixSize
	if total >= MaxHeaderSize {
		return 0, &ValidationError{
			Err:     ErrHeaderTooLarge,
			Details: fmt.Sprintf("got %d, max %d", total, MaxHeaderSize),
		}
	}
	return total, nil
}
