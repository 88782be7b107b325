package scanner

import (
	"sync"
	"sync/atomic"

	"github.com/Karonar1/lora-viewer/internal/metadata"
)

// LoadFunc loads the record for one file.
type LoadFunc func(path string) (metadata.Record, error)

// Entry is a file and its lazily computed record.
type Entry struct {
	Path string

	load   LoadFunc
	once   sync.Once
	loaded atomic.Bool
	record metadata.Record
	err    error
}

// NewEntry creates an entry whose record is computed by load on first use.
func NewEntry(path string, load LoadFunc) *Entry {
	return &Entry{Path: path, load: load}
}

// Record computes the record on first call and returns it. When the file could not be
// read the error is returned along with an empty record.
func (e *Entry) Record() (metadata.Record, error) {
	e.once.Do(func() {
		e.record, e.err = e.load(e.Path)
		if e.err != nil {
			e.record = metadata.Empty()
		}
		e.loaded.Store(true)
	})
	return e.record, e.err
}

// Loaded reports whether the record has been computed.
func (e *Entry) Loaded() bool {
	return e.loaded.Load()
}
