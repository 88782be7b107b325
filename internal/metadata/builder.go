package metadata

import (
	"fmt"
	"maps"

	"github.com/charmbracelet/log"

	"github.com/Karonar1/lora-viewer/internal/classify"
	"github.com/Karonar1/lora-viewer/internal/safetensors"
)

// Builder turns header buffers into records.
type Builder struct {
	classifier *classify.Classifier
}

// NewBuilder creates a builder classifying tensors with c. A nil c uses
// classify.Default.
func NewBuilder(c *classify.Classifier) *Builder {
	if c == nil {
		c = classify.Default()
	}
	return &Builder{classifier: c}
}

// Build extracts a record from a buffer produced by safetensors.ReadHeader. It never
// fails: a buffer that does not validate gives Empty(), and each field that cannot be
// extracted is left empty without affecting the others.
func (b *Builder) Build(buffer []byte) Record {
	record := Empty()

	header, err := safetensors.ReadMetadata(buffer)
	if err != nil {
		log.Debug("header validation failed", "error", err)
		return record
	}
	if header.Metadata != nil {
		record.RawMetadata = maps.Clone(header.Metadata)
	}

	record.TagFrequencies = AggregateTags(record.RawMetadata)

	if name, ok := record.RawMetadata[BaseModelKey]; ok {
		record.BaseModel = &name
	}

	if file, err := safetensors.Deserialize(buffer); err != nil {
		log.Debug("tensor table unavailable", "error", err)
	} else {
		record.Tensors = file.Catalog()
	}

	record.ModelTypes = b.classifier.Classify(record.Tensors)
	return record
}

// Load reads the header of the file at path and builds its record. Only failures to
// read the file are returned; see safetensors.ReadHeader.
func (b *Builder) Load(path string) (Record, error) {
	buffer, err := safetensors.ReadHeader(path)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return b.Build(buffer), nil
}

var defaultBuilder = NewBuilder(nil)

// Build is Builder.Build with the default classifier.
func Build(buffer []byte) Record {
	return defaultBuilder.Build(buffer)
}

// Load is Builder.Load with the default classifier.
func Load(path string) (Record, error) {
	return defaultBuilder.Load(path)
}
