package metadata

import (
	"sort"

	"github.com/Karonar1/lora-viewer/internal/classify"
	"github.com/Karonar1/lora-viewer/internal/safetensors"
)

// Well-known kohya-ss metadata keys.
const (
	TagFrequencyKey = "ss_tag_frequency"
	BaseModelKey    = "ss_sd_model_name"
)

// Record is everything extracted from one file. Fields that could not be read hold
// their empty values.
type Record struct {
	RawMetadata    map[string]string         `json:"raw_metadata"`
	TagFrequencies []TagFrequency            `json:"tag_frequencies"`
	BaseModel      *string                   `json:"base_model"`
	Tensors        []safetensors.TensorEntry `json:"tensors"`
	ModelTypes     []classify.Tag            `json:"model_types"`
}

// Empty returns a record with every field at its empty default.
func Empty() Record {
	return Record{
		RawMetadata:    map[string]string{},
		TagFrequencies: []TagFrequency{},
		Tensors:        []safetensors.TensorEntry{},
		ModelTypes:     []classify.Tag{},
	}
}

// BaseModelOr returns the base checkpoint name, or fallback when it is unknown.
func (r Record) BaseModelOr(fallback string) string {
	if r.BaseModel == nil {
		return fallback
	}
	return *r.BaseModel
}

// KeyValue is one raw metadata entry.
type KeyValue struct {
	Key   string
	Value string
}

// SortedMetadata returns the raw metadata ordered by key.
func (r Record) SortedMetadata() []KeyValue {
	entries := make([]KeyValue, 0, len(r.RawMetadata))
	for k, v := range r.RawMetadata {
		entries = append(entries, KeyValue{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}
