// Package inspect reads the header of safetensors model files and summarizes their
// training metadata.
//
// This package wraps the internal metadata, classify and safetensors packages and
// exports a small public API for programs that want loraview's records without the
// command line.
//
// Example usage:
//
//	import "github.com/Karonar1/lora-viewer/inspect"
//
//	record, err := inspect.Load("path/to/style.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(record.BaseModelOr("Unknown"))
//	for _, tag := range record.ModelTypes {
//	    fmt.Println(tag)
//	}
package inspect

import (
	"github.com/Karonar1/lora-viewer/internal/classify"
	"github.com/Karonar1/lora-viewer/internal/metadata"
	"github.com/Karonar1/lora-viewer/internal/safetensors"
)

// Record is the summary of one model file.
type Record = metadata.Record

// TagFrequency is one aggregated training tag and its summed weight.
type TagFrequency = metadata.TagFrequency

// TensorEntry is the name and shape of one tensor.
type TensorEntry = safetensors.TensorEntry

// Tag is a model type label such as "adapter/unet-sdxl/lora".
type Tag = classify.Tag

// RuleSet is a classification rule table.
type RuleSet = classify.RuleSet

// Builder produces records with a fixed classification rule table.
type Builder = metadata.Builder

// Errors returned when reading a file header.
var (
	ErrInvalidHeader  = safetensors.ErrInvalidHeader
	ErrHeaderTooLarge = safetensors.ErrHeaderTooLarge
)

// Load reads the header of the file at path and builds its record.
// The error is non-nil only when the header could not be read at all.
func Load(path string) (Record, error) {
	return metadata.Load(path)
}

// Build builds a record from a buffer returned by ReadHeader.
// It never fails; unparsable parts are left empty.
func Build(buffer []byte) Record {
	return metadata.Build(buffer)
}

// ReadHeader returns a buffer the size of the file holding the real header bytes.
// The tensor payload is not read and is zero-filled.
func ReadHeader(path string) ([]byte, error) {
	return safetensors.ReadHeader(path)
}

// DefaultRules returns the built-in classification rule table.
func DefaultRules() RuleSet {
	return classify.DefaultRules()
}

// LoadRules reads a YAML rule table; sections it leaves out keep their defaults.
func LoadRules(path string) (RuleSet, error) {
	return classify.LoadRules(path)
}

// NewBuilder returns a builder classifying tensors with rules.
func NewBuilder(rules RuleSet) *Builder {
	return metadata.NewBuilder(classify.New(rules))
}

// ParseTag parses the text form of a tag, e.g. "checkpoint/sdxl" or "vae/baked".
func ParseTag(s string) (Tag, error) {
	return classify.ParseTag(s)
}
