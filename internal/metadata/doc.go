// Package metadata extracts training metadata, tag frequencies and model type tags
// from safetensors files written by LoRA training tools.
//
// Extraction is split into two tiers. Reading the file (Load) can fail and reports why:
// a missing file, an I/O error or an oversized header. Everything after that (Build) is
// best effort; malformed JSON, absent keys or an unparseable tensor table only leave the
// affected Record fields empty:
//
//	record, err := metadata.Load("style.safetensors")
//	if err != nil {
//	    return err // could not be loaded
//	}
//	fmt.Println(record.BaseModelOr("Unknown"))
//	for _, t := range record.TagFrequencies {
//	    fmt.Println(t.Tag, t.Weight)
//	}
package metadata
