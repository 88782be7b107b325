// Package safetensors reads the header of safetensors container files.
//
// File layout:
//
//	[8 bytes: header size N (uint64 LE)]
//	[N bytes: JSON header]
//	[tensor data: raw bytes]
//
// The JSON header maps tensor names to their dtype, shape and byte range inside the
// data section. The reserved key "__metadata__" holds a free-form string-to-string map
// written by training tools.
//
// Only headers are of interest here. ReadHeader returns a buffer that has the real
// header bytes and a zero-filled payload of the correct length, so the offset checks in
// ReadMetadata and Deserialize pass without reading gigabytes of weights:
//
//	buf, err := safetensors.ReadHeader("model.safetensors")
//	if err != nil {
//	    return err
//	}
//	file, err := safetensors.Deserialize(buf)
//	if err != nil {
//	    return err
//	}
//	for _, t := range file.Catalog() {
//	    fmt.Println(t.Name, t.Shape)
//	}
package safetensors
