package fileindex

import (
	"bytes"
	"fmt"
)

// Encode returns the compact JSON form sent to the control plane.
func (idx *FileIndex) Encode() ([]byte, error) {
	return jsonMarshal(idx.normalized())
}

// EncodePretty returns the indented JSON form published next to the build.
func (idx *FileIndex) EncodePretty() ([]byte, error) {
	return jsonMarshalIndent(idx.normalized(), "", "  ")
}

// normalized never serializes files as null
func (idx *FileIndex) normalized() *FileIndex {
	if idx == nil || idx.Files == nil {
		return &FileIndex{Files: []FileRecord{}}
	}
	return idx
}

// Decode parses a published index. The result is sorted; duplicate or empty
// paths are rejected. An empty body decodes to an empty index.
func Decode(data []byte) (*FileIndex, error) {
	idx := &FileIndex{}
	if len(bytes.TrimSpace(data)) == 0 {
		return idx, nil
	}
	if err := jsonUnmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("decode fileindex: %w", err)
	}

	idx.Sort()
	for i, f := range idx.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("decode fileindex: record %d has an empty path", i)
		}
		if i > 0 && idx.Files[i-1].Path == f.Path {
			return nil, fmt.Errorf("decode fileindex: duplicate path %q", f.Path)
		}
	}
	return idx, nil
}
