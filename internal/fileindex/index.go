// Package fileindex builds content-addressed indexes of a build directory
// and compares them to decide what has to be uploaded or deleted.
package fileindex

import (
	"slices"
	"strings"
)

// FileRecord describes one regular file under the build root.
type FileRecord struct {
	// Path is root-relative with forward slashes and no leading slash.
	Path string `json:"path"`
	Size int64  `json:"size"`
	// Hash is the hex encoded SHA-256 of the file contents.
	Hash        string `json:"hash"`
	ContentType string `json:"contentType"`
}

// FileIndex is the content manifest of a build. Files are kept sorted by path
// and paths are unique. The zero value is an empty index.
type FileIndex struct {
	Files []FileRecord `json:"files"`
}

func comparePath(a, b FileRecord) int {
	return strings.Compare(a.Path, b.Path)
}

// Sort puts the index in canonical order.
func (idx *FileIndex) Sort() {
	slices.SortFunc(idx.Files, comparePath)
}

func (idx *FileIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Files)
}

// Get finds a record by path with a binary search over the sorted files.
func (idx *FileIndex) Get(path string) (FileRecord, bool) {
	if idx == nil {
		return FileRecord{}, false
	}
	i, found := slices.BinarySearchFunc(idx.Files, path, func(r FileRecord, p string) int {
		return strings.Compare(r.Path, p)
	})
	if !found {
		return FileRecord{}, false
	}
	return idx.Files[i], true
}

func (idx *FileIndex) Paths() []string {
	if idx == nil {
		return nil
	}
	paths := make([]string, len(idx.Files))
	for i, f := range idx.Files {
		paths[i] = f.Path
	}
	return paths
}

func (idx *FileIndex) TotalSize() int64 {
	if idx == nil {
		return 0
	}
	var total int64
	for _, f := range idx.Files {
		total += f.Size
	}
	return total
}

// Equal reports whether both indexes hold the same records in the same order.
func (idx *FileIndex) Equal(other *FileIndex) bool {
	if idx.Len() != other.Len() {
		return false
	}
	for i := range idx.Len() {
		if idx.Files[i] != other.Files[i] {
			return false
		}
	}
	return true
}
