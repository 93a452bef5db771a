package fileindex

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultManifestName is the protocol-owned manifest written next to the build.
const DefaultManifestName = "manifest.json"

// ReservedNames lists remote paths owned by the protocol rather than the build.
// They are never proposed for deletion.
type ReservedNames struct {
	// ManifestSuffix defaults to DefaultManifestName.
	ManifestSuffix string
	// OriginalArchiveName is the archive of the first publish, if the server knows one.
	OriginalArchiveName string
}

func (r ReservedNames) IsReserved(path string) bool {
	suffix := r.ManifestSuffix
	if suffix == "" {
		suffix = DefaultManifestName
	}
	if strings.HasSuffix(path, suffix) {
		return true
	}
	return r.OriginalArchiveName != "" && strings.HasSuffix(path, r.OriginalArchiveName)
}

// DiffResult classifies paths between a local and a remote index.
// Unchanged records are only counted.
type DiffResult struct {
	Added     []FileRecord
	Modified  []FileRecord
	Deleted   []FileRecord
	Unchanged int
}

func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Modified) > 0 || len(d.Deleted) > 0
}

func (d *DiffResult) String() string {
	return fmt.Sprintf("added=%d modified=%d deleted=%d unchanged=%d",
		len(d.Added), len(d.Modified), len(d.Deleted), d.Unchanged)
}

// Diff compares local against remote. Local wins: anything only present
// remotely is deleted unless it is reserved. Output keeps input order, so
// canonical inputs give canonical outputs. A nil index counts as empty.
func Diff(local, remote *FileIndex, reserved ReservedNames) *DiffResult {
	result := &DiffResult{}

	remoteByPath := make(map[string]FileRecord, remote.Len())
	if remote != nil {
		for _, r := range remote.Files {
			remoteByPath[r.Path] = r
		}
	}

	localPaths := mapset.NewThreadUnsafeSetWithSize[string](local.Len())
	if local != nil {
		for _, l := range local.Files {
			localPaths.Add(l.Path)

			r, ok := remoteByPath[l.Path]
			switch {
			case !ok:
				result.Added = append(result.Added, l)
			case r.Hash != l.Hash:
				result.Modified = append(result.Modified, l)
			default:
				result.Unchanged++
			}
		}
	}

	if remote != nil {
		for _, r := range remote.Files {
			if localPaths.Contains(r.Path) || reserved.IsReserved(r.Path) {
				continue
			}
			result.Deleted = append(result.Deleted, r)
		}
	}

	return result
}
