// Package target remembers the game a build directory was last pushed to.
package target

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/utils"
)

const FileName = "target.json"

// Game is a game the API key holder develops, as the control plane lists it.
type Game struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	URLIdentifier  string `json:"urlIdentifier,omitempty"`
	WindowsVersion string `json:"windowsVersion,omitempty"`
	LinuxVersion   string `json:"linuxVersion,omitempty"`
	MacVersion     string `json:"macVersion,omitempty"`
	HTMLVersion    string `json:"htmlVersion,omitempty"`
}

// VersionFor returns the published version for an os label, or "".
func (g *Game) VersionFor(platform string) string {
	if g == nil {
		return ""
	}
	switch platform {
	case "windows":
		return g.WindowsVersion
	case "linux":
		return g.LinuxVersion
	case "mac":
		return g.MacVersion
	case "html":
		return g.HTMLVersion
	}
	return ""
}

// Find picks a game by numeric id or by url identifier.
func Find(games []Game, ref string) (*Game, bool) {
	id, err := strconv.ParseUint(ref, 10, 64)
	for i := range games {
		if err == nil && games[i].ID == id {
			return &games[i], true
		}
		if err != nil && games[i].URLIdentifier != "" && games[i].URLIdentifier == ref {
			return &games[i], true
		}
	}
	return nil, false
}

// Store loads and saves the current target. Load returns (nil, nil) when no
// target was ever set.
type Store interface {
	Load() (*Game, error)
	Save(*Game) error
}

// FileStore keeps the target as JSON in a single file.
type FileStore struct {
	Path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Path: filepath.Join(dir, FileName)}
}

func (s *FileStore) Load() (*Game, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, syncerr.IO("read target", err)
	}

	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, syncerr.IO("read target", fmt.Errorf("parse %s: %w", s.Path, err))
	}
	return &g, nil
}

func (s *FileStore) Save(g *Game) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	if err := utils.EnsureParent(s.Path); err != nil {
		return syncerr.IO("save target", err)
	}

	// write next to the destination, then rename over it
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return syncerr.IO("save target", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return syncerr.IO("save target", err)
	}
	return nil
}

// Remove deletes the stored target. It reports false when none was set.
func (s *FileStore) Remove() (bool, error) {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, syncerr.IO("remove target", err)
	}
	return true, nil
}

var _ Store = (*FileStore)(nil)
