package target

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(t.TempDir())

	g, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestFileStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "Clawdrop")
	s := NewFileStore(dir)

	want := &Game{ID: 42, Title: "Bunny Hop", URLIdentifier: "bunny-hop", WindowsVersion: "1.0.9", HTMLVersion: "0.3"}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(s.Path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_ReadsCamelCase(t *testing.T) {
	dir := t.TempDir()
	raw := `{"id":7,"title":"Cave","urlIdentifier":null,"windowsVersion":"2.0","linuxVersion":null,"macVersion":"1.1","htmlVersion":null}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0o644))

	g, err := NewFileStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), g.ID)
	assert.Equal(t, "2.0", g.VersionFor("windows"))
	assert.Equal(t, "", g.VersionFor("linux"))
	assert.Equal(t, "1.1", g.VersionFor("mac"))
	assert.Equal(t, "", g.VersionFor("amiga"))
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	_, err := NewFileStore(dir).Load()
	assert.ErrorIs(t, err, syncerr.ErrIO)
}

func TestVersionFor_NilGame(t *testing.T) {
	var g *Game
	assert.Equal(t, "", g.VersionFor("windows"))
}

func TestFind(t *testing.T) {
	games := []Game{
		{ID: 7, Title: "Cave"},
		{ID: 42, Title: "Bunny Hop", URLIdentifier: "bunny-hop"},
		{ID: 99, Title: "Numbers", URLIdentifier: "7"},
	}

	g, ok := Find(games, "42")
	require.True(t, ok)
	assert.Equal(t, "Bunny Hop", g.Title)

	g, ok = Find(games, "bunny-hop")
	require.True(t, ok)
	assert.Equal(t, uint64(42), g.ID)

	// numeric refs only match ids
	g, ok = Find(games, "7")
	require.True(t, ok)
	assert.Equal(t, "Cave", g.Title)

	_, ok = Find(games, "missing")
	assert.False(t, ok)
	_, ok = Find(games, "")
	assert.False(t, ok)
	_, ok = Find(nil, "42")
	assert.False(t, ok)
}

func TestFileStore_Remove(t *testing.T) {
	s := NewFileStore(t.TempDir())

	removed, err := s.Remove()
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.Save(&Game{ID: 1, Title: "x"}))
	removed, err = s.Remove()
	require.NoError(t, err)
	assert.True(t, removed)

	g, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, g)
}
