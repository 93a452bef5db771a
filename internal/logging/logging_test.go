package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMultiHandler_RespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("run", "r1")

	logger.Debug("hashing", "path", "game.exe")
	logger.Info("uploaded", "path", "game.exe")

	assert.NotContains(t, infoBuf.String(), "hashing")
	assert.Contains(t, infoBuf.String(), "uploaded")
	assert.Contains(t, debugBuf.String(), "hashing")
	assert.Contains(t, debugBuf.String(), "run=r1")
}

func TestSetup_WritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logFile := filepath.Join(t.TempDir(), "logs", "clawdrop.log")
	var console bytes.Buffer

	closer, err := Setup(Options{Level: "info", FilePath: logFile, Console: &console})
	require.NoError(t, err)

	slog.Debug("only in file")
	slog.Info("everywhere")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in file")
	assert.Contains(t, string(data), "everywhere")
	assert.Contains(t, console.String(), "everywhere")
	assert.NotContains(t, console.String(), "only in file")
}
