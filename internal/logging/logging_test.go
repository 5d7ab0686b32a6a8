package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_Fallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New("warn", "", &buf)
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", "project_id", "p1")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "project_id=p1")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gitlink.log")
	logger, closeFn, err := New("info", path, nil)
	require.NoError(t, err)

	logger.Info("server listening", "addr", "127.0.0.1:8080")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "server listening")
}

func TestFileWriter_TruncatesToNewestBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitlink.log")
	w, err := openFile(path, 16, 8)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte(strings.Repeat("a", 12)))
	require.NoError(t, err)
	_, err = w.Write([]byte("bbbbbbbb"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "bbbbbbbb", string(data))

	_, err = w.Write([]byte("cc"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "bbbbbbbbcc", string(data))
}

func TestOpenFile_TruncatesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitlink.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789abcdefXYZ"), 0o644))

	w, err := openFile(path, 16, 4)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fXYZ", string(data))
}
