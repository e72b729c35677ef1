package storage

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/apperr"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), "http://localhost:8081/")
	require.NoError(t, err)
	return fs
}

func TestSaveWritesBlobAndReturnsURL(t *testing.T) {
	fs := newTestStore(t)
	content := []byte("fake png bytes")

	url, err := fs.Save("avatars", "me.PNG", int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8081/files/avatars/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, "http://localhost:8081/files/")
	saved, err := os.ReadFile(filepath.Join(fs.BaseDir(), rel))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestSaveRejectsDeclaredOversize(t *testing.T) {
	fs := newTestStore(t)

	_, err := fs.Save("avatars", "big.png", MaxUploadBytes+1, bytes.NewReader(nil))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	// Nothing may have been written.
	entries, err := os.ReadDir(fs.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsUnderdeclaredOversize(t *testing.T) {
	fs := newTestStore(t)
	body := bytes.Repeat([]byte("x"), MaxUploadBytes+1)

	// Declared size lies; the copy cap catches it.
	_, err := fs.Save("avatars", "sneaky.jpg", 100, bytes.NewReader(body))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	entries, err := os.ReadDir(filepath.Join(fs.BaseDir(), "avatars"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	fs := newTestStore(t)

	_, err := fs.Save("avatars", "script.svg", 10, strings.NewReader("<svg/>"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRemoveDeletesSavedFile(t *testing.T) {
	fs := newTestStore(t)

	url, err := fs.Save("logos", "logo.webp", 4, strings.NewReader("webp"))
	require.NoError(t, err)

	require.NoError(t, fs.Remove(url))

	rel := strings.TrimPrefix(url, "http://localhost:8081/files/")
	_, err = os.Stat(filepath.Join(fs.BaseDir(), rel))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveIgnoresForeignAndTraversalURLs(t *testing.T) {
	fs := newTestStore(t)

	assert.NoError(t, fs.Remove("http://elsewhere.example/files/avatars/x.png"))
	assert.NoError(t, fs.Remove("http://localhost:8081/files/../../etc/passwd"))
	assert.NoError(t, fs.Remove("http://localhost:8081/files/avatars/missing.png"))
}
