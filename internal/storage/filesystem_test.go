package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	data := []byte("hello, image data")

	n, err := fs.Store("media/2024/01/photo.jpg", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(filepath.Join(fs.basePath, "media", "2024", "01", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestExists(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	ok, err := fs.Exists("media/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.Store("media/a.png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)

	ok, err = fs.Exists("media/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	// A directory is not an object.
	ok, err = fs.Exists("media")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	_, err := fs.Store("media/b.gif", bytes.NewReader([]byte("gif")))
	require.NoError(t, err)

	require.NoError(t, fs.Delete("media/b.gif"))
	ok, err := fs.Exists("media/b.gif")
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent.
	assert.NoError(t, fs.Delete("media/b.gif"))
}

func TestRejectsInvalidPaths(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	for _, p := range []string{"", "/", "../etc/passwd", "media/../../x"} {
		_, err := fs.Exists(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestStoreOverwrite(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	_, err := fs.Store("media/c.jpg", bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	_, err = fs.Store("media/c.jpg", bytes.NewReader([]byte("second")))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(fs.basePath, "media", "c.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), content)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(fs.basePath, "media"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRetrieve(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	_, err := fs.Store("media/c.jpg", bytes.NewReader([]byte("jpeg bytes")))
	require.NoError(t, err)

	rc, err := fs.Retrieve("media/c.jpg")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(got))

	_, err = fs.Retrieve("media/missing.jpg")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
