package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for empty object paths or paths escaping the root.
var ErrInvalidPath = errors.New("invalid object path")

// Compile-time check that FileSystem implements Storage.
var _ Storage = (*FileSystem)(nil)

// FileSystem implements Storage using the local filesystem.
// Objects are stored at <basePath>/<bucket>/<object key>.
type FileSystem struct {
	basePath string
}

// NewFileSystem creates a new FileSystem storage rooted at basePath.
func NewFileSystem(basePath string) *FileSystem {
	return &FileSystem{basePath: basePath}
}

// objectFile maps an object path to a file below basePath.
func (fs *FileSystem) objectFile(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return filepath.Join(fs.basePath, filepath.FromSlash(clean)), nil
}

// Store writes data from the reader to disk using atomic write (temp file + rename).
// It returns the number of bytes written.
func (fs *FileSystem) Store(objectPath string, data io.Reader) (int64, error) {
	dst, err := fs.objectFile(objectPath)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}
	tmpPath = ""

	return n, nil
}

// Retrieve opens the object file for reading.
func (fs *FileSystem) Retrieve(objectPath string) (io.ReadCloser, error) {
	file, err := fs.objectFile(objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", file, err)
	}
	return f, nil
}

// Delete removes the object file. Deleting a missing object returns no error.
func (fs *FileSystem) Delete(objectPath string) error {
	file, err := fs.objectFile(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file %s: %w", file, err)
	}
	return nil
}

// Exists checks whether the object is a regular file on disk.
func (fs *FileSystem) Exists(objectPath string) (bool, error) {
	file, err := fs.objectFile(objectPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(file)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking file %s: %w", file, err)
}
