package storage

import "io"

// Storage defines the interface for object storage addressed by
// "<bucket>/<object key>" paths.
type Storage interface {
	// Store writes object data and returns the number of bytes written.
	Store(objectPath string, data io.Reader) (int64, error)

	// Retrieve opens the stored object for reading. The caller must close it.
	Retrieve(objectPath string) (io.ReadCloser, error)

	// Delete removes the stored object.
	Delete(objectPath string) error

	// Exists checks whether the object exists in storage.
	Exists(objectPath string) (bool, error)
}
