package rfs

import (
	"context"
	"io"
	"time"
)

// Visibility describes who may read an object.
type Visibility string

// Known visibilities.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid returns true for known visibilities.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Filesystem is the full set of storage operations.
type Filesystem interface {
	// Has checks whether a file exists.
	Has(ctx context.Context, path string) (bool, error)
	// Read reads a file.
	Read(ctx context.Context, path string) ([]byte, error)
	// ReadStream opens a file for reading.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)
	// ListContents lists the contents of a directory.
	ListContents(ctx context.Context, dir string, recursive bool) ([]*MetaInfo, error)

	// Metadata returns a file's meta info.
	Metadata(ctx context.Context, path string) (*MetaInfo, error)
	// Size returns a file's size.
	Size(ctx context.Context, path string) (int64, error)
	// MimeType returns a file's mime-type.
	MimeType(ctx context.Context, path string) (string, error)
	// Timestamp returns a file's modification time.
	Timestamp(ctx context.Context, path string) (time.Time, error)
	// Visibility returns a file's visibility.
	Visibility(ctx context.Context, path string) (Visibility, error)

	// Write writes a new file, fails with ErrExists if the file is present.
	Write(ctx context.Context, path string, contents []byte, opts *WriteOptions) error
	// WriteStream writes a new file using a stream.
	WriteStream(ctx context.Context, path string, r io.Reader, opts *WriteOptions) error
	// Update updates an existing file, fails with ErrNotFound if the file is missing.
	Update(ctx context.Context, path string, contents []byte, opts *WriteOptions) error
	// UpdateStream updates an existing file using a stream.
	UpdateStream(ctx context.Context, path string, r io.Reader, opts *WriteOptions) error
	// Put creates a file or updates it if it exists.
	Put(ctx context.Context, path string, contents []byte, opts *WriteOptions) error
	// PutStream creates a file or updates it if it exists, using a stream.
	PutStream(ctx context.Context, path string, r io.Reader, opts *WriteOptions) error

	// Rename renames a file.
	Rename(ctx context.Context, path, newPath string) error
	// Copy copies a file.
	Copy(ctx context.Context, path, newPath string) error
	// Delete deletes a file.
	Delete(ctx context.Context, path string) error
	// ReadAndDelete reads and deletes a file.
	ReadAndDelete(ctx context.Context, path string) ([]byte, error)

	// DeleteDir deletes a directory, fails with ErrRootViolation on the root.
	DeleteDir(ctx context.Context, dir string) error
	// CreateDir creates a directory.
	CreateDir(ctx context.Context, dir string) error
	// SetVisibility sets the visibility of a file.
	SetVisibility(ctx context.Context, path string, v Visibility) error

	// Get returns a typed file or directory handle.
	Get(ctx context.Context, path string) (Handle, error)
	// AddPlugin registers a plugin.
	AddPlugin(p Plugin) error
	// Call invokes a registered plugin.
	Call(ctx context.Context, method string, args ...interface{}) (interface{}, error)

	// Close closes the file system.
	Close() error
}

// Plugin extends a file system by a named method.
type Plugin interface {
	// Method returns the name the plugin is registered under.
	Method() string
	// Handle runs the plugin against fs.
	Handle(ctx context.Context, fs Filesystem, args ...interface{}) (interface{}, error)
}
