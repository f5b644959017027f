package rfs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Handle is a typed reference to a file or a directory.
type Handle interface {
	// Path returns the handle's path.
	Path() string
	// IsDir returns true for directories.
	IsDir() bool
}

var (
	_ Handle = (*File)(nil)
	_ Handle = (*Dir)(nil)
)

// File is a handle for a single file on a Filesystem.
type File struct {
	path string
	fs   Filesystem
}

// NewFile inits a file handle.
func NewFile(fs Filesystem, path string) *File {
	return &File{path: path, fs: fs}
}

// NewFileFromURL inits a new file from an URL string, using the registered
// bucket factory for the URL scheme.
func NewFileFromURL(ctx context.Context, fullURL string) (*File, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, err
	}

	// store full path name and unset
	name := strings.TrimPrefix(path.Clean(u.Path), "/")
	if name == "." || name == "" {
		return nil, fmt.Errorf("rfs: invalid URL path %q", u.Path)
	}
	u.Path = "/"

	bucket, err := OpenURL(ctx, u)
	if err != nil {
		return nil, err
	}
	return NewFile(NewFilesystem(bucket), name), nil
}

// Path implements Handle.
func (f *File) Path() string { return f.path }

// IsDir implements Handle.
func (*File) IsDir() bool { return false }

// Exists checks whether the file exists.
func (f *File) Exists(ctx context.Context) (bool, error) {
	return f.fs.Has(ctx, f.path)
}

// Read reads the file.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	return f.fs.Read(ctx, f.path)
}

// ReadStream opens the file for reading.
func (f *File) ReadStream(ctx context.Context) (io.ReadCloser, error) {
	return f.fs.ReadStream(ctx, f.path)
}

// Write creates or updates the file.
func (f *File) Write(ctx context.Context, contents []byte, opts *WriteOptions) error {
	return f.fs.Put(ctx, f.path, contents, opts)
}

// WriteStream creates or updates the file using a stream.
func (f *File) WriteStream(ctx context.Context, r io.Reader, opts *WriteOptions) error {
	return f.fs.PutStream(ctx, f.path, r, opts)
}

// Update updates the existing file.
func (f *File) Update(ctx context.Context, contents []byte, opts *WriteOptions) error {
	return f.fs.Update(ctx, f.path, contents, opts)
}

// Rename renames the file and moves the handle along.
func (f *File) Rename(ctx context.Context, newPath string) error {
	if err := f.fs.Rename(ctx, f.path, newPath); err != nil {
		return err
	}
	f.path = newPath
	return nil
}

// Copy copies the file and returns a handle for the copy.
func (f *File) Copy(ctx context.Context, newPath string) (*File, error) {
	if err := f.fs.Copy(ctx, f.path, newPath); err != nil {
		return nil, err
	}
	return NewFile(f.fs, newPath), nil
}

// Delete deletes the file.
func (f *File) Delete(ctx context.Context) error {
	return f.fs.Delete(ctx, f.path)
}

// Metadata returns the file's meta info.
func (f *File) Metadata(ctx context.Context) (*MetaInfo, error) {
	return f.fs.Metadata(ctx, f.path)
}

// Size returns the file's size.
func (f *File) Size(ctx context.Context) (int64, error) {
	return f.fs.Size(ctx, f.path)
}

// MimeType returns the file's mime-type.
func (f *File) MimeType(ctx context.Context) (string, error) {
	return f.fs.MimeType(ctx, f.path)
}

// Timestamp returns the file's modification time.
func (f *File) Timestamp(ctx context.Context) (time.Time, error) {
	return f.fs.Timestamp(ctx, f.path)
}

// Visibility returns the file's visibility.
func (f *File) Visibility(ctx context.Context) (Visibility, error) {
	return f.fs.Visibility(ctx, f.path)
}

// Close closes the underlying file system.
func (f *File) Close() error {
	return f.fs.Close()
}

// --------------------------------------------------------------------

// Dir is a handle for a directory on a Filesystem.
type Dir struct {
	path string
	fs   Filesystem
}

// NewDir inits a directory handle.
func NewDir(fs Filesystem, path string) *Dir {
	return &Dir{path: path, fs: fs}
}

// Path implements Handle.
func (d *Dir) Path() string { return d.path }

// IsDir implements Handle.
func (*Dir) IsDir() bool { return true }

// Contents lists the directory contents.
func (d *Dir) Contents(ctx context.Context, recursive bool) ([]*MetaInfo, error) {
	return d.fs.ListContents(ctx, d.path, recursive)
}

// Create creates the directory.
func (d *Dir) Create(ctx context.Context) error {
	return d.fs.CreateDir(ctx, d.path)
}

// Delete deletes the directory with all its contents.
func (d *Dir) Delete(ctx context.Context) error {
	return d.fs.DeleteDir(ctx, d.path)
}
