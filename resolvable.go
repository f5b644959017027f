package rfs

import (
	"context"
	"io"
	"time"
)

// ResolvableFS combines a Filesystem with a Resolver.
// All storage operations are passed to the wrapped file system unchanged.
type ResolvableFS struct {
	fs       Filesystem
	resolver Resolver
}

var (
	_ Filesystem = (*ResolvableFS)(nil)
	_ Resolver   = (*ResolvableFS)(nil)
)

// New inits a new ResolvableFS.
func New(fs Filesystem, resolver Resolver) *ResolvableFS {
	return &ResolvableFS{fs: fs, resolver: resolver}
}

// Resolve resolves an object path to an URI.
func (r *ResolvableFS) Resolve(ctx context.Context, path string) string {
	return r.resolver.Resolve(ctx, path)
}

// Has implements Filesystem.
func (r *ResolvableFS) Has(ctx context.Context, path string) (bool, error) {
	return r.fs.Has(ctx, path)
}

// Read implements Filesystem.
func (r *ResolvableFS) Read(ctx context.Context, path string) ([]byte, error) {
	return r.fs.Read(ctx, path)
}

// ReadStream implements Filesystem.
func (r *ResolvableFS) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	return r.fs.ReadStream(ctx, path)
}

// ListContents implements Filesystem.
func (r *ResolvableFS) ListContents(ctx context.Context, dir string, recursive bool) ([]*MetaInfo, error) {
	return r.fs.ListContents(ctx, dir, recursive)
}

// Metadata implements Filesystem.
func (r *ResolvableFS) Metadata(ctx context.Context, path string) (*MetaInfo, error) {
	return r.fs.Metadata(ctx, path)
}

// Size implements Filesystem.
func (r *ResolvableFS) Size(ctx context.Context, path string) (int64, error) {
	return r.fs.Size(ctx, path)
}

// MimeType implements Filesystem.
func (r *ResolvableFS) MimeType(ctx context.Context, path string) (string, error) {
	return r.fs.MimeType(ctx, path)
}

// Timestamp implements Filesystem.
func (r *ResolvableFS) Timestamp(ctx context.Context, path string) (time.Time, error) {
	return r.fs.Timestamp(ctx, path)
}

// Visibility implements Filesystem.
func (r *ResolvableFS) Visibility(ctx context.Context, path string) (Visibility, error) {
	return r.fs.Visibility(ctx, path)
}

// Write implements Filesystem.
func (r *ResolvableFS) Write(ctx context.Context, path string, contents []byte, opts *WriteOptions) error {
	return r.fs.Write(ctx, path, contents, opts)
}

// WriteStream implements Filesystem.
func (r *ResolvableFS) WriteStream(ctx context.Context, path string, rd io.Reader, opts *WriteOptions) error {
	return r.fs.WriteStream(ctx, path, rd, opts)
}

// Update implements Filesystem.
func (r *ResolvableFS) Update(ctx context.Context, path string, contents []byte, opts *WriteOptions) error {
	return r.fs.Update(ctx, path, contents, opts)
}

// UpdateStream implements Filesystem.
func (r *ResolvableFS) UpdateStream(ctx context.Context, path string, rd io.Reader, opts *WriteOptions) error {
	return r.fs.UpdateStream(ctx, path, rd, opts)
}

// Put implements Filesystem.
func (r *ResolvableFS) Put(ctx context.Context, path string, contents []byte, opts *WriteOptions) error {
	return r.fs.Put(ctx, path, contents, opts)
}

// PutStream implements Filesystem.
func (r *ResolvableFS) PutStream(ctx context.Context, path string, rd io.Reader, opts *WriteOptions) error {
	return r.fs.PutStream(ctx, path, rd, opts)
}

// Rename implements Filesystem.
func (r *ResolvableFS) Rename(ctx context.Context, path, newPath string) error {
	return r.fs.Rename(ctx, path, newPath)
}

// Copy implements Filesystem.
func (r *ResolvableFS) Copy(ctx context.Context, path, newPath string) error {
	return r.fs.Copy(ctx, path, newPath)
}

// Delete implements Filesystem.
func (r *ResolvableFS) Delete(ctx context.Context, path string) error {
	return r.fs.Delete(ctx, path)
}

// ReadAndDelete implements Filesystem.
func (r *ResolvableFS) ReadAndDelete(ctx context.Context, path string) ([]byte, error) {
	return r.fs.ReadAndDelete(ctx, path)
}

// DeleteDir implements Filesystem.
func (r *ResolvableFS) DeleteDir(ctx context.Context, dir string) error {
	return r.fs.DeleteDir(ctx, dir)
}

// CreateDir implements Filesystem.
func (r *ResolvableFS) CreateDir(ctx context.Context, dir string) error {
	return r.fs.CreateDir(ctx, dir)
}

// SetVisibility implements Filesystem.
func (r *ResolvableFS) SetVisibility(ctx context.Context, path string, v Visibility) error {
	return r.fs.SetVisibility(ctx, path, v)
}

// Get implements Filesystem.
func (r *ResolvableFS) Get(ctx context.Context, path string) (Handle, error) {
	return r.fs.Get(ctx, path)
}

// AddPlugin implements Filesystem.
func (r *ResolvableFS) AddPlugin(p Plugin) error {
	return r.fs.AddPlugin(p)
}

// Call implements Filesystem.
func (r *ResolvableFS) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	return r.fs.Call(ctx, method, args...)
}

// Close implements Filesystem.
func (r *ResolvableFS) Close() error {
	return r.fs.Close()
}
