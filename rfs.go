// Package rfs decorates file systems with URL resolution.
//
// A ResolvableFS wraps any Filesystem together with a Resolver. Storage
// operations are passed straight through, while Resolve turns an object path
// into a public URI:
//
//	bucket, _ := rfs.Connect(ctx, "file:///var/data")
//	fs := rfs.New(rfs.NewFilesystem(bucket), rfs.NewPrefixResolver("/storage"))
//
//	_ = fs.Put(ctx, "images/avatar.png", data, nil)
//	fs.Resolve(ctx, "images/avatar.png") // => "/storage/images/avatar.png"
package rfs

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound must be returned by all implementations
	// when a requested object cannot be found.
	ErrNotFound = errors.New("rfs: object not found")

	// ErrExists is returned when an object is expected to be absent.
	ErrExists = errors.New("rfs: object already exists")

	// ErrRootViolation is returned on attempts to remove the root directory.
	ErrRootViolation = errors.New("rfs: root violation")

	// ErrInvalidArgument is returned for malformed arguments, such as nil streams.
	ErrInvalidArgument = errors.New("rfs: invalid argument")

	// ErrPluginNotFound is returned by Call for unregistered plugin methods.
	ErrPluginNotFound = errors.New("rfs: plugin not found")
)

// Bucket is an abstract storage bucket.
type Bucket interface {
	// Glob lists the files matching a glob pattern.
	Glob(ctx context.Context, pattern string) (Iterator, error)

	// Head returns an object's meta info.
	Head(ctx context.Context, name string) (*MetaInfo, error)

	// Open opens an object for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Create creates/opens a object for writing. The object is committed on Close.
	Create(ctx context.Context, name string, opts *WriteOptions) (io.WriteCloser, error)

	// Remove removes a object.
	Remove(ctx context.Context, name string) error

	// Close closes the bucket.
	Close() error
}

// MetaInfo contains meta information about an object.
type MetaInfo struct {
	Name        string            // name of the object
	Size        int64             // length of the content in bytes
	ModTime     time.Time         // modification time
	ContentType string            // content type, if known
	Metadata    map[string]string // custom metadata
}

// WriteOptions provide optional configuration when creating/writing objects.
type WriteOptions struct {
	ContentType string
	Metadata    map[string]string
}

// GetContentType returns the content type.
func (o *WriteOptions) GetContentType() string {
	if o != nil {
		return o.ContentType
	}
	return ""
}

// GetMetadata returns the metadata.
func (o *WriteOptions) GetMetadata() map[string]string {
	if o != nil {
		return o.Metadata
	}
	return nil
}

// Iterator iterates over objects
type Iterator interface {
	// Next advances the cursor to the next position.
	Next() bool
	// Name returns the name at the current cursor position.
	Name() string
	// Error returns the last iterator error, if any.
	Error() error
	// Close closes the iterator, should always be deferred.
	Close() error
}
