package rfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bsm/rfs/internal"
	"go.uber.org/multierr"
)

// MetaVisibility is the metadata key visibility is stored under.
const MetaVisibility = "visibility"

const defaultContentType = "application/octet-stream"

type supportsMkdirAll interface {
	MkdirAll(context.Context, string) error
}

type supportsRemoveDir interface {
	RemoveDir(context.Context, string) error
}

type supportsDirExists interface {
	DirExists(context.Context, string) (bool, error)
}

type supportsSetVisibility interface {
	SetVisibility(context.Context, string, Visibility) error
}

// Option configures a BucketFS.
type Option func(*BucketFS)

// WithVisibility sets the visibility assumed for objects without one.
// Unknown values are ignored.
func WithVisibility(v Visibility) Option {
	return func(b *BucketFS) {
		if v.IsValid() {
			b.visibility = v
		}
	}
}

// BucketFS implements Filesystem on top of a Bucket.
type BucketFS struct {
	bucket     Bucket
	visibility Visibility

	plugins map[string]Plugin
	mu      sync.RWMutex
}

var _ Filesystem = (*BucketFS)(nil)

// NewFilesystem wraps a bucket.
func NewFilesystem(bucket Bucket, opts ...Option) *BucketFS {
	b := &BucketFS{
		bucket:     bucket,
		visibility: VisibilityPublic,
		plugins:    make(map[string]Plugin),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bucket returns the underlying bucket.
func (b *BucketFS) Bucket() Bucket { return b.bucket }

// Has implements Filesystem.
func (b *BucketFS) Has(ctx context.Context, name string) (bool, error) {
	_, err := b.bucket.Head(ctx, internal.NormObjectName(name))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Read implements Filesystem.
func (b *BucketFS) Read(ctx context.Context, name string) ([]byte, error) {
	return ReadObject(ctx, b.bucket, internal.NormObjectName(name))
}

// ReadStream implements Filesystem.
func (b *BucketFS) ReadStream(ctx context.Context, name string) (io.ReadCloser, error) {
	return b.bucket.Open(ctx, internal.NormObjectName(name))
}

// ListContents implements Filesystem.
func (b *BucketFS) ListContents(ctx context.Context, dir string, recursive bool) (_ []*MetaInfo, err error) {
	dir = internal.NormObjectName(dir)

	pattern := "*"
	if recursive {
		pattern = "**"
	}
	if dir != "" {
		pattern = dir + "/" + pattern
	}

	it, err := b.bucket.Glob(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, it.Close()) }()

	var infos []*MetaInfo
	for it.Next() {
		name := it.Name()
		if dir != "" && !strings.HasPrefix(name, dir+"/") {
			continue
		}

		info, err := b.bucket.Head(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Metadata implements Filesystem.
func (b *BucketFS) Metadata(ctx context.Context, name string) (*MetaInfo, error) {
	return b.bucket.Head(ctx, internal.NormObjectName(name))
}

// Size implements Filesystem.
func (b *BucketFS) Size(ctx context.Context, name string) (int64, error) {
	info, err := b.Metadata(ctx, name)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// MimeType implements Filesystem.
func (b *BucketFS) MimeType(ctx context.Context, name string) (string, error) {
	info, err := b.Metadata(ctx, name)
	if err != nil {
		return "", err
	}
	if info.ContentType != "" {
		return info.ContentType, nil
	}
	return detectContentType(info.Name), nil
}

// Timestamp implements Filesystem.
func (b *BucketFS) Timestamp(ctx context.Context, name string) (time.Time, error) {
	info, err := b.Metadata(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

// Visibility implements Filesystem.
func (b *BucketFS) Visibility(ctx context.Context, name string) (Visibility, error) {
	info, err := b.Metadata(ctx, name)
	if err != nil {
		return "", err
	}
	return b.visibilityOf(info), nil
}

// Write implements Filesystem.
func (b *BucketFS) Write(ctx context.Context, name string, contents []byte, opts *WriteOptions) error {
	if err := b.assertAbsent(ctx, name); err != nil {
		return err
	}
	return b.put(ctx, name, contents, opts)
}

// WriteStream implements Filesystem.
func (b *BucketFS) WriteStream(ctx context.Context, name string, r io.Reader, opts *WriteOptions) error {
	if isNilReader(r) {
		return ErrInvalidArgument
	}
	if err := b.assertAbsent(ctx, name); err != nil {
		return err
	}
	return b.putStream(ctx, name, r, opts)
}

// Update implements Filesystem.
func (b *BucketFS) Update(ctx context.Context, name string, contents []byte, opts *WriteOptions) error {
	if err := b.assertPresent(ctx, name); err != nil {
		return err
	}
	return b.put(ctx, name, contents, opts)
}

// UpdateStream implements Filesystem.
func (b *BucketFS) UpdateStream(ctx context.Context, name string, r io.Reader, opts *WriteOptions) error {
	if isNilReader(r) {
		return ErrInvalidArgument
	}
	if err := b.assertPresent(ctx, name); err != nil {
		return err
	}
	return b.putStream(ctx, name, r, opts)
}

// Put implements Filesystem.
func (b *BucketFS) Put(ctx context.Context, name string, contents []byte, opts *WriteOptions) error {
	return b.put(ctx, name, contents, opts)
}

// PutStream implements Filesystem.
func (b *BucketFS) PutStream(ctx context.Context, name string, r io.Reader, opts *WriteOptions) error {
	if isNilReader(r) {
		return ErrInvalidArgument
	}
	return b.putStream(ctx, name, r, opts)
}

// Rename implements Filesystem.
func (b *BucketFS) Rename(ctx context.Context, name, newName string) error {
	if err := b.Copy(ctx, name, newName); err != nil {
		return err
	}
	return b.bucket.Remove(ctx, internal.NormObjectName(name))
}

// Copy implements Filesystem. The copy keeps the content type, metadata and
// visibility of the source.
func (b *BucketFS) Copy(ctx context.Context, name, newName string) error {
	name, newName = internal.NormObjectName(name), internal.NormObjectName(newName)

	info, err := b.bucket.Head(ctx, name)
	if err != nil {
		return err
	}
	if err := b.assertAbsent(ctx, newName); err != nil {
		return err
	}

	meta := copyMetadata(info.Metadata)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta[MetaVisibility] = string(b.visibilityOf(info))

	contentType := info.ContentType
	if contentType == "" {
		contentType = detectContentType(newName)
	}
	return CopyObject(ctx, b.bucket, name, newName, &WriteOptions{
		ContentType: contentType,
		Metadata:    meta,
	})
}

// Delete implements Filesystem.
func (b *BucketFS) Delete(ctx context.Context, name string) error {
	if err := b.assertPresent(ctx, name); err != nil {
		return err
	}
	return b.bucket.Remove(ctx, internal.NormObjectName(name))
}

// ReadAndDelete implements Filesystem.
func (b *BucketFS) ReadAndDelete(ctx context.Context, name string) ([]byte, error) {
	data, err := b.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := b.Delete(ctx, name); err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteDir implements Filesystem.
func (b *BucketFS) DeleteDir(ctx context.Context, dir string) error {
	dir = internal.NormObjectName(dir)
	if dir == "" || dir == "." {
		return ErrRootViolation
	}

	if err := RemoveAll(ctx, b.bucket, dir+"/**"); err != nil {
		return err
	}
	if d, ok := b.bucket.(supportsRemoveDir); ok {
		return d.RemoveDir(ctx, dir)
	}
	return nil
}

// CreateDir implements Filesystem.
func (b *BucketFS) CreateDir(ctx context.Context, dir string) error {
	dir = internal.NormObjectName(dir)
	if dir == "" {
		return nil
	}
	if d, ok := b.bucket.(supportsMkdirAll); ok {
		return d.MkdirAll(ctx, dir)
	}
	return nil
}

// SetVisibility implements Filesystem.
func (b *BucketFS) SetVisibility(ctx context.Context, name string, v Visibility) error {
	if !v.IsValid() {
		return ErrInvalidArgument
	}

	name = internal.NormObjectName(name)
	info, err := b.bucket.Head(ctx, name)
	if err != nil {
		return err
	}

	if s, ok := b.bucket.(supportsSetVisibility); ok {
		return s.SetVisibility(ctx, name, v)
	}

	data, err := ReadObject(ctx, b.bucket, name)
	if err != nil {
		return err
	}

	meta := copyMetadata(info.Metadata)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta[MetaVisibility] = string(v)
	return WriteObject(ctx, b.bucket, name, data, &WriteOptions{
		ContentType: info.ContentType,
		Metadata:    meta,
	})
}

// Get implements Filesystem.
func (b *BucketFS) Get(ctx context.Context, name string) (Handle, error) {
	if ok, err := b.Has(ctx, name); err != nil {
		return nil, err
	} else if ok {
		return NewFile(b, name), nil
	}

	if ok, err := b.dirExists(ctx, internal.NormObjectName(name)); err != nil {
		return nil, err
	} else if ok {
		return NewDir(b, name), nil
	}
	return nil, ErrNotFound
}

// AddPlugin implements Filesystem.
func (b *BucketFS) AddPlugin(p Plugin) error {
	if p == nil || p.Method() == "" {
		return ErrInvalidArgument
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.plugins[p.Method()] = p
	return nil
}

// Call implements Filesystem.
func (b *BucketFS) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	b.mu.RLock()
	p, ok := b.plugins[method]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrPluginNotFound
	}
	return p.Handle(ctx, b, args...)
}

// Close implements Filesystem.
func (b *BucketFS) Close() error {
	return b.bucket.Close()
}

func (b *BucketFS) put(ctx context.Context, name string, contents []byte, opts *WriteOptions) error {
	name = internal.NormObjectName(name)
	o, err := b.writeOptions(ctx, name, opts)
	if err != nil {
		return err
	}
	return WriteObject(ctx, b.bucket, name, contents, o)
}

func (b *BucketFS) putStream(ctx context.Context, name string, r io.Reader, opts *WriteOptions) error {
	name = internal.NormObjectName(name)
	o, err := b.writeOptions(ctx, name, opts)
	if err != nil {
		return err
	}
	return WriteObjectFrom(ctx, b.bucket, name, r, o)
}

// writeOptions completes opts with a content type derived from the name and
// a visibility. Without an explicit visibility, an existing object keeps its
// own and new objects get the default.
func (b *BucketFS) writeOptions(ctx context.Context, name string, opts *WriteOptions) (*WriteOptions, error) {
	o := &WriteOptions{
		ContentType: opts.GetContentType(),
		Metadata:    copyMetadata(opts.GetMetadata()),
	}
	if o.ContentType == "" {
		o.ContentType = detectContentType(name)
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]string, 1)
	}

	if s, ok := o.Metadata[MetaVisibility]; ok {
		if !Visibility(s).IsValid() {
			return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidArgument, s)
		}
		return o, nil
	}

	info, err := b.bucket.Head(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		o.Metadata[MetaVisibility] = string(b.visibility)
	case err != nil:
		return nil, err
	default:
		o.Metadata[MetaVisibility] = string(b.visibilityOf(info))
	}
	return o, nil
}

func (b *BucketFS) visibilityOf(info *MetaInfo) Visibility {
	if v := Visibility(info.Metadata[MetaVisibility]); v.IsValid() {
		return v
	}
	return b.visibility
}

func (b *BucketFS) assertPresent(ctx context.Context, name string) error {
	if ok, err := b.Has(ctx, name); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	return nil
}

func (b *BucketFS) assertAbsent(ctx context.Context, name string) error {
	if ok, err := b.Has(ctx, name); err != nil {
		return err
	} else if ok {
		return ErrExists
	}
	return nil
}

func (b *BucketFS) dirExists(ctx context.Context, dir string) (bool, error) {
	if dir == "" {
		return true, nil
	}
	if d, ok := b.bucket.(supportsDirExists); ok {
		return d.DirExists(ctx, dir)
	}

	it, err := b.bucket.Glob(ctx, dir+"/**")
	if err != nil {
		return false, err
	}
	defer it.Close()

	for it.Next() {
		if strings.HasPrefix(it.Name(), dir+"/") {
			return true, nil
		}
	}
	return false, it.Error()
}

func detectContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

// isNilReader also catches typed nil pointers wrapped in the interface.
func isNilReader(r io.Reader) bool {
	if r == nil {
		return true
	}

	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
