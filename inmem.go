package rfs

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v3"
)

// InMem is an in-memory Bucket implementation which can be used for mocking.
type InMem struct {
	objects map[string]*inMemObject
	mu      sync.RWMutex
}

// NewInMem returns an initialised Bucket.
func NewInMem() *InMem {
	return &InMem{
		objects: make(map[string]*inMemObject),
	}
}

// Glob implements Bucket.
func (b *InMem) Glob(_ context.Context, pattern string) (Iterator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matches []string
	for key := range b.objects {
		if ok, err := doublestar.Match(pattern, key); err != nil {
			return nil, err
		} else if ok {
			matches = append(matches, key)
		}
	}
	sort.Strings(matches)
	return &inMemIterator{entries: matches, pos: -1}, nil
}

// Head implements Bucket.
func (b *InMem) Head(_ context.Context, name string) (*MetaInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return obj.info(name), nil
}

// Open implements Bucket.
func (b *InMem) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Create implements Bucket.
func (b *InMem) Create(ctx context.Context, name string, opts *WriteOptions) (io.WriteCloser, error) {
	return &inMemWriter{
		ctx:         ctx,
		bucket:      b,
		name:        name,
		contentType: opts.GetContentType(),
		metadata:    copyMetadata(opts.GetMetadata()),
	}, nil
}

// Remove implements Bucket.
func (b *InMem) Remove(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, name)
	return nil
}

// Copy supports copying of objects within the bucket.
func (b *InMem) Copy(_ context.Context, src, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[src]
	if !ok {
		return ErrNotFound
	}
	b.objects[dst] = &inMemObject{
		data:        obj.data,
		contentType: obj.contentType,
		metadata:    copyMetadata(obj.metadata),
		modTime:     time.Now(),
	}
	return nil
}

// ObjectSizes return a map of object sizes by name
func (b *InMem) ObjectSizes() map[string]int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sizes := make(map[string]int64, len(b.objects))
	for key, obj := range b.objects {
		sizes[key] = obj.Size()
	}
	return sizes
}

// Close implements Bucket.
func (*InMem) Close() error { return nil }

func (b *InMem) store(obj *inMemObject, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[name] = obj
}

// --------------------------------------------------------

type inMemObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modTime     time.Time
}

func (o *inMemObject) Size() int64 {
	return int64(len(o.data))
}

func (o *inMemObject) info(name string) *MetaInfo {
	return &MetaInfo{
		Name:        name,
		Size:        o.Size(),
		ModTime:     o.modTime,
		ContentType: o.contentType,
		Metadata:    copyMetadata(o.metadata),
	}
}

type inMemWriter struct {
	bytes.Buffer

	ctx         context.Context
	bucket      *InMem
	name        string
	contentType string
	metadata    map[string]string
}

func (w *inMemWriter) Discard() error {
	w.Reset()
	w.bucket = nil
	return nil
}

func (w *inMemWriter) Close() error {
	if w.bucket == nil {
		return nil
	}

	select {
	case <-w.ctx.Done():
		return w.ctx.Err()
	default:
	}

	bucket := w.bucket
	w.bucket = nil
	bucket.store(&inMemObject{
		data:        append([]byte(nil), w.Bytes()...),
		contentType: w.contentType,
		metadata:    w.metadata,
		modTime:     time.Now(),
	}, w.name)
	return nil
}

type inMemIterator struct {
	entries []string
	pos     int
}

func (i *inMemIterator) Next() bool {
	i.pos++
	return i.pos < len(i.entries)
}

func (i *inMemIterator) Name() string {
	if i.pos >= 0 && i.pos < len(i.entries) {
		return i.entries[i.pos]
	}
	return ""
}
func (*inMemIterator) Error() error { return nil }

func (i *inMemIterator) Close() error {
	i.pos = len(i.entries)
	return nil
}

func copyMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
