// Package rfsgs abstracts Google Cloud Storage bucket.
//
// When imported, it registers a global `gs://` scheme resolver and can be used like:
//
//	import (
//	  "github.com/bsm/rfs"
//
//	  _ "github.com/bsm/rfs/rfsgs"
//	)
//
//	func main() {
//	  ctx := context.Background()
//	  bucket, _ := rfs.Connect(ctx, "gs://bucket?prefix=custom%2Fprefix")
//
//	  f, _ := bucket.Open(ctx, "file/within/prefix.txt")
//	  ...
//	}
//
// rfs.Connect supports the following query parameters:
//
//	prefix      - path prefix/namespace within the bucket
//	scopes      - custom scopes
//	credentials - path to custom credentials file
//	acl         - predefined ACL, e.g. "publicRead"
package rfsgs

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/bmatcuk/doublestar/v3"
	"github.com/bsm/rfs"
	"github.com/bsm/rfs/internal"
	giterator "google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func init() {
	rfs.Register("gs", func(ctx context.Context, u *url.URL) (rfs.Bucket, error) {
		query := u.Query()
		conf := &Config{
			Prefix: strings.Trim(query.Get("prefix"), "/"),
		}

		if s := query.Get("scopes"); s != "" {
			conf.Options = append(conf.Options, option.WithScopes(strings.Split(s, ",")...))
		}
		if s := query.Get("credentials"); s != "" {
			conf.Options = append(conf.Options, option.WithCredentialsFile(s))
		}
		if s := query.Get("acl"); s != "" {
			conf.PredefinedACL = s
		}

		return New(ctx, u.Host, conf)
	})
}

// Config is passed to New to configure the Google Cloud Storage connection.
type Config struct {
	Options       []option.ClientOption // options for Google API client
	Prefix        string                // an optional path prefix
	PredefinedACL string                // an optional predefined ACL string, e.g. "publicRead"
}

func (c *Config) norm() {
	c.Prefix = strings.Trim(c.Prefix, "/")
}

type gsBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	config *Config
}

// New initiates an rfs.Bucket backed by Google Cloud Storage.
func New(ctx context.Context, bucket string, cfg *Config) (rfs.Bucket, error) {
	conf := new(Config)
	if cfg != nil {
		*conf = *cfg
	}
	conf.norm()

	client, err := storage.NewClient(ctx, conf.Options...)
	if err != nil {
		return nil, err
	}

	return &gsBucket{
		client: client,
		bucket: client.Bucket(bucket),
		config: conf,
	}, nil
}

func (b *gsBucket) stripPrefix(name string) string {
	if b.config.Prefix == "" {
		return name
	}
	name = strings.TrimPrefix(name, b.config.Prefix)
	name = strings.TrimPrefix(name, "/")
	return name
}

func (b *gsBucket) withPrefix(name string) string {
	name = internal.NormObjectName(name)
	if b.config.Prefix == "" {
		return name
	}
	return path.Join(b.config.Prefix, name)
}

// Glob implements rfs.Bucket.
func (b *gsBucket) Glob(ctx context.Context, pattern string) (rfs.Iterator, error) {
	// quick sanity check
	if _, err := doublestar.Match(pattern, ""); err != nil {
		return nil, err
	}

	prefix := b.config.Prefix
	if prefix != "" {
		prefix += "/"
	}

	iter := b.bucket.Objects(ctx, &storage.Query{
		Prefix: prefix,
	})
	return &iterator{
		parent:  b,
		iter:    iter,
		pattern: pattern,
	}, nil
}

// Head implements rfs.Bucket.
func (b *gsBucket) Head(ctx context.Context, name string) (*rfs.MetaInfo, error) {
	obj := b.bucket.Object(b.withPrefix(name))
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, normError(err)
	}

	return &rfs.MetaInfo{
		Name:        internal.NormObjectName(name),
		Size:        attrs.Size,
		ModTime:     attrs.Updated,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
	}, nil
}

// Open implements rfs.Bucket.
func (b *gsBucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := b.bucket.Object(b.withPrefix(name))
	rd, err := obj.NewReader(ctx)
	if err != nil {
		return nil, normError(err)
	}
	return rd, nil
}

// Create implements rfs.Bucket.
func (b *gsBucket) Create(ctx context.Context, name string, opts *rfs.WriteOptions) (io.WriteCloser, error) {
	ctx, cancel := context.WithCancel(ctx)

	obj := b.bucket.Object(b.withPrefix(name))
	wrt := obj.NewWriter(ctx)
	wrt.PredefinedACL = b.config.PredefinedACL
	wrt.ContentType = opts.GetContentType()
	wrt.Metadata = opts.GetMetadata()
	return &writer{Writer: wrt, cancel: cancel}, nil
}

// Remove implements rfs.Bucket.
func (b *gsBucket) Remove(ctx context.Context, name string) error {
	obj := b.bucket.Object(b.withPrefix(name))
	err := obj.Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Copy supports copying of objects within the bucket.
func (b *gsBucket) Copy(ctx context.Context, src, dst string) error {
	_, err := b.bucket.Object(b.withPrefix(dst)).CopierFrom(
		b.bucket.Object(b.withPrefix(src)),
	).Run(ctx)
	return normError(err)
}

// Close implements rfs.Bucket.
func (b *gsBucket) Close() error {
	return b.client.Close()
}

// --------------------------------------------------------------------

func normError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return rfs.ErrNotFound
	}
	return err
}

// --------------------------------------------------------------------

type writer struct {
	*storage.Writer
	cancel context.CancelFunc
}

// Discard aborts the upload by cancelling its context.
func (w *writer) Discard() error {
	w.cancel()
	_ = w.Writer.Close()
	return nil
}

func (w *writer) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// --------------------------------------------------------------------

type iterator struct {
	parent  *gsBucket
	iter    *storage.ObjectIterator
	pattern string
	current string
	err     error
}

func (*iterator) Close() error   { return nil }
func (i *iterator) Name() string { return i.current }

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}

	for {
		obj, err := i.iter.Next()
		if err != nil {
			i.err = err
			return false
		}

		name := i.parent.stripPrefix(obj.Name)
		if ok, err := doublestar.Match(i.pattern, name); err != nil {
			i.err = err
			return false
		} else if ok {
			i.current = name
			return true
		}
	}
}

func (i *iterator) Error() error {
	if i.err != giterator.Done {
		return i.err
	}
	return nil
}
