// Package rfsminio abstracts MinIO and other S3-compatible object stores.
//
// When imported, it registers a global `minio://` scheme resolver and can be used like:
//
//	import (
//	  "github.com/bsm/rfs"
//
//	  _ "github.com/bsm/rfs/rfsminio"
//	)
//
//	func main() {
//	  ctx := context.Background()
//	  bucket, _ := rfs.Connect(ctx, "minio://localhost:9000/bucket?prefix=avatars")
//
//	  f, _ := bucket.Open(ctx, "file/within/prefix.txt")
//	  ...
//	}
//
// rfs.Connect supports the following query parameters:
//
//	prefix     - path prefix/namespace within the bucket
//	access_key - access key, defaults to MINIO_ACCESS_KEY
//	secret_key - secret key, defaults to MINIO_SECRET_KEY
//	ssl        - set to "true" to connect via TLS
//	create     - set to "true" to create the bucket if missing
package rfsminio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v3"
	"github.com/bsm/rfs"
	"github.com/bsm/rfs/internal"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	rfs.Register("minio", func(ctx context.Context, u *url.URL) (rfs.Bucket, error) {
		query := u.Query()
		bucket := strings.Trim(u.Path, "/")
		if bucket == "" {
			return nil, fmt.Errorf("rfsminio: missing bucket name in %q", u.String())
		}

		conf := &Config{
			Endpoint:     u.Host,
			AccessKey:    query.Get("access_key"),
			SecretKey:    query.Get("secret_key"),
			UseSSL:       query.Get("ssl") == "true",
			Prefix:       query.Get("prefix"),
			CreateBucket: query.Get("create") == "true",
		}
		if conf.AccessKey == "" {
			conf.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
		}
		if conf.SecretKey == "" {
			conf.SecretKey = os.Getenv("MINIO_SECRET_KEY")
		}
		return New(ctx, bucket, conf)
	})
}

// Config is passed to New to configure the MinIO connection.
type Config struct {
	Endpoint     string // host:port of the server
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Prefix       string // an optional path prefix
	CreateBucket bool   // create the bucket if it does not exist
}

func (c *Config) norm() {
	c.Prefix = strings.Trim(c.Prefix, "/")
}

type minioBucket struct {
	client *minio.Client
	bucket string
	config *Config
}

// New initiates an rfs.Bucket backed by MinIO.
func New(ctx context.Context, bucket string, cfg *Config) (rfs.Bucket, error) {
	conf := new(Config)
	if cfg != nil {
		*conf = *cfg
	}
	conf.norm()

	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("rfsminio: create client: %w", err)
	}

	if conf.CreateBucket {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("rfsminio: check bucket existence: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("rfsminio: create bucket %q: %w", bucket, err)
			}
		}
	}

	return &minioBucket{
		client: client,
		bucket: bucket,
		config: conf,
	}, nil
}

func (b *minioBucket) stripPrefix(name string) string {
	if b.config.Prefix == "" {
		return name
	}
	name = strings.TrimPrefix(name, b.config.Prefix)
	name = strings.TrimPrefix(name, "/")
	return name
}

func (b *minioBucket) withPrefix(name string) string {
	name = internal.NormObjectName(name)
	if b.config.Prefix == "" {
		return name
	}
	return path.Join(b.config.Prefix, name)
}

// Glob implements rfs.Bucket.
func (b *minioBucket) Glob(ctx context.Context, pattern string) (rfs.Iterator, error) {
	// quick sanity check
	if _, err := doublestar.Match(pattern, ""); err != nil {
		return nil, err
	}

	prefix := b.config.Prefix
	if prefix != "" {
		prefix += "/"
	}

	ctx, cancel := context.WithCancel(ctx)
	return &iterator{
		parent:  b,
		pattern: pattern,
		cancel:  cancel,
		objects: b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}),
	}, nil
}

// Head implements rfs.Bucket.
func (b *minioBucket) Head(ctx context.Context, name string) (*rfs.MetaInfo, error) {
	info, err := b.client.StatObject(ctx, b.bucket, b.withPrefix(name), minio.StatObjectOptions{})
	if err != nil {
		return nil, normError(err)
	}

	return &rfs.MetaInfo{
		Name:        internal.NormObjectName(name),
		Size:        info.Size,
		ModTime:     info.LastModified,
		ContentType: info.ContentType,
		Metadata:    normMetadata(info.UserMetadata),
	}, nil
}

// Open implements rfs.Bucket.
func (b *minioBucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.withPrefix(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, normError(err)
	}

	// GetObject is lazy, surface missing objects early
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, normError(err)
	}
	return obj, nil
}

// Create implements rfs.Bucket.
func (b *minioBucket) Create(ctx context.Context, name string, opts *rfs.WriteOptions) (io.WriteCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	w := &writer{
		PipeWriter: pw,
		cancel:     cancel,
		done:       make(chan error, 1),
	}
	go func() {
		_, err := b.client.PutObject(ctx, b.bucket, b.withPrefix(name), pr, -1, minio.PutObjectOptions{
			ContentType:  opts.GetContentType(),
			UserMetadata: opts.GetMetadata(),
		})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Remove implements rfs.Bucket.
func (b *minioBucket) Remove(ctx context.Context, name string) error {
	err := b.client.RemoveObject(ctx, b.bucket, b.withPrefix(name), minio.RemoveObjectOptions{})
	if err = normError(err); err == rfs.ErrNotFound {
		return nil
	}
	return err
}

// Copy supports copying of objects within the bucket.
func (b *minioBucket) Copy(ctx context.Context, src, dst string) error {
	_, err := b.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: b.bucket, Object: b.withPrefix(dst)},
		minio.CopySrcOptions{Bucket: b.bucket, Object: b.withPrefix(src)},
	)
	return normError(err)
}

// Close implements rfs.Bucket.
func (*minioBucket) Close() error { return nil }

// --------------------------------------------------------------------

func normError(err error) error {
	if err == nil {
		return nil
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return rfs.ErrNotFound
	}
	return err
}

// normMetadata lowercases user metadata keys, which are returned canonicalised.
func normMetadata(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}

	res := make(map[string]string, len(meta))
	for k, v := range meta {
		res[strings.ToLower(k)] = v
	}
	return res
}

// --------------------------------------------------------------------

type writer struct {
	*io.PipeWriter
	cancel context.CancelFunc
	done   chan error
	closed bool
}

func (w *writer) Discard() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.cancel()
	_ = w.PipeWriter.CloseWithError(context.Canceled)
	<-w.done
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	defer w.cancel()
	if err := w.PipeWriter.Close(); err != nil {
		return err
	}
	return <-w.done
}

// --------------------------------------------------------------------

type iterator struct {
	parent  *minioBucket
	pattern string
	cancel  context.CancelFunc
	objects <-chan minio.ObjectInfo

	current string
	err     error
}

func (i *iterator) Close() error {
	i.cancel()
	return nil
}

func (i *iterator) Name() string { return i.current }

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}

	for obj := range i.objects {
		if obj.Err != nil {
			i.err = obj.Err
			return false
		}

		name := i.parent.stripPrefix(obj.Key)
		if ok, err := doublestar.Match(i.pattern, name); err != nil {
			i.err = err
			return false
		} else if ok {
			i.current = name
			return true
		}
	}
	i.current = ""
	return false
}

func (i *iterator) Error() error { return i.err }
