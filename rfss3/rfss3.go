// Package rfss3 abstracts Amazon S3 bucket.
//
// When imported, it registers a global `s3://` scheme resolver and can be used like:
//
//	import (
//	  "github.com/bsm/rfs"
//
//	  _ "github.com/bsm/rfs/rfss3"
//	)
//
//	func main() {
//	  ctx := context.Background()
//	  bucket, _ := rfs.Connect(ctx, "s3://bucket?prefix=custom%2Fprefix&region=us-east-1")
//
//	  f, _ := bucket.Open(ctx, "file/within/prefix.txt")
//	  ...
//	}
//
// rfs.Connect supports the following query parameters:
//
//	prefix     - path prefix/namespace within the bucket
//	region     - AWS region
//	endpoint   - custom endpoint, for S3-compatible services
//	acl        - custom ACL, defaults to 'bucket-owner-full-control'
//	access_key - static access key, use with secret_key
//	secret_key - static secret key
package rfss3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bmatcuk/doublestar/v3"
	"github.com/bsm/rfs"
	"github.com/bsm/rfs/internal"
)

func init() {
	rfs.Register("s3", func(ctx context.Context, u *url.URL) (rfs.Bucket, error) {
		query := u.Query()
		conf := &Config{
			Prefix:   strings.Trim(query.Get("prefix"), "/"),
			ACL:      query.Get("acl"),
			Endpoint: query.Get("endpoint"),
		}

		var opts []func(*config.LoadOptions) error
		if s := query.Get("region"); s != "" {
			opts = append(opts, config.WithRegion(s))
		}
		if key, secret := query.Get("access_key"), query.Get("secret_key"); key != "" && secret != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(key, secret, ""),
			))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}
		conf.AWS = awsConfig

		return New(u.Host, conf)
	})
}

// Config is passed to New to configure the S3 connection.
type Config struct {
	AWS      aws.Config // native AWS configuration
	Prefix   string     // an optional path prefix
	ACL      string     // custom ACL, defaults to 'bucket-owner-full-control'
	Endpoint string     // custom endpoint, enables path-style addressing
}

func (c *Config) norm() {
	if c.ACL == "" {
		c.ACL = string(types.ObjectCannedACLBucketOwnerFullControl)
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

type s3Bucket struct {
	client *s3.Client
	bucket string
	config *Config
}

// New initiates an rfs.Bucket backed by S3.
func New(bucket string, cfg *Config) (rfs.Bucket, error) {
	conf := new(Config)
	if cfg != nil {
		*conf = *cfg
	}
	conf.norm()

	client := s3.NewFromConfig(conf.AWS, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Bucket{
		client: client,
		bucket: bucket,
		config: conf,
	}, nil
}

func (b *s3Bucket) stripPrefix(name string) string {
	if b.config.Prefix == "" {
		return name
	}
	name = strings.TrimPrefix(name, b.config.Prefix)
	name = strings.TrimPrefix(name, "/")
	return name
}

func (b *s3Bucket) withPrefix(name string) string {
	name = internal.NormObjectName(name)
	if b.config.Prefix == "" {
		return name
	}
	return path.Join(b.config.Prefix, name)
}

// Glob implements rfs.Bucket.
func (b *s3Bucket) Glob(ctx context.Context, pattern string) (rfs.Iterator, error) {
	// quick sanity check
	if _, err := doublestar.Match(pattern, ""); err != nil {
		return nil, err
	}

	prefix := b.config.Prefix
	if prefix != "" {
		prefix += "/"
	}

	return &iterator{
		parent:  b,
		ctx:     ctx,
		pattern: pattern,
		pager: s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(b.bucket),
			Prefix: aws.String(prefix),
		}),
	}, nil
}

// Head implements rfs.Bucket.
func (b *s3Bucket) Head(ctx context.Context, name string) (*rfs.MetaInfo, error) {
	resp, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.withPrefix(name)),
	})
	if err != nil {
		return nil, normError(err)
	}

	return &rfs.MetaInfo{
		Name:        internal.NormObjectName(name),
		Size:        aws.ToInt64(resp.ContentLength),
		ModTime:     aws.ToTime(resp.LastModified),
		ContentType: aws.ToString(resp.ContentType),
		Metadata:    resp.Metadata,
	}, nil
}

// Open implements rfs.Bucket.
func (b *s3Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.withPrefix(name)),
	})
	if err != nil {
		return nil, normError(err)
	}
	return resp.Body, nil
}

// Create implements rfs.Bucket.
func (b *s3Bucket) Create(ctx context.Context, name string, opts *rfs.WriteOptions) (io.WriteCloser, error) {
	f, err := os.CreateTemp("", "rfs-s3")
	if err != nil {
		return nil, err
	}

	return &writer{
		File:   f,
		ctx:    ctx,
		bucket: b,
		name:   name,
		opts:   opts,
	}, nil
}

// Remove implements rfs.Bucket.
func (b *s3Bucket) Remove(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.withPrefix(name)),
	})
	if err = normError(err); err == rfs.ErrNotFound {
		return nil
	}
	return err
}

// Copy supports copying of objects within the bucket.
func (b *s3Bucket) Copy(ctx context.Context, src, dst string) error {
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		ACL:        types.ObjectCannedACL(b.config.ACL),
		Bucket:     aws.String(b.bucket),
		CopySource: aws.String(url.PathEscape(b.bucket) + "/" + escapeKey(b.withPrefix(src))),
		Key:        aws.String(b.withPrefix(dst)),
	})
	return normError(err)
}

// Close implements rfs.Bucket.
func (*s3Bucket) Close() error { return nil }

// --------------------------------------------------------

type writer struct {
	*os.File

	ctx    context.Context
	bucket *s3Bucket
	name   string
	opts   *rfs.WriteOptions

	closeOnce sync.Once
}

func (w *writer) Discard() error {
	var err error
	w.closeOnce.Do(func() {
		defer os.Remove(w.Name())
		err = w.File.Close()
	})
	return err
}

func (w *writer) Close() (err error) {
	w.closeOnce.Do(func() {
		// Delete tempfile in the end
		fname := w.Name()
		defer os.Remove(fname)

		// Re-open tempfile for reading
		if err2 := w.File.Close(); err2 != nil {
			err = err2
			return
		}

		file, err2 := os.Open(fname)
		if err2 != nil {
			err = err2
			return
		}
		defer file.Close()

		input := &s3.PutObjectInput{
			ACL:      types.ObjectCannedACL(w.bucket.config.ACL),
			Bucket:   aws.String(w.bucket.bucket),
			Key:      aws.String(w.bucket.withPrefix(w.name)),
			Body:     file,
			Metadata: w.opts.GetMetadata(),
		}
		if ct := w.opts.GetContentType(); ct != "" {
			input.ContentType = aws.String(ct)
		}

		_, err = manager.NewUploader(w.bucket.client).Upload(w.ctx, input)
	})
	return
}

// -----------------------------------------------------------------------------

func normError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return rfs.ErrNotFound
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return rfs.ErrNotFound
	}
	return err
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// --------------------------------------------------------------------

type iterator struct {
	parent  *s3Bucket
	ctx     context.Context
	pattern string
	pager   *s3.ListObjectsV2Paginator

	err  error
	pos  int
	page []string
}

func (i *iterator) Close() error {
	i.pager = nil
	i.pos = len(i.page)
	return nil
}

func (i *iterator) Name() string {
	if i.pos >= 0 && i.pos < len(i.page) {
		return i.page[i.pos]
	}
	return ""
}

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}

	if i.pos++; i.pos < len(i.page) {
		return true
	}

	if i.pager == nil || !i.pager.HasMorePages() {
		return false
	}

	if err := i.fetchNextPage(); err != nil {
		i.err = err
		return false
	}
	return i.Next()
}

func (i *iterator) Error() error { return i.err }

func (i *iterator) fetchNextPage() error {
	i.page = i.page[:0]
	i.pos = -1

	res, err := i.pager.NextPage(i.ctx)
	if err != nil {
		return err
	}

	for _, obj := range res.Contents {
		name := i.parent.stripPrefix(aws.ToString(obj.Key))
		if ok, err := doublestar.Match(i.pattern, name); err != nil {
			return err
		} else if ok {
			i.page = append(i.page, name)
		}
	}
	return nil
}
