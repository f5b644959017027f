package rfs

import (
	"context"
	"io"

	"go.uber.org/multierr"
)

type supportsCopy interface {
	Copy(context.Context, string, string) error
}

type supportsRemoveAll interface {
	RemoveAll(context.Context, string) error
}

type supportsDiscard interface {
	Discard() error
}

// discard aborts a writer without committing, where the writer supports it.
func discard(w io.WriteCloser) error {
	if d, ok := w.(supportsDiscard); ok {
		return d.Discard()
	}
	return w.Close()
}

// WriteObject is a quick write helper.
func WriteObject(ctx context.Context, bucket Bucket, name string, data []byte, opts *WriteOptions) error {
	w, err := bucket.Create(ctx, name, opts)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return multierr.Append(err, discard(w))
	}
	return w.Close()
}

// WriteObjectFrom streams r into a new object.
func WriteObjectFrom(ctx context.Context, bucket Bucket, name string, r io.Reader, opts *WriteOptions) error {
	w, err := bucket.Create(ctx, name, opts)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, r); err != nil {
		return multierr.Append(err, discard(w))
	}
	return w.Close()
}

// ReadObject is a quick read helper.
func ReadObject(ctx context.Context, bucket Bucket, name string) ([]byte, error) {
	r, err := bucket.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// CopyObject is a quick helper to copy objects within the same bucket.
func CopyObject(ctx context.Context, bucket Bucket, src, dst string, dstOpts *WriteOptions) error {
	if b, ok := bucket.(supportsCopy); ok && dstOpts == nil {
		return b.Copy(ctx, src, dst)
	}

	r, err := bucket.Open(ctx, src)
	if err != nil {
		return err
	}
	defer r.Close()

	return WriteObjectFrom(ctx, bucket, dst, r, dstOpts)
}

// RemoveAll removes all files matching the pattern.
func RemoveAll(ctx context.Context, bucket Bucket, pattern string) error {
	if b, ok := bucket.(supportsRemoveAll); ok {
		return b.RemoveAll(ctx, pattern)
	}

	it, err := bucket.Glob(ctx, pattern)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if err := bucket.Remove(ctx, it.Name()); err != nil {
			return err
		}
	}
	return it.Error()
}
