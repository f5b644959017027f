package rfsfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v3"
	"github.com/bsm/rfs"
	"github.com/bsm/rfs/internal"
)

// bucket emulates rfs.Bucket behaviour for local file system.
type bucket struct {
	fsRoot string
	root   string
	tmpDir string
}

// New initiates an rfs.Bucket backed by local file system.
// tmpDir is used for file atomicity, defaults to standard tmp dir if blank.
func New(root, tmpDir string) (rfs.Bucket, error) {
	if root == "" {
		root = "."
	}
	root = filepath.Clean(root)

	sep := string(filepath.Separator)
	return &bucket{
		fsRoot: strings.TrimRight(root, sep) + sep, // root should always have trailing slash to trim file names properly
		root:   filepath.ToSlash(root),
		tmpDir: tmpDir,
	}, nil
}

// Glob implements rfs.Bucket.
func (b *bucket) Glob(_ context.Context, pattern string) (rfs.Iterator, error) {
	if pattern == "" { // would return just current dir
		return newIterator(nil), nil
	}

	matches, err := doublestar.Glob(b.fullPath(pattern))
	if err != nil {
		return nil, normError(err)
	}

	files := matches[:0]
	for _, match := range matches {
		if fi, err := os.Stat(match); err != nil {
			return nil, normError(err)
		} else if fi.Mode().IsRegular() {
			files = append(files, b.cleanPath(match))
		}
	}
	return newIterator(files), nil
}

// Head implements rfs.Bucket.
func (b *bucket) Head(_ context.Context, name string) (*rfs.MetaInfo, error) {
	fi, err := os.Stat(b.fullPath(name))
	if err != nil {
		return nil, normError(err)
	}
	if fi.IsDir() {
		return nil, rfs.ErrNotFound
	}

	return &rfs.MetaInfo{
		Name:    internal.NormObjectName(name),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Metadata: map[string]string{
			rfs.MetaVisibility: string(visibilityOf(fi.Mode())),
		},
	}, nil
}

// Open implements rfs.Bucket.
func (b *bucket) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(b.fullPath(name))
	if err != nil {
		return nil, normError(err)
	}
	return f, nil
}

// Create implements rfs.Bucket.
func (b *bucket) Create(ctx context.Context, name string, opts *rfs.WriteOptions) (io.WriteCloser, error) {
	perm := permFor(rfs.Visibility(opts.GetMetadata()[rfs.MetaVisibility]))
	f, err := openAtomicFile(ctx, b.fullPath(name), b.tmpDir, perm)
	if err != nil {
		return nil, normError(err)
	}
	return f, nil
}

// Remove implements rfs.Bucket.
func (b *bucket) Remove(_ context.Context, name string) error {
	err := os.Remove(b.fullPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MkdirAll creates a directory with all its parents.
func (b *bucket) MkdirAll(_ context.Context, dir string) error {
	return os.MkdirAll(b.fullPath(dir), dirPerm)
}

// RemoveDir removes a directory with all its contents.
func (b *bucket) RemoveDir(_ context.Context, dir string) error {
	full := b.fullPath(dir)
	if full == filepath.FromSlash(b.root) {
		return rfs.ErrRootViolation
	}
	return os.RemoveAll(full)
}

// DirExists checks if a directory exists.
func (b *bucket) DirExists(_ context.Context, dir string) (bool, error) {
	fi, err := os.Stat(b.fullPath(dir))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// SetVisibility changes file permissions.
func (b *bucket) SetVisibility(_ context.Context, name string, v rfs.Visibility) error {
	return normError(os.Chmod(b.fullPath(name), permFor(v)))
}

// Close implements rfs.Bucket.
func (*bucket) Close() error {
	return nil // noop
}

func (b *bucket) fullPath(name string) string {
	return filepath.FromSlash(internal.WithinNamespace(b.root, filepath.ToSlash(name)))
}

func (b *bucket) cleanPath(name string) string {
	return internal.NormObjectName(strings.TrimPrefix(name, b.fsRoot))
}
