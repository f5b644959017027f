// Package rfsfs abstracts local file system.
//
// When imported, it registers a global `file://` scheme resolver and can be used like:
//
//	import (
//	  "github.com/bsm/rfs"
//
//	  _ "github.com/bsm/rfs/rfsfs"
//	)
//
//	func main() {
//	  ctx := context.Background()
//	  b, _ := rfs.Connect(ctx, "file:///path/to/root?tmpdir=%2Fcustom%2Ftmp")
//	  f, _ := b.Open(ctx, "file/within/root.txt")
//	  ...
//	}
//
// rfs.Connect supports the following query parameters:
//
//	tmpdir - custom temp dir
//
// Visibility is mapped onto file permissions: public files are world
// readable, private ones are readable by the owner only.
package rfsfs

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/bsm/rfs"
)

const (
	publicPerm  os.FileMode = 0644
	privatePerm os.FileMode = 0600
	dirPerm     os.FileMode = 0755
)

func init() {
	rfs.Register("file", func(_ context.Context, u *url.URL) (rfs.Bucket, error) {
		root := path.Join(u.Host, u.Path) // to handle special relative cases like: "file://this-works-like-a-host/path..."
		q := u.Query()
		return New(root, q.Get("tmpdir"))
	})
}

// normError normalizes error.
func normError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return rfs.ErrNotFound
	default:
		return err
	}
}

func permFor(v rfs.Visibility) os.FileMode {
	if v == rfs.VisibilityPrivate {
		return privatePerm
	}
	return publicPerm
}

func visibilityOf(mode os.FileMode) rfs.Visibility {
	if mode.Perm()&0044 == 0 {
		return rfs.VisibilityPrivate
	}
	return rfs.VisibilityPublic
}

// --------------------------------------------------------------------

// atomicFile represents a file, that's written only on Close.
type atomicFile struct {
	*os.File

	ctx  context.Context
	name string
	perm os.FileMode
	done bool
}

// openAtomicFile opens atomic file for writing.
// tmpDir defaults to standard temporary dir if blank.
func openAtomicFile(ctx context.Context, name, tmpDir string, perm os.FileMode) (*atomicFile, error) {
	f, err := os.CreateTemp(tmpDir, "rfsfs")
	if err != nil {
		return nil, err
	}
	return &atomicFile{
		File: f,
		ctx:  ctx,
		name: name,
		perm: perm,
	}, nil
}

// Discard aborts the write.
func (f *atomicFile) Discard() error {
	if f.done {
		return nil
	}
	f.done = true

	defer f.cleanup()
	return f.File.Close()
}

// Close commits the file.
func (f *atomicFile) Close() error {
	if f.done {
		return nil
	}
	f.done = true

	defer f.cleanup()

	if err := f.File.Chmod(f.perm); err != nil {
		_ = f.File.Close()
		return err
	}
	if err := f.File.Close(); err != nil {
		return err
	}

	select {
	case <-f.ctx.Done():
		return f.ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(f.name), dirPerm); err != nil {
		return err
	}

	return os.Rename(f.Name(), f.name)
}

// cleanup removes temporary file.
func (f *atomicFile) cleanup() {
	_ = os.Remove(f.Name())
}
