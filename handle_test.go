package rfs_test

import (
	"context"
	"io"

	"github.com/bsm/rfs"

	. "github.com/bsm/ginkgo/v2"
	. "github.com/bsm/gomega"
)

var _ = Describe("File", func() {
	var subject *rfs.File
	var ctx = context.Background()

	BeforeEach(func() {
		var err error
		subject, err = rfs.NewFileFromURL(ctx, "mem:///path/to/file.txt")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(subject.Close()).To(Succeed())
	})

	It("should have a path", func() {
		Expect(subject.Path()).To(Equal("path/to/file.txt"))
		Expect(subject.IsDir()).To(BeFalse())
	})

	It("should reject invalid URLs", func() {
		_, err := rfs.NewFileFromURL(ctx, "mem:///")
		Expect(err).To(MatchError(`rfs: invalid URL path "/"`))

		_, err = rfs.NewFileFromURL(ctx, "unknown:///path/to/file.txt")
		Expect(err).To(MatchError(`rfs: unknown URL scheme "unknown"`))
	})

	It("should read/write", func() {
		Expect(subject.Exists(ctx)).To(BeFalse())
		_, err := subject.Read(ctx)
		Expect(err).To(MatchError(rfs.ErrNotFound))
		Expect(subject.Update(ctx, []byte("X"), nil)).To(MatchError(rfs.ErrNotFound))

		Expect(subject.Write(ctx, []byte("TESTDATA"), nil)).To(Succeed())
		Expect(subject.Exists(ctx)).To(BeTrue())
		Expect(subject.Read(ctx)).To(Equal([]byte("TESTDATA")))
		Expect(subject.Size(ctx)).To(Equal(int64(8)))
		Expect(subject.MimeType(ctx)).To(HavePrefix("text/plain"))
		Expect(subject.Visibility(ctx)).To(Equal(rfs.VisibilityPublic))

		info, err := subject.Metadata(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Name).To(Equal("path/to/file.txt"))
		Expect(subject.Timestamp(ctx)).To(Equal(info.ModTime))

		Expect(subject.Update(ctx, []byte("UPDATED"), nil)).To(Succeed())
		rc, err := subject.ReadStream(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(io.ReadAll(rc)).To(Equal([]byte("UPDATED")))
		Expect(rc.Close()).To(Succeed())
	})

	It("should rename/copy/delete", func() {
		Expect(subject.Write(ctx, []byte("TESTDATA"), nil)).To(Succeed())

		copied, err := subject.Copy(ctx, "path/to/copy.txt")
		Expect(err).NotTo(HaveOccurred())
		Expect(copied.Path()).To(Equal("path/to/copy.txt"))
		Expect(copied.Read(ctx)).To(Equal([]byte("TESTDATA")))

		_, err = subject.Copy(ctx, "path/to/copy.txt")
		Expect(err).To(MatchError(rfs.ErrExists))

		Expect(subject.Rename(ctx, "path/to/moved.txt")).To(Succeed())
		Expect(subject.Path()).To(Equal("path/to/moved.txt"))
		Expect(subject.Read(ctx)).To(Equal([]byte("TESTDATA")))

		Expect(subject.Delete(ctx)).To(Succeed())
		Expect(subject.Exists(ctx)).To(BeFalse())
		Expect(subject.Delete(ctx)).To(MatchError(rfs.ErrNotFound))
	})
})

var _ = Describe("Dir", func() {
	var subject *rfs.Dir
	var fs *rfs.BucketFS
	var ctx = context.Background()

	BeforeEach(func() {
		fs = rfs.NewFilesystem(rfs.NewInMem())
		Expect(fs.Put(ctx, "images/a.png", []byte("A"), nil)).To(Succeed())
		Expect(fs.Put(ctx, "images/thumbs/a.png", []byte("a"), nil)).To(Succeed())
		Expect(fs.Put(ctx, "other.txt", []byte("O"), nil)).To(Succeed())

		h, err := fs.Get(ctx, "images")
		Expect(err).NotTo(HaveOccurred())
		Expect(h).To(BeAssignableToTypeOf(&rfs.Dir{}))
		subject = h.(*rfs.Dir)
	})

	It("should have a path", func() {
		Expect(subject.Path()).To(Equal("images"))
		Expect(subject.IsDir()).To(BeTrue())
	})

	It("should list contents", func() {
		infos, err := subject.Contents(ctx, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(1))
		Expect(infos[0].Name).To(Equal("images/a.png"))

		infos, err = subject.Contents(ctx, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(2))
	})

	It("should create/delete", func() {
		Expect(rfs.NewDir(fs, "empty").Create(ctx)).To(Succeed())
		Expect(subject.Delete(ctx)).To(Succeed())
		Expect(fs.Has(ctx, "images/a.png")).To(BeFalse())
		Expect(fs.Has(ctx, "other.txt")).To(BeTrue())
	})
})
