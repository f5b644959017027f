package rfs_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/bsm/rfs"

	. "github.com/bsm/ginkgo/v2"
	. "github.com/bsm/gomega"
)

var _ = Describe("BucketFS", func() {
	var subject *rfs.BucketFS
	var bucket *rfs.InMem
	var ctx = context.Background()

	BeforeEach(func() {
		bucket = rfs.NewInMem()
		subject = rfs.NewFilesystem(bucket)

		Expect(subject.Write(ctx, "path/to/a.txt", []byte("TESTDATA"), nil)).To(Succeed())
		Expect(subject.Write(ctx, "path/to/nested/b.json", []byte("{}"), nil)).To(Succeed())
		Expect(subject.Write(ctx, "c.bin", []byte("x"), nil)).To(Succeed())
	})

	It("should check existence", func() {
		Expect(subject.Has(ctx, "path/to/a.txt")).To(BeTrue())
		Expect(subject.Has(ctx, "/path/to/a.txt")).To(BeTrue())
		Expect(subject.Has(ctx, "path/to/missing.txt")).To(BeFalse())
	})

	It("should read", func() {
		Expect(subject.Read(ctx, "path/to/a.txt")).To(Equal([]byte("TESTDATA")))

		rc, err := subject.ReadStream(ctx, "path/to/a.txt")
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		Expect(io.ReadAll(rc)).To(Equal([]byte("TESTDATA")))

		_, err = subject.Read(ctx, "missing")
		Expect(err).To(MatchError(rfs.ErrNotFound))
		_, err = subject.ReadStream(ctx, "missing")
		Expect(err).To(MatchError(rfs.ErrNotFound))
	})

	It("should list contents", func() {
		names := func(infos []*rfs.MetaInfo) []string {
			var res []string
			for _, info := range infos {
				res = append(res, info.Name)
			}
			return res
		}

		Expect(subject.ListContents(ctx, "", false)).To(WithTransform(names, Equal([]string{"c.bin"})))
		Expect(subject.ListContents(ctx, "", true)).To(WithTransform(names, Equal([]string{
			"c.bin", "path/to/a.txt", "path/to/nested/b.json",
		})))
		Expect(subject.ListContents(ctx, "path/to", false)).To(WithTransform(names, Equal([]string{"path/to/a.txt"})))
		Expect(subject.ListContents(ctx, "/path/to/", true)).To(WithTransform(names, Equal([]string{
			"path/to/a.txt", "path/to/nested/b.json",
		})))
		Expect(subject.ListContents(ctx, "missing", true)).To(BeEmpty())
	})

	It("should return metadata", func() {
		info, err := subject.Metadata(ctx, "path/to/a.txt")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Name).To(Equal("path/to/a.txt"))
		Expect(info.Size).To(Equal(int64(8)))

		Expect(subject.Size(ctx, "path/to/a.txt")).To(Equal(int64(8)))
		Expect(subject.MimeType(ctx, "path/to/a.txt")).To(HavePrefix("text/plain"))
		Expect(subject.MimeType(ctx, "path/to/nested/b.json")).To(Equal("application/json"))
		Expect(subject.MimeType(ctx, "c.bin")).To(Equal("application/octet-stream"))
		Expect(subject.Timestamp(ctx, "c.bin")).To(BeTemporally("~", time.Now(), time.Second))
		Expect(subject.Visibility(ctx, "c.bin")).To(Equal(rfs.VisibilityPublic))

		_, err = subject.Size(ctx, "missing")
		Expect(err).To(MatchError(rfs.ErrNotFound))
	})

	It("should keep explicit content types", func() {
		Expect(subject.Put(ctx, "d.txt", []byte("x"), &rfs.WriteOptions{ContentType: "text/markdown"})).To(Succeed())
		Expect(subject.MimeType(ctx, "d.txt")).To(Equal("text/markdown"))
	})

	It("should write/update/put", func() {
		Expect(subject.Write(ctx, "path/to/a.txt", []byte("X"), nil)).To(MatchError(rfs.ErrExists))
		Expect(subject.WriteStream(ctx, "path/to/a.txt", strings.NewReader("X"), nil)).To(MatchError(rfs.ErrExists))
		Expect(subject.WriteStream(ctx, "new.txt", nil, nil)).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.WriteStream(ctx, "new.txt", strings.NewReader("NEW"), nil)).To(Succeed())
		Expect(subject.Read(ctx, "new.txt")).To(Equal([]byte("NEW")))

		Expect(subject.Update(ctx, "missing.txt", []byte("X"), nil)).To(MatchError(rfs.ErrNotFound))
		Expect(subject.UpdateStream(ctx, "missing.txt", strings.NewReader("X"), nil)).To(MatchError(rfs.ErrNotFound))
		Expect(subject.Update(ctx, "new.txt", []byte("UPD"), nil)).To(Succeed())
		Expect(subject.Read(ctx, "new.txt")).To(Equal([]byte("UPD")))
		Expect(subject.UpdateStream(ctx, "new.txt", strings.NewReader("UPD2"), nil)).To(Succeed())
		Expect(subject.Read(ctx, "new.txt")).To(Equal([]byte("UPD2")))

		Expect(subject.Put(ctx, "new.txt", []byte("PUT"), nil)).To(Succeed())
		Expect(subject.Put(ctx, "other.txt", []byte("PUT"), nil)).To(Succeed())
		Expect(subject.PutStream(ctx, "other.txt", strings.NewReader("PUT2"), nil)).To(Succeed())
		Expect(subject.PutStream(ctx, "other.txt", nil, nil)).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.Read(ctx, "new.txt")).To(Equal([]byte("PUT")))
		Expect(subject.Read(ctx, "other.txt")).To(Equal([]byte("PUT2")))
	})

	It("should rename/copy", func() {
		Expect(subject.Rename(ctx, "missing", "x")).To(MatchError(rfs.ErrNotFound))
		Expect(subject.Rename(ctx, "c.bin", "path/to/a.txt")).To(MatchError(rfs.ErrExists))
		Expect(subject.Rename(ctx, "c.bin", "d.bin")).To(Succeed())
		Expect(subject.Has(ctx, "c.bin")).To(BeFalse())
		Expect(subject.Read(ctx, "d.bin")).To(Equal([]byte("x")))

		Expect(subject.Copy(ctx, "missing", "x")).To(MatchError(rfs.ErrNotFound))
		Expect(subject.Copy(ctx, "d.bin", "path/to/a.txt")).To(MatchError(rfs.ErrExists))
		Expect(subject.Copy(ctx, "d.bin", "e.bin")).To(Succeed())
		Expect(bucket.ObjectSizes()).To(HaveKeyWithValue("d.bin", int64(1)))
		Expect(bucket.ObjectSizes()).To(HaveKeyWithValue("e.bin", int64(1)))
	})

	It("should delete", func() {
		Expect(subject.Delete(ctx, "missing")).To(MatchError(rfs.ErrNotFound))
		Expect(subject.Delete(ctx, "c.bin")).To(Succeed())
		Expect(subject.Has(ctx, "c.bin")).To(BeFalse())

		Expect(subject.ReadAndDelete(ctx, "path/to/a.txt")).To(Equal([]byte("TESTDATA")))
		Expect(subject.Has(ctx, "path/to/a.txt")).To(BeFalse())
		_, err := subject.ReadAndDelete(ctx, "path/to/a.txt")
		Expect(err).To(MatchError(rfs.ErrNotFound))
	})

	It("should manage directories", func() {
		Expect(subject.CreateDir(ctx, "empty")).To(Succeed())

		Expect(subject.DeleteDir(ctx, "")).To(MatchError(rfs.ErrRootViolation))
		Expect(subject.DeleteDir(ctx, "/")).To(MatchError(rfs.ErrRootViolation))
		Expect(subject.DeleteDir(ctx, "path")).To(Succeed())
		Expect(bucket.ObjectSizes()).To(HaveLen(1))
		Expect(bucket.ObjectSizes()).To(HaveKey("c.bin"))
	})

	It("should set visibility", func() {
		Expect(subject.SetVisibility(ctx, "c.bin", "secret")).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.SetVisibility(ctx, "missing", rfs.VisibilityPrivate)).To(MatchError(rfs.ErrNotFound))

		Expect(subject.SetVisibility(ctx, "c.bin", rfs.VisibilityPrivate)).To(Succeed())
		Expect(subject.Visibility(ctx, "c.bin")).To(Equal(rfs.VisibilityPrivate))
		Expect(subject.Read(ctx, "c.bin")).To(Equal([]byte("x")))
		Expect(subject.MimeType(ctx, "c.bin")).To(Equal("application/octet-stream"))
	})

	It("should validate write arguments", func() {
		var nilReader *bytes.Reader
		Expect(subject.WriteStream(ctx, "new.txt", nilReader, nil)).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.PutStream(ctx, "c.bin", nilReader, nil)).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.UpdateStream(ctx, "c.bin", nilReader, nil)).To(MatchError(rfs.ErrInvalidArgument))

		Expect(subject.Put(ctx, "new.txt", []byte("x"), &rfs.WriteOptions{
			Metadata: map[string]string{rfs.MetaVisibility: "hidden"},
		})).To(MatchError(rfs.ErrInvalidArgument))
		Expect(subject.Has(ctx, "new.txt")).To(BeFalse())
	})

	It("should store visibility on write", func() {
		subject = rfs.NewFilesystem(bucket, rfs.WithVisibility(rfs.VisibilityPrivate))
		Expect(subject.Put(ctx, "d.txt", []byte("x"), nil)).To(Succeed())

		info, err := bucket.Head(ctx, "d.txt")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Metadata).To(HaveKeyWithValue(rfs.MetaVisibility, "private"))
		Expect(info.ContentType).To(HavePrefix("text/plain"))
	})

	It("should support default visibility", func() {
		Expect(rfs.WriteObject(ctx, bucket, "raw.bin", []byte("x"), nil)).To(Succeed())

		subject = rfs.NewFilesystem(bucket, rfs.WithVisibility(rfs.VisibilityPrivate))
		Expect(subject.Visibility(ctx, "raw.bin")).To(Equal(rfs.VisibilityPrivate))
		Expect(subject.Visibility(ctx, "c.bin")).To(Equal(rfs.VisibilityPublic))

		subject = rfs.NewFilesystem(bucket, rfs.WithVisibility("bogus"))
		Expect(subject.Visibility(ctx, "raw.bin")).To(Equal(rfs.VisibilityPublic))
	})

	It("should return typed handles", func() {
		h, err := subject.Get(ctx, "path/to/a.txt")
		Expect(err).NotTo(HaveOccurred())
		Expect(h.IsDir()).To(BeFalse())
		Expect(h).To(BeAssignableToTypeOf(&rfs.File{}))
		Expect(h.Path()).To(Equal("path/to/a.txt"))

		h, err = subject.Get(ctx, "path/to")
		Expect(err).NotTo(HaveOccurred())
		Expect(h.IsDir()).To(BeTrue())
		Expect(h).To(BeAssignableToTypeOf(&rfs.Dir{}))

		_, err = subject.Get(ctx, "missing")
		Expect(err).To(MatchError(rfs.ErrNotFound))
	})

	It("should manage plugins", func() {
		Expect(subject.AddPlugin(nil)).To(MatchError(rfs.ErrInvalidArgument))

		_, err := subject.Call(ctx, "listPaths")
		Expect(err).To(MatchError(rfs.ErrPluginNotFound))

		Expect(subject.AddPlugin(rfs.ListPaths{})).To(Succeed())
		Expect(subject.Call(ctx, "listPaths")).To(Equal([]string{"c.bin"}))
		Expect(subject.Call(ctx, "listPaths", "path", true)).To(Equal([]string{
			"path/to/a.txt", "path/to/nested/b.json",
		}))

		_, err = subject.Call(ctx, "listPaths", 1)
		Expect(err).To(MatchError(rfs.ErrInvalidArgument))
	})
})
