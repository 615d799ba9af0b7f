package hash

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrMD5Mismatch  = errors.New("md5sum mismatch")
	ErrSizeMismatch = errors.New("filesize mismatch")
)

// ImageDigest holds what an image record pins about a disk image.
type ImageDigest struct {
	MD5  string
	Size int64
}

// DigestImage reads the image at path once and returns its lowercase hex
// md5 and byte size.
func DigestImage(path string) (ImageDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageDigest{}, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return ImageDigest{}, fmt.Errorf("hash image %s: %w", path, err)
	}
	return ImageDigest{MD5: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}

// Verify compares d with the md5sum and filesize declared by an image
// record. A zero filesize is not checked.
func (d ImageDigest) Verify(md5sum string, filesize int64) error {
	if !strings.EqualFold(d.MD5, md5sum) {
		return fmt.Errorf("%w: declared %s got %s", ErrMD5Mismatch, md5sum, d.MD5)
	}
	if filesize > 0 && d.Size != filesize {
		return fmt.Errorf("%w: declared %d got %d", ErrSizeMismatch, filesize, d.Size)
	}
	return nil
}
