package hash

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeImage(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDigestImage_KnownContent(t *testing.T) {
	content := []byte("hello world")
	d, err := DigestImage(writeImage(t, "disk.qcow2", content))
	if err != nil {
		t.Fatal(err)
	}
	if d.MD5 != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("md5 = %q", d.MD5)
	}
	if d.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", d.Size, len(content))
	}
}

func TestDigestImage_EmptyFile(t *testing.T) {
	h := md5.Sum([]byte{})
	want := hex.EncodeToString(h[:])

	d, err := DigestImage(writeImage(t, "empty.img", nil))
	if err != nil {
		t.Fatal(err)
	}
	if d.MD5 != want || d.Size != 0 {
		t.Errorf("digest = %+v, want md5 %q size 0", d, want)
	}
}

func TestDigestImage_LargerFile(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 256)
	}
	h := md5.Sum(data)

	d, err := DigestImage(writeImage(t, "sized.bin", data))
	if err != nil {
		t.Fatal(err)
	}
	if d.Size != 4096 {
		t.Errorf("size = %d, want 4096", d.Size)
	}
	if d.MD5 != hex.EncodeToString(h[:]) {
		t.Errorf("md5 = %q", d.MD5)
	}
}

func TestDigestImage_NotFound(t *testing.T) {
	if _, err := DigestImage("/nonexistent/file.img"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestImageDigest_Verify(t *testing.T) {
	d := ImageDigest{MD5: "5eb63bbbe01eeed093cb22bb8f5acdc3", Size: 11}
	cases := []struct {
		name     string
		md5sum   string
		filesize int64
		want     error
	}{
		{"match", "5eb63bbbe01eeed093cb22bb8f5acdc3", 11, nil},
		{"uppercase declared md5", "5EB63BBBE01EEED093CB22BB8F5ACDC3", 11, nil},
		{"size not declared", "5eb63bbbe01eeed093cb22bb8f5acdc3", 0, nil},
		{"md5 differs", "0123456789abcdef0123456789abcdef", 11, ErrMD5Mismatch},
		{"size differs", "5eb63bbbe01eeed093cb22bb8f5acdc3", 12, ErrSizeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := d.Verify(tc.md5sum, tc.filesize)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
