package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// PathExists reports whether the path exists. Stat errors other than
// fs.ErrNotExist are treated as existing so callers stay conservative about
// deleting anything they cannot verify.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, fs.ErrNotExist)
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

// MoveResult reports how a move was performed.
type MoveResult struct {
	// CrossDevice is true when the move fell back to copy+remove because
	// src and dst live on different filesystems.
	CrossDevice bool
}

// MoveFile relocates src to dst. Same-device moves are a single rename;
// cross-device moves fall back to a verified copy followed by removal of the
// source. The destination directory must already exist.
func MoveFile(src, dst string) (MoveResult, error) {
	if err := os.Rename(src, dst); err == nil {
		return MoveResult{}, nil
	} else if !isCrossDevice(err) {
		return MoveResult{}, fmt.Errorf("rename %s: %w", src, err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		return MoveResult{CrossDevice: true}, fmt.Errorf("cross-device copy %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		// dst is complete; a leftover source is recoverable, a half-moved
		// file is not. Surface the error without undoing the copy.
		return MoveResult{CrossDevice: true}, fmt.Errorf("remove source after copy %s: %w", src, err)
	}
	return MoveResult{CrossDevice: true}, nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, unix.EXDEV)
	}
	return errors.Is(err, unix.EXDEV)
}

// UniqueDestination joins dir and name, appending a numeric suffix before the
// extension until the result does not exist.
func UniqueDestination(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !PathExists(candidate) {
		return candidate
	}
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, i, ext))
		if !PathExists(candidate) {
			return candidate
		}
	}
}
