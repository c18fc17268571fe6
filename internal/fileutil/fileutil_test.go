package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"reclaim/internal/fileutil"
)

func TestMoveFileSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "show.mpg.orig")
	dst := filepath.Join(dir, "moved", "show.mpg.orig")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res, err := fileutil.MoveFile(src, dst)
	if err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if res.CrossDevice {
		t.Fatal("same-device move should not report cross-device")
	}
	if fileutil.PathExists(src) {
		t.Fatal("source should be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("destination content mismatch: %q err=%v", data, err)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := fileutil.MoveFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error moving a missing file")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.srt")
	dst := filepath.Join(dir, "b.srt")
	if err := os.WriteFile(src, []byte("1\n00:00:01 --> 00:00:02\nhi\n"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified failed: %v", err)
	}
	srcData, _ := os.ReadFile(src)
	dstData, _ := os.ReadFile(dst)
	if string(srcData) != string(dstData) {
		t.Fatal("copy content mismatch")
	}
}

func TestUniqueDestinationAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	name := "123-show.srt"
	first := fileutil.UniqueDestination(dir, name)
	if first != filepath.Join(dir, name) {
		t.Fatalf("expected plain join, got %s", first)
	}
	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := fileutil.UniqueDestination(dir, name)
	if second == first {
		t.Fatal("expected a disambiguated destination")
	}
	if filepath.Ext(second) != ".srt" {
		t.Fatalf("suffix should keep the extension, got %s", second)
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	if fileutil.PathExists(filepath.Join(dir, "missing")) {
		t.Fatal("missing path reported as existing")
	}
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fileutil.PathExists(path) {
		t.Fatal("present path reported as missing")
	}
}
