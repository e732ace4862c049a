package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "nested", "out", "dst.mp4")

	if err := os.WriteFile(src, []byte("video-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("Expected copied content, got %q", data)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Source should still exist: %v", err)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.mp4")

	if err := CopyFile(filepath.Join(dir, "missing.mp4"), dst); err == nil {
		t.Fatal("Expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("Destination should not exist after failed copy")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staging.mp4")
	dst := filepath.Join(dir, "final", "output.mp4")

	if err := os.WriteFile(src, []byte("merged"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Source should be gone after move")
	}
	if data, _ := os.ReadFile(dst); string(data) != "merged" {
		t.Errorf("Expected moved content, got %q", data)
	}
}

func TestSizeMB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one_mb.bin")
	if err := os.WriteFile(path, make([]byte, 1024*1024), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if got := SizeMB(path); got != 1 {
		t.Errorf("Expected 1 MB, got %v", got)
	}
	if got := SizeMB(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("Expected 0 for missing file, got %v", got)
	}
}
