package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"ledgerflow/internal/fileutil"
)

func TestWriteAtomicCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := fileutil.WriteAtomic(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if err := fileutil.WriteAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteAtomicLeavesNoTempDebris(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := fileutil.WriteAtomic(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
