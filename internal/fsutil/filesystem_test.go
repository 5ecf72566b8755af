package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	names, err := OSFileSystem{}.List(dir, ".json")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.json" || names[1] != "b.json" {
		t.Errorf("List = %v, want [a.json b.json]", names)
	}
}

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	ofs := OSFileSystem{}

	w, err := ofs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := ofs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 bytes, got %d", len(data))
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/data/test.txt", testData, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/data/./test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Returned slices are copies.
	data[0] = 'H'
	again, _ := mfs.ReadFile("/data/test.txt")
	if again[0] != 'h' {
		t.Error("ReadFile returned shared storage")
	}

	info, err := mfs.Stat("/data/test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(testData)) || info.Mode() != 0600 {
		t.Errorf("Stat = size %d mode %v", info.Size(), info.Mode())
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/cloud.pcd")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := mfs.ReadFile("/out/cloud.pcd")
	if len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, _ = mfs.ReadFile("/out/cloud.pcd")
	if string(data) != "abc" {
		t.Errorf("expected %q after Close, got %q", "abc", data)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want ErrNotExist", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want ErrNotExist", err)
	}
	if _, err := mfs.List("/missing", ""); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("List error = %v, want ErrNotExist", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndList(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/root/samples/empty", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, p := range []string{"/root/samples", "/root/samples/empty"} {
		if !mfs.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
		info, err := mfs.Stat(p)
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(%s) = %v, %v; want directory", p, info, err)
		}
	}

	names, err := mfs.List("/root/samples/empty", ".json")
	if err != nil {
		t.Fatalf("List on empty dir failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no files, got %v", names)
	}

	_ = mfs.WriteFile("/root/samples/s2.json", nil, 0644)
	_ = mfs.WriteFile("/root/samples/s1.JSON", nil, 0644)
	_ = mfs.WriteFile("/root/samples/readme.md", nil, 0644)
	_ = mfs.WriteFile("/root/samples/empty/deep.json", nil, 0644)

	names, err = mfs.List("/root/samples", ".json")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "s1.JSON" || names[1] != "s2.json" {
		t.Errorf("List = %v, want [s1.JSON s2.json]", names)
	}

	all, _ := mfs.List("/root/samples", "")
	if len(all) != 3 {
		t.Errorf("List all = %v, want 3 entries", all)
	}
}

func TestFileSystemInterface(t *testing.T) {
	var _ FileSystem = OSFileSystem{}
	var _ FileSystem = NewMemoryFileSystem()
}
