package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemSource_Read(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFilesystem()
	content, err := src.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(content) != "package a\n" {
		t.Errorf("content = %q", content)
	}
}

func TestFilesystemSource_Missing(t *testing.T) {
	src := NewFilesystem()
	if _, err := src.Read(filepath.Join(t.TempDir(), "nope.go")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestMapSource(t *testing.T) {
	src := MapSource{"a.go": []byte("package a")}

	content, err := src.Read("a.go")
	if err != nil || string(content) != "package a" {
		t.Errorf("Read = %q, %v", content, err)
	}

	if _, err := src.Read("missing.go"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing path err = %v, want not-exist", err)
	}
}
