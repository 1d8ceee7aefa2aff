package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Gradient Descent\nMinimizes a loss.\n")
	if err := s.Write("Notes/gd.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("Notes/gd.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("one"))
	if err := s.Write("a.md", []byte("two")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("a.md")
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".ansuz-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("x/y.md", []byte("y"))

	ok, err := s.Exists("x/y.md")
	if err != nil || !ok {
		t.Errorf("Exists(x/y.md) = %v, %v; want true", ok, err)
	}
	ok, err = s.Exists("x/z.md")
	if err != nil || ok {
		t.Errorf("Exists(x/z.md) = %v, %v; want false", ok, err)
	}
	ok, _ = s.Exists("x")
	if ok {
		t.Error("a folder should not count as an existing document")
	}
}

func TestEnsureFolderIdempotent(t *testing.T) {
	s := tempVault(t)
	for i := 0; i < 2; i++ {
		if err := s.EnsureFolder("Plans/Drafts"); err != nil {
			t.Fatalf("EnsureFolder #%d: %v", i, err)
		}
	}
	info, err := os.Stat(filepath.Join(s.Root(), "Plans", "Drafts"))
	if err != nil || !info.IsDir() {
		t.Fatalf("folder not created: %v", err)
	}
}

func TestListFolder(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("Templates/Core Template.md", []byte("{{title}}"))
	_ = s.Write("Templates/Drafts/Idea Template.md", []byte("{{title}}"))
	_ = s.Write("Templates/readme.txt", []byte("not md"))
	_ = s.Write("Notes/a.md", []byte("a"))

	items, err := s.List("Templates")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if filepath.IsAbs(it.Path) || it.Checksum == "" {
			t.Errorf("unexpected metadata %+v", it)
		}
	}
}

func TestListMissingFolder(t *testing.T) {
	s := tempVault(t)
	items, err := s.List("Nowhere")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := s.EnsureFolder(p); err == nil {
			t.Errorf("expected error for folder %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
}
