package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pagetree/internal/apperr"
)

func tempSite(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs, dir
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadText(t *testing.T) {
	s, root := tempSite(t)
	writeFile(t, root, "docs/intro.md", "# Intro\n")
	got, err := s.ReadText("docs/intro.md")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "# Intro\n" {
		t.Errorf("content = %q", got)
	}
}

func TestReadText_Missing(t *testing.T) {
	s, _ := tempSite(t)
	_, err := s.ReadText("nope.md")
	if !errors.Is(err, os.ErrNotExist) || !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want os.ErrNotExist and ErrNotFound", err)
	}
}

func TestExistsAndIsDir(t *testing.T) {
	s, root := tempSite(t)
	writeFile(t, root, "a/_page.yaml", "title: A\n")

	if !s.Exists("a/_page.yaml") {
		t.Error("expected file to exist")
	}
	if s.Exists("a") {
		t.Error("directory should not count as an existing file")
	}
	if !s.IsDir("a") {
		t.Error("expected a to be a directory")
	}
	if s.IsDir("a/_page.yaml") {
		t.Error("file should not be a directory")
	}
	if !s.IsDir(RootPath) {
		t.Error("root should be a directory")
	}
}

func TestIsDir_SymlinkNotFollowed(t *testing.T) {
	s, root := tempSite(t)
	writeFile(t, root, "real/_page.yaml", "title: Real\n")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if s.IsDir("link") {
		t.Error("symlinked directory should not count as a directory")
	}
	entries, err := s.ListEntries(RootPath)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	for _, e := range entries {
		if e.Name == "link" && e.IsDir {
			t.Error("ListEntries reported the symlink as a directory")
		}
	}
}

func TestListEntries_Sorted(t *testing.T) {
	s, root := tempSite(t)
	writeFile(t, root, "c.md", "c")
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "b/x.md", "x")

	entries, err := s.ListEntries(RootPath)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	want := []Entry{{Name: "a.md"}, {Name: "b", IsDir: true}, {Name: "c.md"}}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %v, want %v", i, entries[i], want[i])
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s, _ := tempSite(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.ReadText(p); !errors.Is(err, apperr.ErrPathEscapesRoot) {
			t.Errorf("ReadText(%q) err = %v, want ErrPathEscapesRoot", p, err)
		}
		if s.Exists(p) {
			t.Errorf("Exists(%q) should be false", p)
		}
		if _, err := s.ListEntries(p); err == nil {
			t.Errorf("expected error listing %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "pagetree-test-*")
	_ = f.Close()
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
