package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Map of Content\n")
	if err := s.Write("MOC.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("MOC.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("Index/Videos/MOC.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("Index/Videos/MOC.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("Assets/Cover.PNG", []byte("png"))
	_ = s.Write(".obsidian/app.md", []byte("hidden"))

	files, err := s.Files("")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	want := []string{"Assets/Cover.PNG", "a.md", "sub/b.md"}
	if len(paths) != len(want) {
		t.Fatalf("files = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
	for _, f := range files {
		switch {
		case f.Path == "Assets/Cover.PNG" && (f.Ext != "png" || f.Checksum != ""):
			t.Errorf("asset metadata = %+v", f)
		case f.Ext == "md" && f.Checksum == "":
			t.Errorf("note metadata = %+v", f)
		}
	}
}

func TestFilesInSubdir(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("Videos/a.md", []byte("a"))
	_ = s.Write("Books/b.md", []byte("b"))

	files, err := s.Files("Videos")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].Path != "Videos/a.md" {
		t.Errorf("files = %+v", files)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".moc-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "moc-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestExt(t *testing.T) {
	cases := map[string]string{
		"a/b.md":      "md",
		"Cover.PNG":   "png",
		"noext":       "",
		"dir.v2/file": "",
		"x.tar.gz":    "gz",
	}
	for in, want := range cases {
		if got := Ext(in); got != want {
			t.Errorf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}
