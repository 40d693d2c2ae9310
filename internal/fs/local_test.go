package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFS_ReadDirKinds(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("a.md", filepath.Join(root, "b.md")); err != nil {
		t.Fatal(err)
	}

	entries, err := NewLocalFS(root).ReadDir("")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	want := []DirEntry{
		{Name: "a.md", Kind: KindRegular},
		{Name: "b.md", Kind: KindSymlink},
		{Name: "sub", Kind: KindDirectory},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestLocalFS_LstatDoesNotFollow(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "real"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("real", filepath.Join(root, "alias")); err != nil {
		t.Fatal(err)
	}

	l := NewLocalFS(root)
	info, err := l.Lstat("alias")
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Kind != KindSymlink {
		t.Errorf("expected symlink, got %s", info.Kind)
	}

	info, err = l.Lstat("")
	if err != nil {
		t.Fatalf("Lstat root failed: %v", err)
	}
	if info.Kind != KindDirectory {
		t.Errorf("expected root directory, got %s", info.Kind)
	}
}

func TestLocalFS_OpenNested(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "x", "y"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "x", "y", "z.md"), []byte("# z\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := NewLocalFS(root).Open(Join("x/y", "z.md"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# z\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		dir, name, want string
	}{
		{"", "a.md", "a.md"},
		{"sub", "b.md", "sub/b.md"},
		{"a/b", "c", "a/b/c"},
	}
	for _, tt := range tests {
		if got := Join(tt.dir, tt.name); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
}
