package fs

import (
	"io"
	"os"
	"path/filepath"
)

// LocalFS implements FileSystem using the local filesystem.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at the given directory.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) abs(path string) string {
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Name returns the base name of the root directory.
func (l *LocalFS) Name() string {
	return filepath.Base(l.root)
}

// Lstat returns metadata for the entry at path without following symlinks.
func (l *LocalFS) Lstat(path string) (FileInfo, error) {
	info, err := os.Lstat(l.abs(path))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name: info.Name(),
		Kind: kindOf(info.Mode()),
		Size: info.Size(),
	}, nil
}

// ReadDir lists the immediate children of the directory at path. os.ReadDir
// sorts by file name, so the order is stable between runs.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(l.abs(path))
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		result[i] = DirEntry{
			Name: e.Name(),
			Kind: kindOf(e.Type()),
		}
	}
	return result, nil
}

// Open opens the file at path for reading.
func (l *LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(l.abs(path))
}

// ReadFile reads the contents of the file at path.
func (l *LocalFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(l.abs(path))
}
