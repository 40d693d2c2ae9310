// Package fs provides the filesystems an index can be built from: the local disk
// or the tree of a git ref.
//
// Paths are slash separated and relative to the filesystem root. The empty
// string names the root itself.
package fs

import (
	"io"
	"io/fs"
	"path"
)

// EntryKind is the type of a directory entry as reported by the backend.
type EntryKind int

// Entry kinds.
const (
	KindOther EntryKind = iota
	KindRegular
	KindDirectory
	KindSymlink
)

func (k EntryKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// FileInfo holds entry metadata.
type FileInfo struct {
	Name string
	Kind EntryKind
	Size int64
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name string
	Kind EntryKind
}

// FileSystem abstracts read access so the indexer can work with either the
// local filesystem or a git object database.
type FileSystem interface {
	// Name labels the root, used as the root directory's display name.
	Name() string
	// Lstat describes path without following a trailing symlink.
	Lstat(path string) (FileInfo, error)
	// ReadDir lists the immediate children of path, sorted by name.
	ReadDir(path string) ([]DirEntry, error)
	// Open streams the contents of the file at path.
	Open(path string) (io.ReadCloser, error)
	ReadFile(path string) ([]byte, error)
}

// Join appends name to a root-relative directory path.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

func kindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindRegular
	default:
		return KindOther
	}
}
