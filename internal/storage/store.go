// Package storage indexes a directory tree into an arena of numbered handles
// and serves collection, file, and content lookups by id.
//
// The arena is built once and never modified, so a *Store is safe for any
// number of concurrent readers without locking.
package storage

import (
	"path"
	"time"

	mfs "github.com/CageChen/oxygen/internal/fs"
)

// Kind distinguishes file handles from directory handles.
type Kind int

// Handle kinds.
const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Handle is one indexed filesystem entry.
//
// Children holds the ids of indexed entries of a directory in listing order;
// it is always empty for files. Callers must not modify it.
type Handle struct {
	ID       uint64
	Kind     Kind
	Path     string
	Children []uint64
}

// Store owns the handle arena for one indexed root.
type Store struct {
	fsys      mfs.FileSystem
	handles   []Handle
	dirs      int
	buildTime time.Duration
}

// Stats summarizes the arena.
type Stats struct {
	Handles       int           `json:"handles"`
	Directories   int           `json:"directories"`
	Files         int           `json:"files"`
	BuildDuration time.Duration `json:"build_duration"`
}

func newStore(fsys mfs.FileSystem, handles []Handle, buildTime time.Duration) *Store {
	s := &Store{fsys: fsys, handles: handles, buildTime: buildTime}
	for i := range handles {
		if handles[i].Kind == KindDirectory {
			s.dirs++
		}
	}
	return s
}

// Len returns the number of handles.
func (s *Store) Len() int {
	return len(s.handles)
}

// Root returns the handle of the indexed root directory.
func (s *Store) Root() Handle {
	return s.handles[len(s.handles)-1]
}

// Handles returns a copy of the arena in id order.
func (s *Store) Handles() []Handle {
	out := make([]Handle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Stats returns handle counts and how long the build took.
func (s *Store) Stats() Stats {
	return Stats{
		Handles:       len(s.handles),
		Directories:   s.dirs,
		Files:         len(s.handles) - s.dirs,
		BuildDuration: s.buildTime,
	}
}

func (s *Store) lookup(id uint64, want Kind) (*Handle, error) {
	if id >= uint64(len(s.handles)) {
		return nil, notFound(id, len(s.handles))
	}
	h := &s.handles[id]
	if h.Kind != want {
		return nil, typeMismatch(id, h.Kind, want)
	}
	return h, nil
}

// Directory returns the directory handle with the given id.
func (s *Store) Directory(id uint64) (Handle, error) {
	h, err := s.lookup(id, KindDirectory)
	if err != nil {
		return Handle{}, err
	}
	return *h, nil
}

// FileHandle returns the file handle with the given id.
func (s *Store) FileHandle(id uint64) (Handle, error) {
	h, err := s.lookup(id, KindFile)
	if err != nil {
		return Handle{}, err
	}
	return *h, nil
}

// Directories returns every directory handle in arena order.
func (s *Store) Directories() []Handle {
	out := make([]Handle, 0, s.dirs)
	for _, h := range s.handles {
		if h.Kind == KindDirectory {
			out = append(out, h)
		}
	}
	return out
}

// Name returns the display name of h: the last path segment, or the
// filesystem name for the root.
func (s *Store) Name(h Handle) string {
	if h.Path == "" {
		return s.fsys.Name()
	}
	return path.Base(h.Path)
}
