package storage

import (
	"context"
	"errors"
	"os"
	"time"

	mfs "github.com/CageChen/oxygen/internal/fs"
)

// Build indexes the tree of fsys. See BuildContext.
func Build(fsys mfs.FileSystem, cls Classifier) (*Store, error) {
	return BuildContext(context.Background(), fsys, cls)
}

// BuildContext walks fsys depth-first and returns the resulting Store.
//
// Entries of a directory are indexed before the directory itself, so every
// child id is smaller than its parent's id and the root is always the last
// handle. Siblings keep the backend's listing order. Any listing failure
// aborts the build; no partial index is returned. ctx is checked once per
// directory so startup can be interrupted.
func BuildContext(ctx context.Context, fsys mfs.FileSystem, cls Classifier) (*Store, error) {
	start := time.Now()

	info, err := fsys.Lstat("")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Code: ErrInvalidPath, Message: "root does not exist", Path: fsys.Name(), Err: err}
		}
		return nil, &Error{Code: ErrIO, Message: "cannot stat root", Path: fsys.Name(), Err: err}
	}
	if info.Kind != mfs.KindDirectory {
		return nil, &Error{Code: ErrNotADirectory, Message: "root is not a directory", Path: fsys.Name()}
	}

	ix := &indexer{ctx: ctx, fsys: fsys, cls: cls}
	if _, err := ix.directory(""); err != nil {
		return nil, err
	}

	return newStore(fsys, ix.handles, time.Since(start)), nil
}

type indexer struct {
	ctx     context.Context
	fsys    mfs.FileSystem
	cls     Classifier
	handles []Handle
}

func (ix *indexer) directory(dir string) (uint64, error) {
	if err := ix.ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := ix.fsys.ReadDir(dir)
	if err != nil {
		return 0, &Error{Code: ErrIO, Message: "cannot list directory", Path: dir, Err: err}
	}

	children := make([]uint64, 0, len(entries))
	for _, e := range entries {
		child := mfs.Join(dir, e.Name)
		switch ix.cls.Classify(e) {
		case IndexAsDirectory:
			id, err := ix.directory(child)
			if err != nil {
				return 0, err
			}
			children = append(children, id)
		case IndexAsFile:
			children = append(children, ix.push(KindFile, child, nil))
		}
	}

	return ix.push(KindDirectory, dir, children), nil
}

func (ix *indexer) push(kind Kind, path string, children []uint64) uint64 {
	id := uint64(len(ix.handles))
	ix.handles = append(ix.handles, Handle{
		ID:       id,
		Kind:     kind,
		Path:     path,
		Children: children,
	})
	return id
}
