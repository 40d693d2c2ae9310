package storage

import "io"

// ReadContent returns the exact bytes of file id as they are on disk now.
// A file removed or made unreadable after indexing yields ErrIO.
func (s *Store) ReadContent(id uint64) ([]byte, error) {
	h, err := s.lookup(id, KindFile)
	if err != nil {
		return nil, err
	}
	data, err := s.fsys.ReadFile(h.Path)
	if err != nil {
		return nil, &Error{Code: ErrIO, Message: "cannot read file", Path: h.Path, Err: err}
	}
	return data, nil
}

// OpenContent opens file id for streaming and reports its current size.
// The caller closes the reader.
func (s *Store) OpenContent(id uint64) (io.ReadCloser, int64, error) {
	h, err := s.lookup(id, KindFile)
	if err != nil {
		return nil, 0, err
	}
	info, err := s.fsys.Lstat(h.Path)
	if err != nil {
		return nil, 0, &Error{Code: ErrIO, Message: "cannot stat file", Path: h.Path, Err: err}
	}
	rc, err := s.fsys.Open(h.Path)
	if err != nil {
		return nil, 0, &Error{Code: ErrIO, Message: "cannot open file", Path: h.Path, Err: err}
	}
	return rc, info.Size, nil
}
