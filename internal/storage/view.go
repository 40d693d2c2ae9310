package storage

// Collection is the nested view of a directory handle.
type Collection struct {
	Name             string       `json:"name"`
	ID               uint64       `json:"id"`
	ChildCollections []Collection `json:"child_collections"`
	Files            []File       `json:"files"`
}

// File is the view of a file handle. Content is fetched separately.
type File struct {
	Name string `json:"name"`
	ID   uint64 `json:"id"`
}

// Collection builds the view of directory id with its whole subtree expanded.
// Views are rebuilt on every call.
func (s *Store) Collection(id uint64) (Collection, error) {
	h, err := s.lookup(id, KindDirectory)
	if err != nil {
		return Collection{}, err
	}
	return s.collection(h), nil
}

// Collections returns one fully expanded Collection per directory handle,
// nested directories included, in arena order.
func (s *Store) Collections() []Collection {
	out := make([]Collection, 0, s.dirs)
	for i := range s.handles {
		if s.handles[i].Kind == KindDirectory {
			out = append(out, s.collection(&s.handles[i]))
		}
	}
	return out
}

// File builds the view of file id.
func (s *Store) File(id uint64) (File, error) {
	h, err := s.lookup(id, KindFile)
	if err != nil {
		return File{}, err
	}
	return s.file(h), nil
}

func (s *Store) collection(h *Handle) Collection {
	c := Collection{
		Name:             s.Name(*h),
		ID:               h.ID,
		ChildCollections: []Collection{},
		Files:            []File{},
	}
	for _, id := range h.Children {
		child := &s.handles[id]
		switch child.Kind {
		case KindDirectory:
			c.ChildCollections = append(c.ChildCollections, s.collection(child))
		case KindFile:
			c.Files = append(c.Files, s.file(child))
		}
	}
	return c
}

func (s *Store) file(h *Handle) File {
	return File{Name: s.Name(*h), ID: h.ID}
}
