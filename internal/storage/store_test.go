package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TypeSafety(t *testing.T) {
	s, _ := buildTree(t, nested)

	for _, h := range s.Handles() {
		switch h.Kind {
		case KindFile:
			_, err := s.Directory(h.ID)
			assert.True(t, IsCode(err, ErrTypeMismatch), "Directory(%d): %v", h.ID, err)
			_, err = s.Collection(h.ID)
			assert.True(t, IsCode(err, ErrTypeMismatch), "Collection(%d): %v", h.ID, err)

			got, err := s.FileHandle(h.ID)
			require.NoError(t, err)
			assert.Equal(t, h.Path, got.Path)
		case KindDirectory:
			_, err := s.FileHandle(h.ID)
			assert.True(t, IsCode(err, ErrTypeMismatch), "FileHandle(%d): %v", h.ID, err)
			_, err = s.File(h.ID)
			assert.True(t, IsCode(err, ErrTypeMismatch), "File(%d): %v", h.ID, err)
			_, err = s.ReadContent(h.ID)
			assert.True(t, IsCode(err, ErrTypeMismatch), "ReadContent(%d): %v", h.ID, err)

			got, err := s.Directory(h.ID)
			require.NoError(t, err)
			assert.Equal(t, h.Path, got.Path)
		}
	}
}

func TestStore_OutOfRange(t *testing.T) {
	s, _ := buildTree(t, nested)

	for _, id := range []uint64{uint64(s.Len()), uint64(s.Len()) + 1, math.MaxUint64} {
		_, err := s.Directory(id)
		assert.True(t, IsCode(err, ErrNotFound), "Directory(%d): %v", id, err)
		_, err = s.FileHandle(id)
		assert.True(t, IsCode(err, ErrNotFound), "FileHandle(%d): %v", id, err)
		_, err = s.Collection(id)
		assert.True(t, IsCode(err, ErrNotFound), "Collection(%d): %v", id, err)
		_, err = s.File(id)
		assert.True(t, IsCode(err, ErrNotFound), "File(%d): %v", id, err)
		_, err = s.ReadContent(id)
		assert.True(t, IsCode(err, ErrNotFound), "ReadContent(%d): %v", id, err)
		_, _, err = s.OpenContent(id)
		assert.True(t, IsCode(err, ErrNotFound), "OpenContent(%d): %v", id, err)
	}
}

func TestStore_Directories(t *testing.T) {
	s, _ := buildTree(t, nested)

	dirs := s.Directories()
	require.Len(t, dirs, s.Stats().Directories)

	var last uint64
	for i, d := range dirs {
		assert.Equal(t, KindDirectory, d.Kind)
		if i > 0 {
			assert.Greater(t, d.ID, last, "arena order")
		}
		last = d.ID
	}
	assert.Equal(t, s.Root().ID, dirs[len(dirs)-1].ID)
}

func TestStore_HandlesIsACopy(t *testing.T) {
	s, _ := buildTree(t, nested)

	hs := s.Handles()
	hs[0].Path = "changed"
	assert.NotEqual(t, "changed", s.Handles()[0].Path)
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "NotFound", ErrNotFound.String())
	assert.Equal(t, "TypeMismatch", ErrTypeMismatch.String())
	assert.Equal(t, "InvalidPath", ErrInvalidPath.String())
	assert.Equal(t, "NotADirectory", ErrNotADirectory.String())
	assert.Equal(t, "IO", ErrIO.String())

	_, ok := CodeOf(assert.AnError)
	assert.False(t, ok)
}
