package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContent_RoundTrip(t *testing.T) {
	tree := map[string]string{
		"plain.md":      "# plain\n",
		"empty.md":      "",
		"bin/blob.md":   "\x00\x01\xff\xfe not utf-8",
		"crlf/lines.md": "line one\r\nline two\r\n",
	}
	s, root := buildTree(t, tree)

	for _, h := range s.Handles() {
		if h.Kind != KindFile {
			continue
		}
		want, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(h.Path)))
		require.NoError(t, err)

		got, err := s.ReadContent(h.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got, h.Path)

		rc, size, err := s.OpenContent(h.ID)
		require.NoError(t, err)
		streamed, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, want, streamed, h.Path)
		assert.Equal(t, int64(len(want)), size, h.Path)
	}
}

func TestReadContent_StaleFile(t *testing.T) {
	s, root := buildTree(t, map[string]string{"gone.md": "bye", "kept.md": "hi"})

	require.NoError(t, os.Remove(filepath.Join(root, "gone.md")))

	_, err := s.ReadContent(0)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrIO), "got %v", err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = s.OpenContent(0)
	assert.True(t, IsCode(err, ErrIO), "got %v", err)

	// The rest of the arena still serves.
	body, err := s.ReadContent(1)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(body))
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s, _ := buildTree(t, nested)
	want := s.Collections()

	var wg conc.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Go(func() {
			assert.Equal(t, want, s.Collections())
			for _, h := range s.Handles() {
				if h.Kind == KindFile {
					_, err := s.ReadContent(h.ID)
					assert.NoError(t, err)
				}
			}
		})
	}
	wg.Wait()
}
