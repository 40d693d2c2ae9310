package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mfs "github.com/CageChen/oxygen/internal/fs"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under root. Keys ending in "/" are directories;
// other keys are files with the mapped content.
func writeTree(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	for name, content := range tree {
		p := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// buildTree writes tree into a fresh directory and indexes it for ".md".
func buildTree(t *testing.T, tree map[string]string) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, tree)
	s, err := Build(mfs.NewLocalFS(root), NewClassifier(".md"))
	require.NoError(t, err)
	return s, root
}

// nested is a tree with several levels, empty directories, and skipped files.
var nested = map[string]string{
	"intro.md":                  "# intro\n",
	"notes.txt":                 "ignored",
	"guide/setup.md":            "# setup\n",
	"guide/usage.md":            "# usage\n",
	"guide/advanced/tuning.md":  "# tuning\n",
	"guide/advanced/images/":    "",
	"reference/api.md":          "# api\n",
	"reference/api.md.bak":      "old",
	"reference/deep/er/most.md": "# most\n",
	"empty/":                    "",
}
