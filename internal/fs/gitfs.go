package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"sync"
)

// GitFS implements FileSystem by reading the tree of a git ref (branch, tag, or commit).
//
// repoPath may be a subdirectory of the work tree; paths are then relative to
// that subdirectory within the ref's tree.
type GitFS struct {
	repoPath string
	ref      string

	prefixOnce sync.Once
	prefix     string
	prefixErr  error
}

// NewGitFS creates a GitFS that reads the tree of ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

type treeEntry struct {
	mode string
	name string
	size int64
}

func (g *GitFS) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if missingObject(stderr) {
				return nil, fmt.Errorf("git %s: %s: %w", args[0], stderr, os.ErrNotExist)
			}
			return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), stderr)
		}
		return nil, err
	}
	return out, nil
}

func missingObject(stderr string) bool {
	for _, s := range []string{
		"does not exist",
		"Not a valid object name",
		"not a tree object",
		"No such file or directory",
		"Needed a single revision",
	} {
		if strings.Contains(stderr, s) {
			return true
		}
	}
	return false
}

// Name returns the ref the tree is read from.
func (g *GitFS) Name() string {
	return g.ref
}

// subdir returns the position of repoPath inside the work tree, "" at the top.
func (g *GitFS) subdir() (string, error) {
	g.prefixOnce.Do(func() {
		out, err := g.git("rev-parse", "--show-prefix")
		if err != nil {
			g.prefixErr = err
			return
		}
		g.prefix = strings.TrimSuffix(strings.TrimSpace(string(out)), "/")
	})
	return g.prefix, g.prefixErr
}

// fullPath maps p to a path from the top of the ref's tree.
func (g *GitFS) fullPath(p string) (string, error) {
	prefix, err := g.subdir()
	if err != nil {
		return "", err
	}
	full := path.Join(prefix, p)
	if full == "." {
		return "", nil
	}
	return full, nil
}

// object names p in "<ref>:<path>" form. An empty path names the root tree.
func (g *GitFS) object(p string) (string, error) {
	full, err := g.fullPath(p)
	if err != nil {
		return "", err
	}
	return g.ref + ":" + full, nil
}

// Lstat returns metadata for the entry at path in the ref's tree.
func (g *GitFS) Lstat(p string) (FileInfo, error) {
	if p == "" || p == "." {
		obj, err := g.object("")
		if err != nil {
			return FileInfo{}, fmt.Errorf("ref %s: %w", g.ref, os.ErrNotExist)
		}
		out, err := g.git("cat-file", "-t", obj)
		if err != nil {
			return FileInfo{}, fmt.Errorf("ref %s: %w", g.ref, os.ErrNotExist)
		}
		kind := KindOther
		if strings.TrimSpace(string(out)) == "tree" {
			kind = KindDirectory
		}
		return FileInfo{Name: g.ref, Kind: kind}, nil
	}

	full, err := g.fullPath(p)
	if err != nil {
		return FileInfo{}, err
	}
	out, err := g.git("ls-tree", "-z", "--long", "--full-tree", g.ref, "--", full)
	if err != nil {
		return FileInfo{}, err
	}
	entries := parseTree(out)
	if len(entries) == 0 {
		return FileInfo{}, fmt.Errorf("%s: %w", p, os.ErrNotExist)
	}
	e := entries[0]
	return FileInfo{
		Name: path.Base(e.name),
		Kind: kindOfMode(e.mode),
		Size: e.size,
	}, nil
}

// ReadDir lists the immediate children of the tree at path. git ls-tree
// emits entries in name order.
func (g *GitFS) ReadDir(p string) ([]DirEntry, error) {
	treeish, err := g.object(p)
	if err != nil {
		return nil, err
	}
	out, err := g.git("ls-tree", "-z", "--full-tree", treeish)
	if err != nil {
		return nil, err
	}
	entries := parseTree(out)
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		result[i] = DirEntry{Name: e.name, Kind: kindOfMode(e.mode)}
	}
	return result, nil
}

// Open returns a reader over the blob at path.
func (g *GitFS) Open(p string) (io.ReadCloser, error) {
	data, err := g.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ReadFile reads the blob at path.
func (g *GitFS) ReadFile(p string) ([]byte, error) {
	if p == "" || p == "." {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	obj, err := g.object(p)
	if err != nil {
		return nil, err
	}
	return g.git("cat-file", "blob", obj)
}

// parseTree parses NUL-terminated ls-tree records:
// "<mode> <type> <object>[ <size>]\t<name>".
func parseTree(out []byte) []treeEntry {
	var entries []treeEntry
	for _, rec := range bytes.Split(out, []byte{0}) {
		tab := bytes.IndexByte(rec, '\t')
		if tab < 0 {
			continue
		}
		fields := strings.Fields(string(rec[:tab]))
		if len(fields) < 3 {
			continue
		}
		e := treeEntry{mode: fields[0], name: string(rec[tab+1:])}
		if len(fields) >= 4 && fields[3] != "-" {
			e.size, _ = strconv.ParseInt(fields[3], 10, 64)
		}
		entries = append(entries, e)
	}
	return entries
}

func kindOfMode(mode string) EntryKind {
	switch mode {
	case "040000":
		return KindDirectory
	case "120000":
		return KindSymlink
	case "100644", "100755", "100664":
		return KindRegular
	default:
		// 160000 is a submodule commit.
		return KindOther
	}
}
