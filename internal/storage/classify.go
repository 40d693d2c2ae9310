package storage

import (
	"path"
	"strings"

	mfs "github.com/CageChen/oxygen/internal/fs"
)

// Decision is what the indexer does with one directory entry.
type Decision int

// Classifier decisions.
const (
	Skip Decision = iota
	IndexAsFile
	IndexAsDirectory
)

func (d Decision) String() string {
	switch d {
	case IndexAsFile:
		return "IndexAsFile"
	case IndexAsDirectory:
		return "IndexAsDirectory"
	default:
		return "Skip"
	}
}

// Classifier decides which directory entries become handles.
//
// Symlinks are never followed, so a symlinked subtree is invisible and the
// walk cannot loop.
type Classifier struct {
	// Extension is the recognized file suffix including the dot, e.g. ".md".
	// A name must have a non-empty stem before it to match.
	Extension string
}

// NewClassifier returns a Classifier for ext, adding the leading dot if missing.
func NewClassifier(ext string) Classifier {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return Classifier{Extension: ext}
}

// Classify returns the decision for e. It only looks at entry metadata.
func (c Classifier) Classify(e mfs.DirEntry) Decision {
	switch e.Kind {
	case mfs.KindDirectory:
		return IndexAsDirectory
	case mfs.KindRegular:
		// A bare ".md" has no stem and is not a document.
		if c.Extension != "" && len(e.Name) > len(c.Extension) && path.Ext(e.Name) == c.Extension {
			return IndexAsFile
		}
	}
	return Skip
}
