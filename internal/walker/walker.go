// Package walker enumerates a content tree one directory at a time.
package walker

import (
	"io/fs"
	"os"
	"path"
	"strings"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Dir is one step of a pre-order walk.
type Dir struct {
	// Path is the slash-separated directory path relative to the walk root ("." for the root).
	Path string
	// Subdirs lists the names of child directories, in the order they will be visited.
	Subdirs []string
	// Files lists the names of content files directly inside the directory.
	Files []string
}

// WalkFunc is called once per directory. Returning an error stops the walk.
type WalkFunc func(dir Dir) error

// DirectoryWalker yields directories parent-first: every directory is reported
// before any of its descendants, and a directory's subtree is finished before
// its next sibling starts.
type DirectoryWalker interface {
	Walk(root string, fn WalkFunc) error
}

// FSWalker walks an fs.FS. Entries are visited in lexical order, hidden entries
// (leading ".") are skipped, and only files with an accepted extension are
// reported.
type FSWalker struct {
	FS         fs.FS
	Extensions []string
}

// NewOSWalker walks the directory tree rooted at dir on the local filesystem.
func NewOSWalker(dir string, extensions []string) *FSWalker {
	return &FSWalker{FS: os.DirFS(dir), Extensions: extensions}
}

// Walk implements DirectoryWalker.
func (w *FSWalker) Walk(root string, fn WalkFunc) error {
	if root == "" {
		root = "."
	}

	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := fs.ReadDir(w.FS, dir)
		if err != nil {
			return serrors.WalkFailed(dir, err)
		}

		step := Dir{Path: dir}
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			switch {
			case e.IsDir():
				step.Subdirs = append(step.Subdirs, name)
			case e.Type().IsRegular() && w.Accepts(name):
				step.Files = append(step.Files, name)
			}
		}

		if err := fn(step); err != nil {
			return err
		}

		for i := len(step.Subdirs) - 1; i >= 0; i-- {
			stack = append(stack, path.Join(dir, step.Subdirs[i]))
		}
	}
	return nil
}

// Accepts reports whether name carries a content extension. An empty
// extension list accepts every file.
func (w *FSWalker) Accepts(name string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	ext := path.Ext(name)
	for _, want := range w.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
