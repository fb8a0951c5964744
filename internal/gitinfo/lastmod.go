// Package gitinfo reads file history from the git repository holding the
// content tree.
package gitinfo

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned by Open when no repository encloses the path.
var ErrNotRepository = errors.New("not inside a git repository")

// Lookup answers last-modified queries against one repository.
type Lookup struct {
	repo *git.Repository
	root string
	head plumbing.Hash
}

// Open finds the repository enclosing path, searching parent directories.
func Open(path string) (*Lookup, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	return &Lookup{repo: repo, root: wt.Filesystem.Root(), head: ref.Hash()}, nil
}

// Root returns the worktree root.
func (l *Lookup) Root() string { return l.root }

// LastModified returns the committer time of the newest commit touching path.
// ok is false when the file has no history (untracked or outside the worktree).
func (l *Lookup) LastModified(path string) (when time.Time, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, err
	}
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return time.Time{}, false, nil
	}
	rel = filepath.ToSlash(rel)

	iter, err := l.repo.Log(&git.LogOptions{From: l.head, FileName: &rel})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if errors.Is(err, io.EOF) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}
	return c.Committer.When, true, nil
}
