package gitctx

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is an open repository handle. Close releases it.
type Repo struct {
	Root string
	git  *git.Repository
}

// Open resolves path upward to the enclosing repository and opens it.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepository, path, err)
	}
	r, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepository, path, err)
	}
	root := abs
	if wt, err := r.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{Root: root, git: r}, nil
}

// Close releases the underlying object storage.
func (r *Repo) Close() error {
	if c, ok := r.git.Storer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithRepo opens the repository at path for the duration of fn.
func WithRepo(path string, fn func(*Repo) error) (err error) {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(r)
}

// Validate reports whether path resolves to a repository, returning its root.
func Validate(path string) (string, error) {
	var root string
	err := WithRepo(path, func(r *Repo) error {
		root = r.Root
		return nil
	})
	return root, err
}

// head returns the commit HEAD points at, or nil for an unborn branch.
func (r *Repo) head() (*object.Commit, error) {
	ref, err := r.git.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	return r.git.CommitObject(ref.Hash())
}

// resolve turns any revision git accepts into a commit.
func (r *Repo) resolve(rev string) (*object.Commit, error) {
	h, err := r.git.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", rev, err)
	}
	return r.git.CommitObject(*h)
}

// userName reads user.name from the repository and global git config.
func (r *Repo) userName() string {
	if cfg, err := r.git.ConfigScoped(gitconfig.GlobalScope); err == nil && cfg.User.Name != "" {
		return cfg.User.Name
	}
	return ""
}
