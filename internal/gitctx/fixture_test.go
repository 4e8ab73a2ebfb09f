package gitctx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// fixture is a throwaway repository built with go-git.
type fixture struct {
	t     *testing.T
	dir   string
	repo  *git.Repository
	wt    *git.Worktree
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{
		t:     t,
		dir:   dir,
		repo:  repo,
		wt:    wt,
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) stage(name string) {
	f.t.Helper()
	_, err := f.wt.Add(name)
	require.NoError(f.t, err)
}

func (f *fixture) remove(name string) {
	f.t.Helper()
	_, err := f.wt.Remove(name)
	require.NoError(f.t, err)
}

func (f *fixture) commit(msg, author string) plumbing.Hash {
	f.t.Helper()
	f.clock = f.clock.Add(time.Hour)
	h, err := f.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: "dev@example.com", When: f.clock},
	})
	require.NoError(f.t, err)
	return h
}

// commitFile writes, stages and commits a single file.
func (f *fixture) commitFile(name, content, msg string) plumbing.Hash {
	f.t.Helper()
	f.write(name, content)
	f.stage(name)
	return f.commit(msg, "Ada Lovelace")
}
