package gitctx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ChangeKind classifies a single file change.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota
	ChangeAdded
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeDeleted:
		return "deleted"
	default:
		return "modified"
	}
}

// classify resolves overlapping flags: new wins over deleted, deleted over
// modified.
func classify(isNew, isDeleted bool) ChangeKind {
	switch {
	case isNew:
		return ChangeAdded
	case isDeleted:
		return ChangeDeleted
	default:
		return ChangeModified
	}
}

// FileChange is one file's difference between two snapshots.
type FileChange struct {
	Kind    ChangeKind
	OldPath string
	NewPath string
	From    *object.File
	To      *object.File

	patch   func() (string, error)
	loadErr error
	note    string
}

// Path is the path shown for the change.
func (c FileChange) Path() string {
	switch {
	case c.Kind == ChangeDeleted:
		return c.OldPath
	case c.OldPath != "" && c.NewPath != "" && c.OldPath != c.NewPath:
		return c.OldPath + " -> " + c.NewPath
	case c.NewPath != "":
		return c.NewPath
	default:
		return c.OldPath
	}
}

func (c FileChange) header() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("--- NEW FILE: %s ---\n", c.Path())
	case ChangeDeleted:
		return fmt.Sprintf("--- DELETED FILE: %s ---\n", c.Path())
	default:
		return fmt.Sprintf("--- FILE: %s ---\n", c.Path())
	}
}

func (c FileChange) body() (body string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if c.note != "" {
		return c.note, nil
	}
	if c.loadErr != nil {
		return "", c.loadErr
	}
	switch c.Kind {
	case ChangeAdded:
		return prefixLines(c.To, '+')
	case ChangeDeleted:
		return prefixLines(c.From, '-')
	default:
		if c.patch == nil {
			return "", errors.New("no patch available")
		}
		text, err := c.patch()
		if err != nil {
			return "", err
		}
		return strings.ToValidUTF8(text, "�"), nil
	}
}

// prefixLines streams a blob line by line, prefixing each line.
func prefixLines(f *object.File, prefix byte) (string, error) {
	if f == nil {
		return "", errors.New("missing blob")
	}
	binary, err := f.IsBinary()
	if err != nil {
		return "", fmt.Errorf("inspecting %s: %w", f.Name, err)
	}
	if binary {
		return fmt.Sprintf("Binary file (%d bytes) not shown.\n", f.Size), nil
	}
	rc, err := f.Reader()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}
	defer rc.Close()

	var b strings.Builder
	br := bufio.NewReader(rc)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			b.WriteByte(prefix)
			b.WriteString(strings.ToValidUTF8(strings.TrimSuffix(line, "\n"), "�"))
			b.WriteByte('\n')
		}
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", f.Name, err)
		}
	}
}

// SourceKind tags which comparison a DiffSource describes.
type SourceKind int

const (
	SourceStaged SourceKind = iota + 1
	SourceCommit
	SourceRootCommit
)

// DiffSource names the two snapshots to compare.
type DiffSource struct {
	Kind   SourceKind
	Commit *object.Commit
	Parent *object.Commit

	repo *Repo
}

// StagedSource compares HEAD with the index of r.
func StagedSource(r *Repo) DiffSource {
	return DiffSource{Kind: SourceStaged, repo: r}
}

// CommitSource compares c with its first parent, or with the empty tree
// when c is a root commit.
func CommitSource(c *object.Commit) DiffSource {
	if c.NumParents() == 0 {
		return DiffSource{Kind: SourceRootCommit, Commit: c}
	}
	return DiffSource{Kind: SourceCommit, Commit: c}
}

// Extractor renders DiffSources into normalized diff text.
type Extractor struct {
	Exclude []string
}

// Extract never fails: a comparison that cannot be computed yields a
// single "Error extracting diff" line.
func (e Extractor) Extract(ctx context.Context, src DiffSource) string {
	changes, err := e.Changes(ctx, src)
	if err != nil {
		slog.Warn("diff extraction failed", slog.String("source", src.describe()), slog.Any("error", err))
		return "Error extracting diff: " + err.Error()
	}
	return e.Render(changes)
}

// Changes lists the file changes of src in path order.
func (e Extractor) Changes(ctx context.Context, src DiffSource) ([]FileChange, error) {
	switch src.Kind {
	case SourceStaged:
		if src.repo == nil {
			return nil, errors.New("staged source without repository")
		}
		return stagedChanges(src.repo)
	case SourceCommit, SourceRootCommit:
		if src.Commit == nil {
			return nil, errors.New("commit source without commit")
		}
		return commitChanges(ctx, src)
	default:
		return nil, fmt.Errorf("unknown diff source kind %d", src.Kind)
	}
}

// Render formats changes, skipping excluded paths. A per-file failure
// replaces that file's body and the rest are still rendered.
func (e Extractor) Render(changes []FileChange) string {
	blocks := make([]string, 0, len(changes))
	for _, c := range changes {
		if e.excluded(c) {
			continue
		}
		blocks = append(blocks, renderChange(c))
	}
	if len(blocks) == 0 {
		return NoChanges
	}
	return strings.Join(blocks, "\n")
}

func renderChange(c FileChange) string {
	body, err := c.body()
	if err != nil {
		slog.Warn("diff entry failed", slog.String("path", c.Path()), slog.Any("error", err))
		body = "Error reading diff entry: " + err.Error() + "\n"
	}
	return c.header() + body
}

func (e Extractor) excluded(c FileChange) bool {
	if len(e.Exclude) == 0 {
		return false
	}
	for _, p := range []string{c.OldPath, c.NewPath} {
		if p != "" && MatchesAny(p, e.Exclude) {
			return true
		}
	}
	return false
}

// MatchesAny returns true if the path matches any of the given doublestar
// patterns. Invalid patterns never match.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (s DiffSource) describe() string {
	switch s.Kind {
	case SourceStaged:
		return "staged"
	case SourceCommit, SourceRootCommit:
		if s.Commit != nil {
			return s.Commit.Hash.String()
		}
	}
	return "unknown"
}

func commitChanges(ctx context.Context, src DiffSource) ([]FileChange, error) {
	to, err := src.Commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", src.Commit.Hash, err)
	}
	from := &object.Tree{}
	if src.Kind == SourceCommit {
		parent := src.Parent
		if parent == nil {
			if parent, err = src.Commit.Parent(0); err != nil {
				return nil, fmt.Errorf("reading parent of %s: %w", src.Commit.Hash, err)
			}
		}
		if from, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("reading tree of %s: %w", parent.Hash, err)
		}
	}

	treeChanges, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w", src.Commit.Hash, err)
	}
	changes := make([]FileChange, 0, len(treeChanges))
	for _, tc := range treeChanges {
		changes = append(changes, fromTreeChange(tc))
	}
	sortChanges(changes)
	return changes, nil
}

func fromTreeChange(tc *object.Change) FileChange {
	fc := FileChange{
		OldPath: tc.From.Name,
		NewPath: tc.To.Name,
		patch: func() (string, error) {
			p, err := tc.Patch()
			if err != nil {
				return "", err
			}
			return p.String(), nil
		},
	}
	action, err := tc.Action()
	if err != nil {
		fc.loadErr = err
		return fc
	}
	fc.Kind = classify(action == merkletrie.Insert, action == merkletrie.Delete)
	fc.From, fc.To, fc.loadErr = tc.Files()
	return fc
}

func sortChanges(changes []FileChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return sortKey(changes[i]) < sortKey(changes[j])
	})
}

func sortKey(c FileChange) string {
	if c.NewPath != "" {
		return c.NewPath
	}
	return c.OldPath
}
