package gitctx

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// stagedChanges compares the HEAD tree with the index. An unborn HEAD
// compares against the empty tree.
func stagedChanges(r *Repo) ([]FileChange, error) {
	idx, err := r.git.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	headFiles := map[string]*object.File{}
	head, err := r.head()
	if err != nil {
		return nil, err
	}
	if head != nil {
		tree, err := head.Tree()
		if err != nil {
			return nil, fmt.Errorf("reading HEAD tree: %w", err)
		}
		err = tree.Files().ForEach(func(f *object.File) error {
			headFiles[f.Name] = f
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking HEAD tree: %w", err)
		}
	}

	var added, deleted, changes []FileChange
	staged := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Mode == filemode.Submodule || staged[e.Name] {
			continue
		}
		staged[e.Name] = true
		// Stage 0 is a resolved entry; 1-3 are the sides of a conflict.
		if e.Stage != 0 {
			changes = append(changes, unmergedChange(e.Name))
			continue
		}

		old, inHead := headFiles[e.Name]
		if inHead && old.Hash == e.Hash && old.Mode == e.Mode {
			continue
		}
		to, loadErr := r.indexFile(e)
		switch {
		case !inHead:
			added = append(added, FileChange{Kind: ChangeAdded, NewPath: e.Name, To: to, loadErr: loadErr})
		default:
			changes = append(changes, modifiedChange(old, to, loadErr))
		}
	}
	for name, f := range headFiles {
		if !staged[name] {
			deleted = append(deleted, FileChange{Kind: ChangeDeleted, OldPath: name, From: f})
		}
	}

	changes = append(changes, pairRenames(added, deleted)...)
	sortChanges(changes)
	return changes, nil
}

func unmergedChange(name string) FileChange {
	return FileChange{Kind: ChangeModified, OldPath: name, NewPath: name, note: UnmergedNotice}
}

func (r *Repo) indexFile(e *index.Entry) (*object.File, error) {
	blob, err := r.git.BlobObject(e.Hash)
	if err != nil {
		return nil, fmt.Errorf("reading staged blob %s: %w", e.Name, err)
	}
	return object.NewFile(e.Name, e.Mode, blob), nil
}

func modifiedChange(from, to *object.File, loadErr error) FileChange {
	fc := FileChange{Kind: ChangeModified, OldPath: from.Name, From: from, To: to, loadErr: loadErr}
	if to != nil {
		fc.NewPath = to.Name
	}
	fc.patch = func() (string, error) { return unifiedPatch(fc.From, fc.To) }
	return fc
}

// pairRenames turns delete/add pairs with identical content into renames.
func pairRenames(added, deleted []FileChange) []FileChange {
	sortChanges(added)
	sortChanges(deleted)
	byHash := map[plumbing.Hash][]int{}
	for i, d := range deleted {
		byHash[d.From.Hash] = append(byHash[d.From.Hash], i)
	}
	renamed := map[int]bool{}
	out := make([]FileChange, 0, len(added)+len(deleted))
	for _, a := range added {
		if a.To == nil {
			out = append(out, a)
			continue
		}
		candidates := byHash[a.To.Hash]
		if len(candidates) == 0 {
			out = append(out, a)
			continue
		}
		i := candidates[0]
		byHash[a.To.Hash] = candidates[1:]
		renamed[i] = true
		out = append(out, modifiedChange(deleted[i].From, a.To, nil))
	}
	for i, d := range deleted {
		if !renamed[i] {
			out = append(out, d)
		}
	}
	return out
}

// unifiedPatch renders a git-style patch between two blobs.
func unifiedPatch(from, to *object.File) (string, error) {
	if from == nil || to == nil {
		return "", fmt.Errorf("missing blob for patch")
	}
	fp := &filePatch{from: patchFile{from}, to: patchFile{to}}

	fromBinary, err := from.IsBinary()
	if err != nil {
		return "", err
	}
	toBinary, err := to.IsBinary()
	if err != nil {
		return "", err
	}
	if fromBinary || toBinary {
		fp.binary = true
	} else {
		a, err := from.Contents()
		if err != nil {
			return "", err
		}
		b, err := to.Contents()
		if err != nil {
			return "", err
		}
		for _, d := range diff.Do(a, b) {
			fp.chunks = append(fp.chunks, chunk{content: d.Text, op: operation(d.Type)})
		}
	}

	var sb strings.Builder
	enc := fdiff.NewUnifiedEncoder(&sb, fdiff.DefaultContextLines)
	if err := enc.Encode(patch{files: []fdiff.FilePatch{fp}}); err != nil {
		return "", fmt.Errorf("encoding patch for %s: %w", to.Name, err)
	}
	return sb.String(), nil
}

func operation(t diffmatchpatch.Operation) fdiff.Operation {
	switch t {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}

type patch struct{ files []fdiff.FilePatch }

func (p patch) FilePatches() []fdiff.FilePatch { return p.files }
func (p patch) Message() string                { return "" }

type filePatch struct {
	from, to patchFile
	chunks   []fdiff.Chunk
	binary   bool
}

func (p *filePatch) IsBinary() bool                  { return p.binary }
func (p *filePatch) Files() (fdiff.File, fdiff.File) { return p.from, p.to }
func (p *filePatch) Chunks() []fdiff.Chunk           { return p.chunks }

type patchFile struct{ f *object.File }

func (f patchFile) Hash() plumbing.Hash     { return f.f.Hash }
func (f patchFile) Mode() filemode.FileMode { return f.f.Mode }
func (f patchFile) Path() string            { return f.f.Name }

type chunk struct {
	content string
	op      fdiff.Operation
}

func (c chunk) Content() string       { return c.content }
func (c chunk) Type() fdiff.Operation { return c.op }
