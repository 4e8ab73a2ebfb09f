package gitctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// maxCommits is MaxCommits as a variable so tests can lower it.
var maxCommits = MaxCommits

// errStop signals that the consumer stopped ranging early.
var errStop = errors.New("stop")

// Fetch validates path and returns a lazy, single-pass sequence of records
// matching f. The repository is opened when ranging starts and closed when
// it ends, including on early break.
func Fetch(ctx context.Context, path string, f Filter) (iter.Seq2[CommitRecord, error], error) {
	mode, err := ParseMode(string(f.Mode))
	if err != nil {
		return nil, err
	}
	f.Mode = mode
	if _, err := Validate(path); err != nil {
		slog.Error("repository validation failed", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}

	ex := Extractor{Exclude: f.Exclude}
	var consumed atomic.Bool
	return func(yield func(CommitRecord, error) bool) {
		if consumed.Swap(true) {
			yield(CommitRecord{}, ErrSequenceConsumed)
			return
		}
		err := WithRepo(path, func(r *Repo) error {
			switch f.Mode {
			case ModeStaged:
				return fetchStaged(ctx, r, ex, yield)
			case ModeHashes:
				return fetchHashes(ctx, r, ex, f.Hashes, yield)
			default:
				return fetchHistory(ctx, r, ex, f, yield)
			}
		})
		switch {
		case err == nil, errors.Is(err, errStop):
		case ctx.Err() != nil:
			yield(CommitRecord{}, ctx.Err())
		default:
			slog.Error("fetch failed", slog.String("path", path), slog.String("mode", string(f.Mode)), slog.Any("error", err))
			yield(CommitRecord{}, fmt.Errorf("%w: %w", ErrFetchFailed, err))
		}
	}, nil
}

func fetchStaged(ctx context.Context, r *Repo, ex Extractor, yield func(CommitRecord, error) bool) error {
	diff := ex.Extract(ctx, StagedSource(r))
	if diff == NoChanges || strings.TrimSpace(diff) == "" {
		return nil
	}
	author := r.userName()
	if author == "" {
		author = StagedAuthor
	}
	rec := CommitRecord{
		Hash:      StagedHash,
		ShortHash: StagedShortHash,
		Author:    author,
		Date:      time.Now(),
		Message:   StagedMessage,
		Diff:      diff,
	}
	if !yield(rec, nil) {
		return errStop
	}
	return nil
}

func fetchHistory(ctx context.Context, r *Repo, ex Extractor, f Filter, yield func(CommitRecord, error) bool) error {
	head, err := r.head()
	if err != nil {
		return err
	}
	if head == nil {
		return nil
	}
	commits, err := r.git.Log(&git.LogOptions{
		From:  head.Hash,
		Order: git.LogOrderCommitterTime,
		Since: f.Since,
		Until: f.Until,
	})
	if err != nil {
		return fmt.Errorf("walking history: %w", err)
	}
	defer commits.Close()

	limit := f.Limit
	capped := limit <= 0 || limit > maxCommits
	if capped {
		limit = maxCommits
	}
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := commits.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("walking history: %w", err)
		}
		if f.Author != "" && !strings.Contains(c.Author.Name, f.Author) {
			continue
		}
		if count == limit {
			if capped {
				slog.Warn("history truncated at commit ceiling", slog.Int("ceiling", maxCommits))
			}
			return nil
		}
		count++
		if !yield(commitRecord(ctx, ex, c), nil) {
			return errStop
		}
	}
}

func fetchHashes(ctx context.Context, r *Repo, ex Extractor, hashes []string, yield func(CommitRecord, error) bool) error {
	for _, h := range hashes {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := r.resolve(strings.TrimSpace(h))
		if err != nil {
			slog.Warn("skipping unresolvable commit", slog.String("hash", h), slog.Any("error", err))
			continue
		}
		if !yield(commitRecord(ctx, ex, c), nil) {
			return errStop
		}
	}
	return nil
}

func commitRecord(ctx context.Context, ex Extractor, c *object.Commit) CommitRecord {
	author := strings.TrimSpace(c.Author.Name)
	if author == "" {
		author = UnknownAuthor
	}
	hash := c.Hash.String()
	return CommitRecord{
		Hash:      hash,
		ShortHash: shortHash(hash),
		Author:    author,
		Date:      c.Committer.When,
		Message:   strings.TrimSpace(c.Message),
		Diff:      ex.Extract(ctx, CommitSource(c)),
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[CommitRecord, error]) ([]CommitRecord, error) {
	var out []CommitRecord
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FromSlice adapts records to a sequence.
func FromSlice(records []CommitRecord) iter.Seq2[CommitRecord, error] {
	return func(yield func(CommitRecord, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}
