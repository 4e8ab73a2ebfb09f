package gitctx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Sentinel values used in place of real commit metadata.
const (
	StagedHash      = "STAGED_CHANGES"
	StagedShortHash = "STAGED"
	StagedMessage   = "PRE-COMMIT: Staged changes ready for analysis."
	StagedAuthor    = "Current User"
	UnknownAuthor   = "Unknown Author"

	// NoChanges is the diff text of a comparison with no file changes.
	NoChanges = "No changes detected."

	// UnmergedNotice is the body of a path left conflicted in the index.
	UnmergedNotice = "Unmerged path: conflict not resolved.\n"

	// MaxCommits caps every history query regardless of the requested limit.
	MaxCommits = 1000

	shortHashLen = 7
)

var (
	// ErrInvalidRepository is returned when a path does not resolve to a git repository.
	ErrInvalidRepository = errors.New("not a valid git repository")
	// ErrFetchFailed wraps unexpected failures while walking a repository.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrInvalidMode is returned for a fetch mode other than staged, history or hashes.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrSequenceConsumed is yielded when a record sequence is ranged twice.
	ErrSequenceConsumed = errors.New("record sequence already consumed")
)

// CommitRecord is one unit of extracted history: a commit or the staged
// pseudo-commit.
type CommitRecord struct {
	Hash      string    `json:"hash"`
	ShortHash string    `json:"short_hash"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
	Message   string    `json:"message"`
	Diff      string    `json:"diff"`
}

// IsStaged reports whether r is the staged-changes sentinel.
func (r CommitRecord) IsStaged() bool {
	return r.Hash == StagedHash
}

// Subject returns the first line of the commit message.
func (r CommitRecord) Subject() string {
	subject, _, _ := strings.Cut(r.Message, "\n")
	return subject
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}
	return hash[:shortHashLen]
}

// Mode selects which slice of repository state a Filter describes.
type Mode string

const (
	ModeStaged  Mode = "staged"
	ModeHistory Mode = "history"
	ModeHashes  Mode = "hashes"
)

// ParseMode validates a mode name. Empty selects history.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeHistory, nil
	case ModeStaged, ModeHistory, ModeHashes:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q (want staged, history or hashes)", ErrInvalidMode, s)
	}
}

// Filter selects the records a fetch produces.
type Filter struct {
	Mode Mode

	// History mode. Limit <= 0 means no limit below MaxCommits.
	Limit  int
	Since  *time.Time
	Until  *time.Time
	Author string

	// Hashes mode.
	Hashes []string

	// Exclude lists doublestar globs of paths left out of every diff.
	Exclude []string
}

// effectiveLimit applies the hard ceiling to the requested limit.
func (f Filter) effectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxCommits {
		return MaxCommits
	}
	return f.Limit
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339, "YYYY-MM-DD HH:MM:SS" or a bare "YYYY-MM-DD"
// in local time. dateOnly reports whether the value had no time component.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	for i, layout := range dateLayouts {
		var parsed time.Time
		if layout == time.RFC3339 {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return parsed, i == len(dateLayouts)-1, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}

// SinceDate parses a lower date bound.
func SinceDate(s string) (*time.Time, error) {
	t, _, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UntilDate parses an upper date bound. A bare date covers the whole day.
func UntilDate(s string) (*time.Time, error) {
	t, dateOnly, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	if dateOnly {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// FilterFromMap builds a Filter from a loosely typed mapping such as a
// decoded JSON request: mode, limit, since, until, author, hashes, exclude.
func FilterFromMap(m map[string]any) (Filter, error) {
	var f Filter
	mode, err := ParseMode(cast.ToString(m["mode"]))
	if err != nil {
		return f, err
	}
	f.Mode = mode

	if v, ok := m["limit"]; ok && v != nil {
		limit, err := cast.ToIntE(v)
		if err != nil {
			return f, fmt.Errorf("limit: %w", err)
		}
		f.Limit = limit
	}
	if s := cast.ToString(m["since"]); s != "" {
		if f.Since, err = SinceDate(s); err != nil {
			return f, fmt.Errorf("since: %w", err)
		}
	}
	if s := cast.ToString(m["until"]); s != "" {
		if f.Until, err = UntilDate(s); err != nil {
			return f, fmt.Errorf("until: %w", err)
		}
	}
	f.Author = cast.ToString(m["author"])
	f.Hashes = cast.ToStringSlice(m["hashes"])
	f.Exclude = cast.ToStringSlice(m["exclude"])
	return f, nil
}
