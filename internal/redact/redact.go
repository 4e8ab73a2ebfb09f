package redact

import (
	"iter"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/gitprompt/internal/gitctx"
)

const placeholder = "[REDACTED]"

// PathNotice replaces the body of a file excluded by path policy.
const PathNotice = placeholder + " (file content redacted by path policy)\n"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb(\+srv)?|redis)://[^\s:@/]+:[^\s@/]+@`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`xai-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// fileHeader matches the per-file headers of a rendered diff.
var fileHeader = regexp.MustCompile(`^--- (?:NEW FILE|DELETED FILE|FILE): (.+) ---$`)

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllLiteralString(text, placeholder)
	}
	return text
}

// ShouldRedactPath reports whether path matches a doublestar pattern. A
// leading "**/" also matches at the repository root.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Policy controls what [Diff] removes.
type Policy struct {
	Secrets bool
	Paths   []string
}

// Enabled reports whether the policy changes anything.
func (p Policy) Enabled() bool {
	return p.Secrets || len(p.Paths) > 0
}

// Diff redacts a rendered diff. Files whose path matches the policy lose
// their whole body; the rest are scanned for secrets. Headers are kept so
// readers still see which files changed.
func Diff(diff string, p Policy) string {
	if !p.Enabled() {
		return diff
	}
	var out strings.Builder
	out.Grow(len(diff))
	var body strings.Builder
	hidden := false
	flush := func() {
		switch {
		case hidden:
			out.WriteString(PathNotice)
		case p.Secrets:
			out.WriteString(Secrets(body.String()))
		default:
			out.WriteString(body.String())
		}
		body.Reset()
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		if m := fileHeader.FindStringSubmatch(strings.TrimSuffix(line, "\n")); m != nil {
			flush()
			hidden = headerMatches(m[1], p.Paths)
			out.WriteString(line)
			continue
		}
		body.WriteString(line)
	}
	flush()
	return out.String()
}

// headerMatches checks both sides of a rename ("old -> new").
func headerMatches(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, side := range strings.Split(path, " -> ") {
		if ShouldRedactPath(side, patterns) {
			return true
		}
	}
	return false
}

// Record returns r with its diff redacted.
func Record(r gitctx.CommitRecord, p Policy) gitctx.CommitRecord {
	r.Diff = Diff(r.Diff, p)
	return r
}

// Records redacts every record of seq as it is pulled.
func Records(seq iter.Seq2[gitctx.CommitRecord, error], p Policy) iter.Seq2[gitctx.CommitRecord, error] {
	if !p.Enabled() {
		return seq
	}
	return func(yield func(gitctx.CommitRecord, error) bool) {
		for r, err := range seq {
			if err == nil {
				r = Record(r, p)
			}
			if !yield(r, err) {
				return
			}
		}
	}
}
