package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/tokens"
)

const (
	// Placeholder marks where diff content goes in a user prompt.
	Placeholder = "{DIFF_CONTENT}"

	SystemHeader = "--- SYSTEM PROMPT ---"
	UserHeader   = "--- USER PROMPT ---"

	// DefaultMaxTokens is the budget used when none is configured.
	DefaultMaxTokens = 120000

	chunkSeparator = "\n\n"
)

// Result is an assembled prompt and what went into it.
type Result struct {
	Payload  string
	Included int
	Omitted  int
	Tokens   int
}

// Empty reports whether nothing was assembled.
func (r Result) Empty() bool {
	return r.Payload == ""
}

// Assembler packs commit diffs into a prompt under a token budget.
type Assembler struct {
	counter   tokens.Counter
	maxTokens int
}

// New returns an Assembler. A nil counter uses the default model encoding and
// a non-positive budget uses DefaultMaxTokens.
func New(counter tokens.Counter, maxTokens int) *Assembler {
	if counter == nil {
		counter = tokens.ForModel(tokens.DefaultModel)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Assembler{counter: counter, maxTokens: maxTokens}
}

// MaxTokens returns the budget.
func (a *Assembler) MaxTokens() int {
	return a.maxTokens
}

// Assemble substitutes the diffs of records into the user prompt, accepting
// records in order until the next one would exceed the budget. An empty
// record list produces an empty Result.
func (a *Assembler) Assemble(system, user string, records []gitctx.CommitRecord) Result {
	if len(records) == 0 {
		return Result{}
	}

	used := a.counter.Count(frame(system, strings.ReplaceAll(user, Placeholder, "")))
	chunks := make([]string, 0, len(records))
	for _, rec := range records {
		chunk := label(rec, len(records))
		cost := a.counter.Count(chunk)
		if used+cost > a.maxTokens {
			break
		}
		used += cost
		chunks = append(chunks, chunk)
	}

	omitted := len(records) - len(chunks)
	content := strings.Join(chunks, chunkSeparator)
	if omitted > 0 {
		content += truncationNotice(omitted)
	}

	payload := frame(system, strings.ReplaceAll(user, Placeholder, content))
	return Result{
		Payload:  payload,
		Included: len(chunks),
		Omitted:  omitted,
		Tokens:   a.counter.Count(payload),
	}
}

func frame(system, user string) string {
	return SystemHeader + "\n" + system + "\n\n" + UserHeader + "\n" + user
}

// label prefixes a diff with its commit identity unless it is the only one.
func label(rec gitctx.CommitRecord, total int) string {
	if total == 1 {
		return rec.Diff
	}
	return fmt.Sprintf("--- Diff for %s: %s ---\n%s", rec.ShortHash, rec.Subject(), rec.Diff)
}

func truncationNotice(n int) string {
	return fmt.Sprintf("\n\n[INFO: %d commits were omitted to fit within the token limit.]", n)
}
