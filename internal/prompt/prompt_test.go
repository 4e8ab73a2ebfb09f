package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitprompt/internal/gitctx"
	"github.com/dshills/gitprompt/internal/tokens"
)

// byteCounter charges one token per byte.
type byteCounter struct{}

func (byteCounter) Count(text string) int { return len(text) }

func records(n int) []gitctx.CommitRecord {
	out := make([]gitctx.CommitRecord, n)
	for i := range out {
		out[i] = gitctx.CommitRecord{
			Hash:      strings.Repeat(string(rune('a'+i)), 40),
			ShortHash: strings.Repeat(string(rune('a'+i)), 7),
			Message:   "change " + string(rune('A'+i)) + "\n\nbody",
			Diff:      "--- FILE: f.go ---\n+line\n",
		}
	}
	return out
}

func TestAssemble_Empty(t *testing.T) {
	res := New(byteCounter{}, 1000).Assemble("sys", "user {DIFF_CONTENT}", nil)
	assert.True(t, res.Empty())
	assert.Equal(t, Result{}, res)
}

func TestAssemble_SingleCommitHasNoLabel(t *testing.T) {
	recs := records(1)
	res := New(byteCounter{}, 10000).Assemble("You review code.", "Review:\n{DIFF_CONTENT}", recs)

	want := "--- SYSTEM PROMPT ---\nYou review code.\n\n--- USER PROMPT ---\nReview:\n" + recs[0].Diff
	assert.Equal(t, want, res.Payload)
	assert.NotContains(t, res.Payload, "--- Diff for")
	assert.Equal(t, 1, res.Included)
	assert.Zero(t, res.Omitted)
	assert.Equal(t, len(want), res.Tokens)
}

func TestAssemble_MultipleCommitsLabeledInOrder(t *testing.T) {
	recs := records(3)
	res := New(byteCounter{}, 10000).Assemble("", "{DIFF_CONTENT}", recs)

	assert.Equal(t, 3, strings.Count(res.Payload, "--- Diff for "))
	a := strings.Index(res.Payload, "--- Diff for aaaaaaa: change A ---")
	b := strings.Index(res.Payload, "--- Diff for bbbbbbb: change B ---")
	c := strings.Index(res.Payload, "--- Diff for ccccccc: change C ---")
	require.True(t, a >= 0 && b > a && c > b, "labels out of order:\n%s", res.Payload)
	assert.Contains(t, res.Payload, recs[0].Diff+"\n\n--- Diff for bbbbbbb")
	assert.NotContains(t, res.Payload, "[INFO:")
}

func TestAssemble_TinyBudgetOmitsAll(t *testing.T) {
	recs := records(4)
	res := New(byteCounter{}, 5).Assemble("system", "user {DIFF_CONTENT}", recs)

	assert.Zero(t, res.Included)
	assert.Equal(t, 4, res.Omitted)
	assert.True(t, strings.HasSuffix(res.Payload,
		"user \n\n[INFO: 4 commits were omitted to fit within the token limit.]"))
}

func TestAssemble_PartialBudget(t *testing.T) {
	recs := records(3)
	a := New(byteCounter{}, 1)
	base := len(frame("s", "u "))
	chunk := len(label(recs[0], 3))
	a.maxTokens = base + 2*chunk

	res := a.Assemble("s", "u {DIFF_CONTENT}", recs)
	assert.Equal(t, 2, res.Included)
	assert.Equal(t, 1, res.Omitted)
	assert.Contains(t, res.Payload, "[INFO: 1 commits were omitted to fit within the token limit.]")
	assert.NotContains(t, res.Payload, "ccccccc")
}

func TestAssemble_PlaceholderReplacedEverywhere(t *testing.T) {
	recs := records(1)
	res := New(byteCounter{}, 10000).Assemble("", "A{DIFF_CONTENT}B{DIFF_CONTENT}", recs)
	assert.Equal(t, 2, strings.Count(res.Payload, recs[0].Diff))
	assert.NotContains(t, res.Payload, Placeholder)
}

func TestNew_Defaults(t *testing.T) {
	a := New(nil, 0)
	assert.Equal(t, DefaultMaxTokens, a.MaxTokens())
	assert.NotNil(t, a.counter)
}

func TestAssemble_RealCounter(t *testing.T) {
	res := New(tokens.ForModel("gpt-4"), 100000).Assemble("sys", "{DIFF_CONTENT}", records(2))
	assert.Equal(t, 2, res.Included)
	assert.Positive(t, res.Tokens)
}
