package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitprompt/internal/gitctx"
)

func sampleRecords() []gitctx.CommitRecord {
	when := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []gitctx.CommitRecord{
		{Hash: "1111111aaaa", ShortHash: "1111111", Author: "Ada", Date: when, Message: "first", Diff: "--- NEW FILE: a ---\n+x\n"},
		{Hash: "2222222bbbb", ShortHash: "2222222", Author: "Grace", Date: when.Add(time.Hour), Message: "second", Diff: "--- FILE: a ---\n"},
		{Hash: gitctx.StagedHash, ShortHash: gitctx.StagedShortHash, Author: "Ada", Date: when, Message: gitctx.StagedMessage, Diff: "d"},
	}
}

func TestSaveRecords_EmptySequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	n, ok := SaveRecords(path, gitctx.FromSlice(nil))
	require.True(t, ok)
	assert.Zero(t, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed []any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotNil(t, parsed)
	assert.Empty(t, parsed)
	assert.Equal(t, "[]\n", string(data))
}

func TestSaveRecords_RoundTrip(t *testing.T) {
	in := sampleRecords()
	path := filepath.Join(t.TempDir(), "out.json")
	n, ok := SaveRecords(path, gitctx.FromSlice(in))
	require.True(t, ok)
	assert.Equal(t, len(in), n)

	out, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Hash, out[i].Hash)
		assert.Equal(t, in[i].Diff, out[i].Diff)
		assert.True(t, in[i].Date.Equal(out[i].Date))
	}
}

func TestEncodeRecords_CanonicalFields(t *testing.T) {
	var buf bytes.Buffer
	_, err := EncodeRecords(&buf, gitctx.FromSlice(sampleRecords()[:1]))
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed, 1)
	keys := make([]string, 0, len(parsed[0]))
	for k := range parsed[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"hash", "short_hash", "author", "date", "message", "diff"}, keys)
	assert.Equal(t, "2024-03-01T09:30:00Z", parsed[0]["date"])
}

func failingSeq(good []gitctx.CommitRecord, err error) iter.Seq2[gitctx.CommitRecord, error] {
	return func(yield func(gitctx.CommitRecord, error) bool) {
		for _, r := range good {
			if !yield(r, nil) {
				return
			}
		}
		yield(gitctx.CommitRecord{}, err)
	}
}

func TestSaveRecords_SequenceErrorLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	n, ok := SaveRecords(path, failingSeq(sampleRecords()[:2], errors.New("walk broke")))
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file should be removed")
}

func TestSaveRecords_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, ok := SaveRecords(filepath.Join(blocker, "out.json"), gitctx.FromSlice(sampleRecords()))
	assert.False(t, ok)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeRecords_WriteError(t *testing.T) {
	_, err := EncodeRecords(failWriter{}, gitctx.FromSlice(sampleRecords()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
