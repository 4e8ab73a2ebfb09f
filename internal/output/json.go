package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dshills/gitprompt/internal/gitctx"
)

// EncodeRecords writes seq to w as an indented JSON array, one element at a
// time. It returns how many records were written.
func EncodeRecords(w io.Writer, seq iter.Seq2[gitctx.CommitRecord, error]) (int, error) {
	ew := &errWriter{w: w}
	n := 0
	ew.printf("[")
	for rec, err := range seq {
		if err != nil {
			return n, fmt.Errorf("reading record %d: %w", n, err)
		}
		data, err := json.MarshalIndent(rec, "  ", "  ")
		if err != nil {
			return n, fmt.Errorf("marshaling record %s: %w", rec.Hash, err)
		}
		if n > 0 {
			ew.printf(",")
		}
		ew.printf("\n  %s", data)
		if ew.err != nil {
			return n, fmt.Errorf("writing record %s: %w", rec.Hash, ew.err)
		}
		n++
	}
	if n > 0 {
		ew.printf("\n")
	}
	ew.println("]")
	if ew.err != nil {
		return n, fmt.Errorf("writing JSON: %w", ew.err)
	}
	return n, nil
}

// WriteRecordsFile streams seq into path. The file is written beside its
// destination and renamed into place, so a failed write leaves no partial
// array behind.
func WriteRecordsFile(path string, seq iter.Seq2[gitctx.CommitRecord, error]) (n int, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	n, err = EncodeRecords(bw, seq)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("moving output into place: %w", err)
	}
	return n, nil
}

// SaveRecords is WriteRecordsFile for callers that only need success or
// failure. Errors are logged rather than returned.
func SaveRecords(path string, seq iter.Seq2[gitctx.CommitRecord, error]) (int, bool) {
	n, err := WriteRecordsFile(path, seq)
	if err != nil {
		slog.Error("saving records failed",
			slog.String("path", path),
			slog.Int("written", n),
			slog.Any("error", err))
		return n, false
	}
	slog.Info("records saved", slog.String("path", path), slog.Int("count", n))
	return n, true
}

// ReadRecords loads a file written by SaveRecords.
func ReadRecords(path string) ([]gitctx.CommitRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []gitctx.CommitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}
