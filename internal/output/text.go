package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/gitprompt/internal/gitctx"
)

// WriteLog prints one line per record, like a condensed git log.
func WriteLog(w io.Writer, records []gitctx.CommitRecord) error {
	ew := &errWriter{w: w}
	if len(records) == 0 {
		ew.println("No commits found.")
		return ew.err
	}
	for _, r := range records {
		ew.printf("%-7s  %s  %-20s  %s\n",
			r.ShortHash,
			r.Date.Format("2006-01-02 15:04"),
			truncate(r.Author, 20),
			truncate(r.Subject(), 72))
	}
	return ew.err
}

// WriteSummary prints a short report of an assembled prompt.
func WriteSummary(w io.Writer, included, omitted, tokenCount, maxTokens int) error {
	ew := &errWriter{w: w}
	ew.println(strings.Repeat("─", 40))
	ew.printf("Commits included: %d\n", included)
	if omitted > 0 {
		ew.printf("Commits omitted:  %d (token limit)\n", omitted)
	}
	ew.printf("Estimated tokens: %d / %d\n", tokenCount, maxTokens)
	ew.println(strings.Repeat("─", 40))
	return ew.err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
