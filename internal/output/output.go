package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/gitprompt/internal/gitctx"
)

// Folders under the output root, one per kind of extraction.
const (
	FolderStaged   = "Staged_Changes"
	FolderHistory  = "All_History"
	FolderLastN    = "Last_N_Commits"
	FolderRange    = "Date_Range"
	FolderAuthor   = "By_Author"
	FolderSelected = "Selected_Commits"
	FolderPrompts  = "Prompts"
)

// FolderFor picks the output folder that describes f.
func FolderFor(f gitctx.Filter) string {
	switch {
	case f.Mode == gitctx.ModeStaged:
		return FolderStaged
	case f.Mode == gitctx.ModeHashes:
		return FolderSelected
	case f.Author != "":
		return FolderAuthor
	case f.Since != nil || f.Until != nil:
		return FolderRange
	case f.Limit > 0:
		return FolderLastN
	default:
		return FolderHistory
	}
}

// FileName builds a timestamped file name such as "myrepo_20240301_090000.json".
func FileName(repoRoot, ext string, now time.Time) string {
	base := filepath.Base(filepath.Clean(repoRoot))
	if base == "." || base == string(filepath.Separator) {
		base = "repo"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// ResolvePath joins the output root, folder and file name.
func ResolvePath(root, folder, name string) string {
	return filepath.Join(root, folder, name)
}

// WritePrompt writes text to outPath, or to w when outPath is empty.
func WritePrompt(w io.Writer, text, outPath string) error {
	if outPath == "" {
		return writeText(w, text)
	}
	return SavePrompt(outPath, text)
}

// SavePrompt writes a prompt file, creating parent directories.
func SavePrompt(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeText(f, text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeText(w io.Writer, text string) error {
	ew := &errWriter{w: w}
	ew.printf("%s", text)
	if !strings.HasSuffix(text, "\n") {
		ew.println("")
	}
	if ew.err != nil {
		return fmt.Errorf("writing prompt: %w", ew.err)
	}
	return nil
}
