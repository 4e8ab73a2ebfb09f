package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// PathStore persists the list of repositories the user has worked with.
type PathStore interface {
	Load() ([]string, error)
	Save(paths []string) error
}

// FilePathStore keeps saved paths in a JSON file. Writes replace the whole
// file without locking; concurrent invocations may lose an update.
type FilePathStore struct {
	Path string
}

type pathFile struct {
	SavedPaths []string `json:"saved_paths"`
}

// DefaultPathStore stores paths in repo_config.json in the config dir.
func DefaultPathStore() (*FilePathStore, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return &FilePathStore{Path: filepath.Join(dir, "repo_config.json")}, nil
}

// Load returns the saved paths; a missing file yields none.
func (s *FilePathStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading saved paths: %w", err)
	}
	var pf pathFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing saved paths: %w", err)
	}
	return pf.SavedPaths, nil
}

// Save replaces the saved paths.
func (s *FilePathStore) Save(paths []string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if paths == nil {
		paths = []string{}
	}
	data, err := json.MarshalIndent(pathFile{SavedPaths: paths}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling saved paths: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// NormalizePath makes path absolute and clean so equivalent spellings
// compare equal.
func NormalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// Remember adds path to the store unless an equivalent path is saved. An
// unreadable store is logged and replaced.
func Remember(s PathStore, path string) error {
	path = NormalizePath(path)
	paths, err := s.Load()
	if err != nil {
		slog.Warn("saved paths unreadable, starting fresh", slog.Any("error", err))
		paths = nil
	}
	for _, p := range paths {
		if NormalizePath(p) == path {
			return nil
		}
	}
	return s.Save(append(paths, path))
}

// Forget removes path from the store. It reports whether anything changed.
func Forget(s PathStore, path string) (bool, error) {
	path = NormalizePath(path)
	paths, err := s.Load()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(paths), func(p string) bool {
		return NormalizePath(p) == path
	})
	if len(kept) == len(paths) {
		return false, nil
	}
	return true, s.Save(kept)
}
