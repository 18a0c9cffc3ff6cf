package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSuffix selects article files.
const DefaultSuffix = ".json"

// FS implements Provider backed by a single local directory.
type FS struct {
	root   string // absolute path to the articles directory
	suffix string
}

// NewFS creates a provider for root. The directory is not touched until the
// first call; a missing or unreadable root surfaces as an error from List.
func NewFS(root, suffix string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &FS{root: abs, suffix: suffix}, nil
}

// Root returns the absolute directory path.
func (f *FS) Root() string { return f.root }

// Path returns the absolute path of name.
func (f *FS) Path(name string) string { return filepath.Join(f.root, name) }

// safePath resolves name inside root and rejects anything that is not a
// plain file name (no separators, no traversal).
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid name %q", name)
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: name must not contain a path: %s", name)
	}
	return filepath.Join(f.root, name), nil
}

// List returns every regular file in root ending with the suffix.
func (f *FS) List() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", f.root, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), f.suffix) {
			continue
		}
		// Editors and Write leave dotfiles behind while saving.
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// ModTime stats name and returns its modification time.
func (f *FS) ModTime(name string) (time.Time, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return info.ModTime(), nil
}

// Read returns the raw bytes of name.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".folio-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes name from the directory.
func (f *FS) Delete(name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

var _ Provider = (*FS)(nil)
