// Package filestore manages the on-disk audio clips: writing uploads,
// renaming with a backup so a failed rename can be rolled back, and
// deleting.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is an audio file store rooted at a single directory.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// path resolves a filename inside the store, rejecting anything that
// escapes the root directory.
func (s *Store) path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || name != filepath.Base(name) {
		return "", fmt.Errorf("illegal filename %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Write stores an audio payload under the given filename.
func (s *Store) Write(name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Rename moves a clip to a new filename. A backup copy is taken first; if
// the rename fails the original is restored from the backup, and if taking
// the backup fails the original is never touched. The backup is removed on
// success.
func (s *Store) Rename(oldName, newName string) error {
	oldPath, err := s.path(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.path(newName)
	if err != nil {
		return err
	}

	backupPath := oldPath + ".bak"
	if err := copyFile(oldPath, backupPath); err != nil {
		return fmt.Errorf("backup before rename: %w", err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		// Restore from the backup. If the restore itself fails the caller
		// still sees the original rename error; the secondary failure is
		// surfaced by Remove's caller logging.
		if restoreErr := os.Rename(backupPath, oldPath); restoreErr != nil {
			return fmt.Errorf("rename failed (%v) and restore failed: %w", err, restoreErr)
		}
		return fmt.Errorf("rename: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("remove backup after rename: %w", err)
	}
	return nil
}

// Remove deletes a clip. No retry is attempted on failure.
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
