// Package store persists named layouts as JSON records, one file per
// layout under the layouts directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/winsnap/internal/layout"
)

// ErrNotFound is returned when a named layout has no record on disk.
var ErrNotFound = errors.New("layout not found")

// Store reads and writes layout records in a single directory. Each
// save is atomic with respect to the record it touches; concurrent
// saves to the same name are last-writer-wins.
type Store struct {
	dir string
}

// DefaultDir returns the standard layouts directory, honoring
// XDG_DATA_HOME.
func DefaultDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "winsnap", "layouts"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "winsnap", "layouts"), nil
}

// New creates a store rooted at dir. The directory is created lazily on
// first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) recordPath(name string) (string, error) {
	if err := layout.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, strings.TrimSpace(name)+".json"), nil
}

// Save validates name and windows, assembles a layout record, and
// writes it atomically. An existing record's created_at is carried
// forward; updated_at always advances.
func (s *Store) Save(name string, windows []layout.WindowState) (*layout.Layout, error) {
	path, err := s.recordPath(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := now
	if existing, err := s.Load(name); err == nil {
		created = existing.CreatedAt
		if !now.After(existing.UpdatedAt) {
			// Coarse clocks can return the same instant twice.
			now = existing.UpdatedAt.Add(time.Nanosecond)
		}
	}

	l := &layout.Layout{
		Name:      strings.TrimSpace(name),
		CreatedAt: created,
		UpdatedAt: now,
		Windows:   windows,
	}
	if err := layout.Validate(l); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create layouts directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout %q: %w", l.Name, err)
	}

	// Write-then-rename so a failed write never leaves a half-written
	// record visible to readers.
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for layout %q: %w", l.Name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write layout %q: %w", l.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write layout %q: %w", l.Name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to publish layout %q: %w", l.Name, err)
	}
	return l, nil
}

// Load reads and re-validates a layout record. A missing record returns
// ErrNotFound; a malformed one returns a parse or validation error.
func (s *Store) Load(name string) (*layout.Layout, error) {
	path, err := s.recordPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("layout %q: %w", strings.TrimSpace(name), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read layout %q: %w", name, err)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse layout %q: %w", name, err)
	}
	if l.Name == "" {
		l.Name = strings.TrimSpace(name)
	}
	// Defense against hand-edited or corrupted records.
	if err := layout.Validate(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the names of all stored layouts in lexicographic order.
// An empty or absent directory is not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a layout record. Deleting a name with no record
// returns ErrNotFound.
func (s *Store) Delete(name string) error {
	path, err := s.recordPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("layout %q: %w", strings.TrimSpace(name), ErrNotFound)
		}
		return fmt.Errorf("failed to delete layout %q: %w", name, err)
	}
	return nil
}

// Exists reports whether a record for name is on disk. Invalid names
// simply do not exist.
func (s *Store) Exists(name string) bool {
	path, err := s.recordPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
