// Package pattern persists domain knowledge patterns as one JSON array
// file per domain. Writes are serialized per domain; reads return a
// decoded snapshot and never observe a partial file thanks to
// atomic-rename replacement.
package pattern

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/loreworks/queryon/internal/domain"
)

// Store is a file-backed pattern repository.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a pattern store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}
}

// lockFor returns the single-writer lock of one domain.
func (s *Store) lockFor(domainName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[domainName]
	if !ok {
		l = &sync.Mutex{}
		s.locks[domainName] = l
	}
	return l
}

func (s *Store) path(domainName string) string {
	return filepath.Join(s.root, "domains", domainName, "patterns.json")
}

// LoadAll returns every pattern of a domain. A missing file is an empty
// domain, not an error.
func (s *Store) LoadAll(domainName string) ([]domain.Pattern, error) {
	data, err := os.ReadFile(s.path(domainName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read patterns: %w", err)
	}

	var patterns []domain.Pattern
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("parse patterns %s: %w", s.path(domainName), err)
	}
	return patterns, nil
}

// AppendOne adds a pattern to a domain's file.
func (s *Store) AppendOne(domainName string, p domain.Pattern) error {
	lock := s.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	patterns, err := s.LoadAll(domainName)
	if err != nil {
		return err
	}
	patterns = append(patterns, p)
	return s.writeAll(domainName, patterns)
}

// ReplaceAll atomically replaces a domain's pattern file.
func (s *Store) ReplaceAll(domainName string, patterns []domain.Pattern) error {
	lock := s.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	return s.writeAll(domainName, patterns)
}

// Upsert replaces the pattern with the same ID, or appends it.
func (s *Store) Upsert(domainName string, p domain.Pattern) error {
	lock := s.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	patterns, err := s.LoadAll(domainName)
	if err != nil {
		return err
	}

	replaced := false
	for i := range patterns {
		if patterns[i].ID == p.ID {
			patterns[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		patterns = append(patterns, p)
	}
	return s.writeAll(domainName, patterns)
}

// writeAll writes the full array via temp file + rename. Caller holds the
// domain lock.
func (s *Store) writeAll(domainName string, patterns []domain.Pattern) error {
	path := s.path(domainName)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create domain dir: %w", err)
	}

	if patterns == nil {
		patterns = []domain.Pattern{}
	}
	data, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".patterns-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write patterns: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace patterns file: %w", err)
	}
	return nil
}
