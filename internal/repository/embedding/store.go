// Package embedding persists pattern and document vectors as one JSON
// mapping file per domain: owner ID -> {vector, model_version}.
package embedding

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/loreworks/queryon/internal/domain"
)

// Store is a file-backed embedding repository.
type Store struct {
	root string
	name string // file basename, e.g. "embeddings.json" or "library.embeddings.json"

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates an embedding store rooted at dir writing the given
// per-domain file name.
func NewStore(dir, name string) *Store {
	return &Store{root: dir, name: name, locks: make(map[string]*sync.Mutex)}
}

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
	return filepath.Join(s.root, "domains", domainName, s.name)
}

// Load returns the full owner->record mapping of a domain. A missing
// file yields an empty map.
func (s *Store) Load(domainName string) (map[string]domain.EmbeddingRecord, error) {
	data, err := os.ReadFile(s.path(domainName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]domain.EmbeddingRecord{}, nil
		}
		return nil, fmt.Errorf("read embeddings: %w", err)
	}

	records := map[string]domain.EmbeddingRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse embeddings %s: %w", s.path(domainName), err)
	}
	return records, nil
}

// Put stores one record under the domain's single-writer lock.
func (s *Store) Put(domainName, ownerID string, rec domain.EmbeddingRecord) error {
	lock := s.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.Load(domainName)
	if err != nil {
		return err
	}
	records[ownerID] = rec
	return s.writeAll(domainName, records)
}

// Delete removes a record. Unknown IDs are a no-op.
func (s *Store) Delete(domainName, ownerID string) error {
	lock := s.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.Load(domainName)
	if err != nil {
		return err
	}
	if _, ok := records[ownerID]; !ok {
		return nil
	}
	delete(records, ownerID)
	return s.writeAll(domainName, records)
}

func (s *Store) writeAll(domainName string, records map[string]domain.EmbeddingRecord) error {
	path := s.path(domainName)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create domain dir: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode embeddings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".embeddings-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write embeddings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace embeddings file: %w", err)
	}
	return nil
}
