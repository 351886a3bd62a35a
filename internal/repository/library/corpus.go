// Package library reads a domain's document corpus for the library
// persona: plain text and markdown files under the domain's library dir.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one corpus file.
type Document struct {
	Path    string // relative to the domain's library dir
	Content string
}

// Corpus lists documents per domain.
type Corpus struct {
	root string
}

// New creates a corpus reader rooted at dir.
func New(dir string) *Corpus {
	return &Corpus{root: dir}
}

func (c *Corpus) dir(domainName string) string {
	return filepath.Join(c.root, "domains", domainName, "library")
}

// List returns every readable document of a domain, sorted by path.
// A missing library dir is an empty corpus.
func (c *Corpus) List(domainName string) ([]Document, error) {
	base := c.dir(domainName)

	var docs []Document
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTextFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read document %s: %w", path, err)
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, Document{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk library: %w", err)
	}
	return docs, nil
}

func isTextFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".markdown", ".rst":
		return true
	}
	return false
}
