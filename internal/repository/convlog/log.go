// Package convlog maintains the append-only conversation log: one
// human-readable timestamped text file per domain. Entries are never
// mutated or deleted by the engine.
package convlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const entrySeparator = "---\n"

// Log is a file-backed conversation log.
type Log struct {
	root string
	now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a conversation log rooted at dir.
func New(dir string) *Log {
	return &Log{root: dir, now: time.Now, locks: make(map[string]*sync.Mutex)}
}

// WithClock overrides the timestamp source, for tests.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

func (l *Log) lockFor(domainName string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[domainName]
	if !ok {
		m = &sync.Mutex{}
		l.locks[domainName] = m
	}
	return m
}

func (l *Log) path(domainName string) string {
	return filepath.Join(l.root, "domains", domainName, "conversation.log")
}

// Append records one query/response exchange.
func (l *Log) Append(domainName, query, response string) error {
	lock := l.lockFor(domainName)
	lock.Lock()
	defer lock.Unlock()

	path := l.path(domainName)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create domain dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open conversation log: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("%s[%s]\nQ: %s\nA: %s\n",
		entrySeparator,
		l.now().UTC().Format(time.RFC3339),
		sanitize(query),
		sanitize(response),
	)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append conversation log: %w", err)
	}
	return nil
}

// Tail returns the newest log content up to maxChars, cut at an entry
// boundary when possible. A missing log is an empty tail.
func (l *Log) Tail(domainName string, maxChars int) (string, error) {
	data, err := os.ReadFile(l.path(domainName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read conversation log: %w", err)
	}

	text := string(data)
	if maxChars <= 0 || len(text) <= maxChars {
		return text, nil
	}

	tail := text[len(text)-maxChars:]
	// Drop the leading partial entry.
	if idx := strings.Index(tail, entrySeparator); idx >= 0 {
		tail = tail[idx:]
	}
	return tail, nil
}

// sanitize keeps single entries on predictable lines so Tail can cut at
// entry boundaries.
func sanitize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), entrySeparator, "- - -\n")
}
