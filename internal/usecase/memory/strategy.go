// Package memory implements the conversation-memory subsystem: five
// retrieval policies over an append-only per-domain log and a journal
// pattern store.
package memory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// Deps carries the collaborators a strategy may need.
type Deps struct {
	Log    ConversationLog
	Index  PatternIndexer
	Pool   Submitter
	Logger *zap.Logger
}

// ForConfig selects the strategy for one domain. Unknown modes never
// reach here: the domain config loader validates them at load time.
// A domain with memory disabled gets the journal strategy, which still
// records every exchange but never loads context.
func ForConfig(cfg domain.DomainConfig, deps Deps) (Strategy, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("conversation log is required")
	}

	base := recorder{log: deps.Log, domain: cfg.Name}

	mode := cfg.Memory.Mode
	if !cfg.Memory.Enabled {
		mode = domain.MemoryJournal
	}

	switch mode {
	case domain.MemoryAll:
		return &allStrategy{recorder: base, maxChars: cfg.Memory.MaxContextChars}, nil
	case domain.MemoryTriggers:
		return &triggersStrategy{
			recorder: base,
			maxChars: cfg.Memory.MaxContextChars,
			phrases:  cfg.Memory.TriggerPhrases,
		}, nil
	case domain.MemoryQuestion:
		return &questionStrategy{
			recorder: base,
			maxChars: cfg.Memory.MaxContextChars,
			prefix:   cfg.Memory.PrefixMarker,
		}, nil
	case domain.MemoryJournal:
		return &journalStrategy{recorder: base}, nil
	case domain.MemoryJournalPatterns:
		if deps.Index == nil {
			return nil, fmt.Errorf("journal_patterns mode requires the pattern index")
		}
		return &journalPatternsStrategy{
			recorder: base,
			cfg:      cfg,
			index:    deps.Index,
			pool:     deps.Pool,
			logger:   deps.Logger,
		}, nil
	}
	return nil, fmt.Errorf("%w: conversation memory mode %q", domain.ErrInvalidDomainConfig, mode)
}

// recorder is the shared write path: every mode appends a timestamped
// record to the conversation log.
type recorder struct {
	log    ConversationLog
	domain string
}

func (r recorder) Record(_ context.Context, query, answer string) error {
	if err := r.log.Append(r.domain, query, answer); err != nil {
		return fmt.Errorf("append conversation log: %w", err)
	}
	return nil
}

// allStrategy always loads the log tail.
type allStrategy struct {
	recorder
	maxChars int
}

func (s *allStrategy) Mode() domain.MemoryMode { return domain.MemoryAll }

func (s *allStrategy) Context(_ context.Context, _ string) (string, bool, error) {
	tail, err := s.log.Tail(s.domain, s.maxChars)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}
	return tail, tail != "", nil
}

// triggersStrategy loads the tail only when the query contains a
// configured trigger phrase (case-sensitive substring match).
type triggersStrategy struct {
	recorder
	maxChars int
	phrases  []string
}

func (s *triggersStrategy) Mode() domain.MemoryMode { return domain.MemoryTriggers }

func (s *triggersStrategy) Context(_ context.Context, query string) (string, bool, error) {
	triggered := false
	for _, phrase := range s.phrases {
		if phrase != "" && strings.Contains(query, phrase) {
			triggered = true
			break
		}
	}
	if !triggered {
		return "", false, nil
	}
	tail, err := s.log.Tail(s.domain, s.maxChars)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}
	return tail, tail != "", nil
}

// questionStrategy loads the raw tail only for prefix-marked queries.
type questionStrategy struct {
	recorder
	maxChars int
	prefix   string
}

func (s *questionStrategy) Mode() domain.MemoryMode { return domain.MemoryQuestion }

func (s *questionStrategy) Context(_ context.Context, query string) (string, bool, error) {
	if s.prefix == "" || !strings.HasPrefix(query, s.prefix) {
		return "", false, nil
	}
	tail, err := s.log.Tail(s.domain, s.maxChars)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}
	return tail, tail != "", nil
}

// journalStrategy never loads memory: the zero-latency path.
type journalStrategy struct {
	recorder
}

func (s *journalStrategy) Mode() domain.MemoryMode { return domain.MemoryJournal }

func (s *journalStrategy) Context(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}
