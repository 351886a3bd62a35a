package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/metrics"
	"github.com/loreworks/queryon/internal/usecase/index"
)

// journalEmbedTimeout bounds one background journal upsert.
const journalEmbedTimeout = 30 * time.Second

const journalNameChars = 64

// journalPatternsStrategy converts every non-prefixed exchange into a
// journal_entry pattern with an embedding, off the response path.
// Prefixed queries search only journal entries, with a deliberately low
// min score: recall is favored and the completion endpoint judges
// relevance among the top matches.
type journalPatternsStrategy struct {
	recorder
	cfg    domain.DomainConfig
	index  PatternIndexer
	pool   Submitter
	logger *zap.Logger
}

func (s *journalPatternsStrategy) Mode() domain.MemoryMode { return domain.MemoryJournalPatterns }

func (s *journalPatternsStrategy) Context(ctx context.Context, query string) (string, bool, error) {
	prefix := s.cfg.Memory.PrefixMarker
	if !strings.HasPrefix(query, prefix) {
		return "", false, nil
	}
	search := strings.TrimSpace(strings.TrimPrefix(query, prefix))
	if search == "" {
		return "", false, nil
	}

	matches, err := s.index.Search(ctx, s.domain, search, index.SearchOptions{
		TopK:           s.cfg.Memory.TopK,
		MinScore:       s.cfg.Memory.MinScore,
		Type:           domain.PatternJournalEntry,
		SemanticWeight: s.cfg.SemanticWeight,
		KeywordWeight:  s.cfg.KeywordWeight,
	})
	if err != nil {
		return "", false, fmt.Errorf("search journal entries: %w", err)
	}
	if len(matches) == 0 {
		return "", false, nil
	}

	var b strings.Builder
	b.WriteString("Journal entries that may be relevant:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- [%s] %s\n  %s\n",
			m.Pattern.CreatedAt.Format("2006-01-02"),
			m.Pattern.Problem,
			m.Pattern.Solution,
		)
	}
	return b.String(), true, nil
}

// Record appends the log entry synchronously, then journals non-prefixed
// exchanges as patterns asynchronously so the caller never waits on an
// embedding round-trip.
func (s *journalPatternsStrategy) Record(ctx context.Context, query, answer string) error {
	if err := s.recorder.Record(ctx, query, answer); err != nil {
		return err
	}
	if strings.HasPrefix(query, s.cfg.Memory.PrefixMarker) {
		return nil
	}

	pattern := domain.Pattern{
		Domain:    s.domain,
		Name:      journalName(query),
		Problem:   query,
		Solution:  answer,
		Type:      domain.PatternJournalEntry,
		Origin:    "journal",
		CreatedAt: time.Now().UTC(),
	}

	task := func() {
		embedCtx, cancel := context.WithTimeout(context.Background(), journalEmbedTimeout)
		defer cancel()

		if _, err := s.index.Upsert(embedCtx, pattern); err != nil {
			metrics.JournalEntriesTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Failed to journal exchange as pattern",
				zap.String("domain", s.domain),
				zap.Error(err),
			)
			return
		}
		metrics.JournalEntriesTotal.WithLabelValues("success").Inc()
	}

	if s.pool == nil {
		task()
		return nil
	}
	if err := s.pool.Submit(task); err != nil {
		// Pool saturated or released: fall back to inline journaling
		// rather than dropping the entry.
		s.logger.Warn("Journal pool rejected task, running inline", zap.Error(err))
		task()
	}
	return nil
}

func journalName(query string) string {
	name := strings.TrimSpace(query)
	if len(name) > journalNameChars {
		name = name[:journalNameChars]
	}
	return name
}
