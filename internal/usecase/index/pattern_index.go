// Package index implements the semantic indices: per-domain pattern
// vectors and whole-document corpus vectors, ranked by cosine
// similarity with optional hybrid keyword weighting.
package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// SearchOptions controls one pattern search.
type SearchOptions struct {
	TopK     int
	MinScore float64
	// Type filters hits to one pattern type; empty matches all.
	Type domain.PatternType
	// SemanticWeight/KeywordWeight implement hybrid ranking:
	// score = w_sem*cosine + w_kw*overlap. Zero weights mean pure cosine.
	SemanticWeight float64
	KeywordWeight  float64
}

// PatternIndex is the per-domain pattern semantic index.
type PatternIndex struct {
	patterns PatternStore
	vectors  VectorStore
	embed    Vectorizer
	enc      Encoder
	logger   *zap.Logger
}

// NewPatternIndex creates a pattern index.
func NewPatternIndex(
	patterns PatternStore, vectors VectorStore, embed Vectorizer, enc Encoder, logger *zap.Logger,
) *PatternIndex {
	return &PatternIndex{patterns: patterns, vectors: vectors, embed: embed, enc: enc, logger: logger}
}

// Upsert encodes the pattern's budgeted field combination and persists
// both the pattern and its vector. An edit therefore always refreshes
// the embedding.
func (i *PatternIndex) Upsert(ctx context.Context, p domain.Pattern) (domain.Pattern, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Type == "" {
		p.Type = domain.PatternCurated
	}
	if !domain.ValidPatternType(p.Type) {
		return domain.Pattern{}, fmt.Errorf("%w: pattern type %q", domain.ErrInvalidDomainConfig, p.Type)
	}

	vec, err := i.embed.Encode(ctx, i.enc.PatternText(p))
	if err != nil {
		return domain.Pattern{}, fmt.Errorf("encode pattern: %w", err)
	}

	if err := i.patterns.Upsert(p.Domain, p); err != nil {
		return domain.Pattern{}, fmt.Errorf("store pattern: %w", err)
	}
	if err := i.vectors.Put(p.Domain, p.ID, domain.EmbeddingRecord{
		Vector:       vec,
		ModelVersion: i.embed.ModelVersion(),
	}); err != nil {
		return domain.Pattern{}, fmt.Errorf("store pattern vector: %w", err)
	}
	return p, nil
}

// Search ranks a domain's patterns against the query. Results come back
// sorted by non-increasing score with ties broken by most recent
// created_at. Patterns whose stored vector carries a stale model version
// are skipped, never compared.
func (i *PatternIndex) Search(
	ctx context.Context, domainName, query string, opts SearchOptions,
) ([]domain.PatternMatch, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.SemanticWeight == 0 && opts.KeywordWeight == 0 {
		opts.SemanticWeight = 1.0
	}

	queryVec, err := i.embed.Encode(ctx, i.enc.QueryText(query))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	patterns, err := i.patterns.LoadAll(domainName)
	if err != nil {
		return nil, fmt.Errorf("%w: load patterns: %v", domain.ErrRetrieval, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	records, err := i.vectors.Load(domainName)
	if err != nil {
		return nil, fmt.Errorf("%w: load pattern vectors: %v", domain.ErrRetrieval, err)
	}

	modelVersion := i.embed.ModelVersion()
	matches := make([]domain.PatternMatch, 0, len(patterns))
	for _, p := range patterns {
		if opts.Type != "" && p.Type != opts.Type {
			continue
		}
		rec, ok := records[p.ID]
		if !ok || rec.ModelVersion != modelVersion {
			// Vector absent or produced by another model: treated as
			// absent, re-encoded on the next upsert.
			continue
		}

		score := opts.SemanticWeight * cosine(queryVec, rec.Vector)
		if opts.KeywordWeight > 0 {
			score += opts.KeywordWeight * keywordOverlap(query, i.enc.PatternText(p))
		}
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, domain.PatternMatch{Pattern: p, Score: score})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Pattern.CreatedAt.After(matches[b].Pattern.CreatedAt)
	})

	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}
