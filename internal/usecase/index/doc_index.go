package index

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// DocSearchOptions controls one document search.
type DocSearchOptions struct {
	TopK     int
	MinScore float64
}

// DocIndex ranks whole-document embeddings over a domain's library
// corpus. One vector per document, no chunking; over-budget documents
// keep their leading content.
type DocIndex struct {
	corpus  CorpusReader
	vectors VectorStore
	embed   Vectorizer
	enc     Encoder
	logger  *zap.Logger
}

// NewDocIndex creates a document index.
func NewDocIndex(
	corpus CorpusReader, vectors VectorStore, embed Vectorizer, enc Encoder, logger *zap.Logger,
) *DocIndex {
	return &DocIndex{corpus: corpus, vectors: vectors, embed: embed, enc: enc, logger: logger}
}

// Search ranks the corpus against the query. Documents without a
// current-version vector are encoded on the fly and the vector is
// persisted, so the index heals incrementally after a model upgrade.
// An empty corpus is "no results", not an error.
func (d *DocIndex) Search(
	ctx context.Context, domainName, query string, opts DocSearchOptions,
) ([]domain.DocumentMatch, error) {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}

	docs, err := d.corpus.List(domainName)
	if err != nil {
		return nil, fmt.Errorf("%w: list corpus: %v", domain.ErrRetrieval, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	queryVec, err := d.embed.Encode(ctx, d.enc.QueryText(query))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	records, err := d.vectors.Load(domainName)
	if err != nil {
		return nil, fmt.Errorf("%w: load document vectors: %v", domain.ErrRetrieval, err)
	}
	modelVersion := d.embed.ModelVersion()

	matches := make([]domain.DocumentMatch, 0, len(docs))
	for _, doc := range docs {
		rec, ok := records[doc.Path]
		if !ok || rec.ModelVersion != modelVersion {
			vec, err := d.embed.Encode(ctx, d.enc.DocumentText(doc.Content))
			if err != nil {
				return nil, fmt.Errorf("encode document %s: %w", doc.Path, err)
			}
			rec = domain.EmbeddingRecord{Vector: vec, ModelVersion: modelVersion}
			if err := d.vectors.Put(domainName, doc.Path, rec); err != nil {
				// Persisting is best effort: the vector is still usable
				// for this search.
				d.logger.Warn("Failed to persist document vector",
					zap.String("domain", domainName),
					zap.String("path", doc.Path),
					zap.Error(err),
				)
			}
		}

		score := cosine(queryVec, rec.Vector)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, domain.DocumentMatch{Path: doc.Path, Content: doc.Content, Score: score})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}
