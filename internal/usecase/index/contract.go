package index

import (
	"context"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/repository/library"
)

// PatternStore is the pattern persistence contract.
type PatternStore interface {
	LoadAll(domainName string) ([]domain.Pattern, error)
	Upsert(domainName string, p domain.Pattern) error
}

// VectorStore is the embedding persistence contract.
type VectorStore interface {
	Load(domainName string) (map[string]domain.EmbeddingRecord, error)
	Put(domainName, ownerID string, rec domain.EmbeddingRecord) error
}

// CorpusReader lists a domain's library documents.
type CorpusReader interface {
	List(domainName string) ([]library.Document, error)
}

// Vectorizer abstracts the embedding service for the index layer.
type Vectorizer interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	ModelVersion() string
}
