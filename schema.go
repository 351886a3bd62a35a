package queryon

import (
	"context"
	"time"
)

// EmbeddingResult is a vector with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder produces sentence embeddings. Implement it to plug a custom
// provider into the client via WithEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Pattern is a reusable knowledge item in a domain's index.
type Pattern struct {
	ID          string
	Name        string
	Problem     string
	Solution    string
	Description string
	Tags        []string
	Type        string // curated, generated, journal_entry
	Origin      string
	CreatedAt   time.Time
}

// PatternMatch is a scored search hit.
type PatternMatch struct {
	Pattern Pattern
	Score   float64
}

// PatternSearchOptions tunes a pattern search.
type PatternSearchOptions struct {
	TopK     int
	MinScore float64
	Type     string // filter to one pattern type, empty for all
}

// Source is a web page cited in an answer.
type Source struct {
	Title string
	URL   string
}

// Answer is a resolved query.
type Answer struct {
	Answer        string
	WebSearchUsed bool
	Sources       []Source
}
