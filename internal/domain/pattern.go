package domain

import "time"

// PatternType classifies how a pattern entered the knowledge base.
type PatternType string

const (
	// PatternCurated is a hand-authored pattern.
	PatternCurated PatternType = "curated"
	// PatternGenerated is a pattern distilled automatically from answered queries.
	PatternGenerated PatternType = "generated"
	// PatternJournalEntry is an auto-journaled query/response pair.
	PatternJournalEntry PatternType = "journal_entry"
)

// ValidPatternType reports whether t is a known pattern type.
func ValidPatternType(t PatternType) bool {
	switch t {
	case PatternCurated, PatternGenerated, PatternJournalEntry:
		return true
	}
	return false
}

// Pattern is a stored problem/solution knowledge unit, owned by a domain
// and searchable by semantic similarity. Once embedded it is immutable;
// an explicit edit goes through Upsert, which recomputes the embedding.
type Pattern struct {
	ID          string      `json:"id"`
	Domain      string      `json:"domain"`
	Name        string      `json:"name"`
	Problem     string      `json:"problem"`
	Solution    string      `json:"solution"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Type        PatternType `json:"pattern_type"`
	Origin      string      `json:"origin,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PatternMatch is a single pattern search hit.
type PatternMatch struct {
	Pattern Pattern
	Score   float64
}

// DocumentMatch is a single document search hit.
type DocumentMatch struct {
	Path    string
	Content string
	Score   float64
}
