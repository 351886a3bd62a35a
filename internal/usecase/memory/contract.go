package memory

import (
	"context"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/usecase/index"
)

// ConversationLog is the append-only per-domain log contract.
type ConversationLog interface {
	Append(domainName, query, response string) error
	Tail(domainName string, maxChars int) (string, error)
}

// PatternIndexer is the slice of the pattern index the journal needs.
type PatternIndexer interface {
	Upsert(ctx context.Context, p domain.Pattern) (domain.Pattern, error)
	Search(ctx context.Context, domainName, query string, opts index.SearchOptions) ([]domain.PatternMatch, error)
}

// Submitter schedules async work off the response path. The journal
// strategy uses it to embed entries without blocking the caller.
type Submitter interface {
	Submit(task func()) error
}

// Strategy is one conversation-memory retrieval policy, selected once
// per query from the domain configuration. Context is the read path;
// Record is the write path and runs for every mode regardless of the
// read policy.
type Strategy interface {
	Mode() domain.MemoryMode
	Context(ctx context.Context, query string) (string, bool, error)
	Record(ctx context.Context, query, answer string) error
}
