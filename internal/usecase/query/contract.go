package query

import (
	"context"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/usecase/index"
	"github.com/loreworks/queryon/internal/usecase/persona"
	"github.com/loreworks/queryon/internal/usecase/toolcall"
)

// DomainLoader loads domain configuration documents.
type DomainLoader interface {
	Load(domainName string) (domain.DomainConfig, error)
}

// PatternSearcher is the pattern index read contract.
type PatternSearcher interface {
	Search(ctx context.Context, domainName, query string, opts index.SearchOptions) ([]domain.PatternMatch, error)
}

// DocSearcher is the document index read contract.
type DocSearcher interface {
	Search(ctx context.Context, domainName, query string, opts index.DocSearchOptions) ([]domain.DocumentMatch, error)
}

// Orchestrator runs the tool-calling exchange with the completion endpoint.
type Orchestrator interface {
	Run(ctx context.Context, llm domain.LLMConfig, messages []domain.ChatMessage, choice domain.ToolChoice) (toolcall.Result, error)
}

// Resolver maps domain config and query to a persona resolution.
type Resolver interface {
	Resolve(cfg domain.DomainConfig, query string) persona.Resolution
}
