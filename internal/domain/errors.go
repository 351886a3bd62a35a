package domain

import "errors"

var (
	// ErrDomainNotFound signals a query against an unconfigured domain.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrInvalidDomainConfig signals a malformed domain configuration.
	// Fatal for the query, no partial answer is produced.
	ErrInvalidDomainConfig = errors.New("invalid domain config")
	// ErrPatternNotFound signals a missing pattern.
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrRetrieval signals that the embedding service or an index is
	// unreadable. Callers degrade to empty context, never fail the query.
	ErrRetrieval = errors.New("retrieval unavailable")
	// ErrToolExecution signals a search-provider or page-fetch failure.
	// Recovered locally with a synthesized tool result.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrCompletionProvider signals an unreachable or malformed
	// completion endpoint after the transport retry.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrQueryTimeout signals that the per-query budget expired.
	ErrQueryTimeout = errors.New("query timed out")
)
