// Package queryon embeds the query resolution engine in a Go process:
// the same domains, indices, and memory modes the HTTP server exposes,
// without running a server.
package queryon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	convlogrepo "github.com/loreworks/queryon/internal/repository/convlog"
	domaincfgrepo "github.com/loreworks/queryon/internal/repository/domaincfg"
	embeddingrepo "github.com/loreworks/queryon/internal/repository/embedding"
	libraryrepo "github.com/loreworks/queryon/internal/repository/library"
	patternrepo "github.com/loreworks/queryon/internal/repository/pattern"
	openaiTransport "github.com/loreworks/queryon/internal/transport/openai"
	"github.com/loreworks/queryon/internal/transport/websearch"
	embeddinguc "github.com/loreworks/queryon/internal/usecase/embedding"
	indexuc "github.com/loreworks/queryon/internal/usecase/index"
	"github.com/loreworks/queryon/internal/usecase/memory"
	personauc "github.com/loreworks/queryon/internal/usecase/persona"
	queryuc "github.com/loreworks/queryon/internal/usecase/query"
	"github.com/loreworks/queryon/internal/usecase/toolcall"
)

// Client is the queryon SDK entry point.
type Client struct {
	processor *queryuc.Processor
	patterns  *indexuc.PatternIndex
	pool      *ants.Pool
}

// New creates an embedded engine. An embedding provider and a
// completion model are required; everything else has defaults.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dataDir:               "data",
		embDimensions:         384,
		completionTemperature: 0.7,
		completionMaxTokens:   1024,
		webMaxResults:         3,
		webPageCharBudget:     3000,
		webUserAgent:          "queryon/1.0",
		tokenBudget:           512,
		fieldCharCap:          800,
		queryTimeout:          90 * time.Second,
		journalPoolSize:       2,
		logger:                zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.embedder == nil && cfg.embModel == "" {
		return nil, errors.New("queryon: embedding provider required (use WithEmbeddingProvider or WithEmbedder)")
	}
	if cfg.completionModel == "" {
		return nil, errors.New("queryon: completion model required (use WithCompletionProvider)")
	}

	return wireClient(cfg)
}

func wireClient(cfg *clientConfig) (*Client, error) {
	logger := cfg.logger

	var (
		inner        domain.Embedder
		probe        func(ctx context.Context) error
		modelVersion string
	)
	if cfg.embedder != nil {
		inner = &embedderAdapter{inner: cfg.embedder}
		modelVersion = cfg.embModel
	} else {
		base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.embAPIKey,
			BaseURL:    cfg.embBaseURL,
			Model:      cfg.embModel,
			Dimensions: cfg.embDimensions,
			Logger:     logger,
		})
		inner = base
		probe = base.HealthCheck
		modelVersion = base.ModelVersion()
	}
	embSvc := embeddinguc.NewService(inner, probe, modelVersion, cfg.embDimensions, logger)

	patternStore := patternrepo.NewStore(cfg.dataDir)
	patternVectors := embeddingrepo.NewStore(cfg.dataDir, "embeddings.json")
	libraryVectors := embeddingrepo.NewStore(cfg.dataDir, "library.embeddings.json")
	convLog := convlogrepo.New(cfg.dataDir)
	domainCfgs := domaincfgrepo.New(cfg.dataDir)
	corpus := libraryrepo.New(cfg.dataDir)

	enc := indexuc.Encoder{TokenBudget: cfg.tokenBudget, FieldCharCap: cfg.fieldCharCap}
	patternIdx := indexuc.NewPatternIndex(patternStore, patternVectors, embSvc, enc, logger)
	docIdx := indexuc.NewDocIndex(corpus, libraryVectors, embSvc, enc, logger)

	pool, err := ants.NewPool(cfg.journalPoolSize)
	if err != nil {
		return nil, fmt.Errorf("queryon: create journal pool: %w", err)
	}

	resolver := personauc.NewResolver(domain.LLMConfig{
		BaseURL:     cfg.completionBaseURL,
		APIKey:      cfg.completionAPIKey,
		Model:       cfg.completionModel,
		Temperature: cfg.completionTemperature,
		MaxTokens:   cfg.completionMaxTokens,
	})

	completions := openaiTransport.NewCompletionClient(logger)
	web := websearch.New(websearch.Config{UserAgent: cfg.webUserAgent, Logger: logger})
	orch := toolcall.New(completions, web, toolcall.Config{
		MaxResults:     cfg.webMaxResults,
		FetchPages:     cfg.webFetchPages,
		PageCharBudget: cfg.webPageCharBudget,
	}, logger)

	memDeps := memory.Deps{Log: convLog, Index: patternIdx, Pool: pool, Logger: logger}

	processor := queryuc.New(
		domainCfgs, resolver, memDeps, patternIdx, docIdx, orch, cfg.queryTimeout, logger,
	)

	return &Client{processor: processor, patterns: patternIdx, pool: pool}, nil
}

// Close releases the journal worker pool. Queued journal embeddings are
// abandoned.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Query resolves one query against a domain.
func (c *Client) Query(ctx context.Context, domainName, query string) (Answer, error) {
	ans, err := c.processor.Resolve(ctx, domainName, query)
	if err != nil {
		return Answer{}, err
	}
	sources := make([]Source, 0, len(ans.Sources))
	for _, s := range ans.Sources {
		sources = append(sources, Source{Title: s.Title, URL: s.URL})
	}
	return Answer{
		Answer:        ans.Answer,
		WebSearchUsed: ans.WebSearchUsed,
		Sources:       sources,
	}, nil
}

// UpsertPattern stores a pattern and refreshes its embedding. A missing
// ID creates a new pattern.
func (c *Client) UpsertPattern(ctx context.Context, domainName string, p Pattern) (Pattern, error) {
	stored, err := c.patterns.Upsert(ctx, domain.Pattern{
		ID:          p.ID,
		Domain:      domainName,
		Name:        p.Name,
		Problem:     p.Problem,
		Solution:    p.Solution,
		Description: p.Description,
		Tags:        p.Tags,
		Type:        domain.PatternType(p.Type),
		Origin:      p.Origin,
		CreatedAt:   p.CreatedAt,
	})
	if err != nil {
		return Pattern{}, err
	}
	return fromDomainPattern(stored), nil
}

// SearchPatterns ranks a domain's patterns against the query.
func (c *Client) SearchPatterns(
	ctx context.Context, domainName, query string, opts PatternSearchOptions,
) ([]PatternMatch, error) {
	if opts.Type != "" && !domain.ValidPatternType(domain.PatternType(opts.Type)) {
		return nil, fmt.Errorf("queryon: unknown pattern type %q", opts.Type)
	}
	matches, err := c.patterns.Search(ctx, domainName, query, indexuc.SearchOptions{
		TopK:     opts.TopK,
		MinScore: opts.MinScore,
		Type:     domain.PatternType(opts.Type),
	})
	if err != nil {
		return nil, err
	}
	out := make([]PatternMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, PatternMatch{Pattern: fromDomainPattern(m.Pattern), Score: m.Score})
	}
	return out, nil
}

func fromDomainPattern(p domain.Pattern) Pattern {
	return Pattern{
		ID:          p.ID,
		Name:        p.Name,
		Problem:     p.Problem,
		Solution:    p.Solution,
		Description: p.Description,
		Tags:        p.Tags,
		Type:        string(p.Type),
		Origin:      p.Origin,
		CreatedAt:   p.CreatedAt,
	}
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
