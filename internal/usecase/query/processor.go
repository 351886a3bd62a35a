// Package query is the top-level coordinator: it loads domain
// configuration, resolves the persona, gathers memory and index
// context, drives the tool-calling orchestrator, and assembles the
// final answer with provenance. It is the only component that knows
// about per-query timing and cancellation.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/metrics"
	"github.com/loreworks/queryon/internal/usecase/index"
	"github.com/loreworks/queryon/internal/usecase/memory"
)

const (
	patternContextTopK = 5
	docContextTopK     = 3
	// docContextChars bounds each library document injected as context.
	docContextChars = 3000
)

// Processor resolves queries end to end.
type Processor struct {
	domains  DomainLoader
	resolver Resolver
	memDeps  memory.Deps
	patterns PatternSearcher
	docs     DocSearcher
	orch     Orchestrator
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a query processor.
func New(
	domains DomainLoader,
	resolver Resolver,
	memDeps memory.Deps,
	patterns PatternSearcher,
	docs DocSearcher,
	orch Orchestrator,
	timeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		domains:  domains,
		resolver: resolver,
		memDeps:  memDeps,
		patterns: patterns,
		docs:     docs,
		orch:     orch,
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve answers one query against a domain. Configuration problems
// are fatal for the query; retrieval problems degrade to empty context;
// completion problems surface as errors, never fabricated answers.
func (p *Processor) Resolve(ctx context.Context, domainName, rawQuery string) (domain.Answer, error) {
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cfg, err := p.domains.Load(domainName)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(domainName, "unknown", "config_error").Inc()
		return domain.Answer{}, err
	}

	res := p.resolver.Resolve(cfg, rawQuery)

	strategy, err := memory.ForConfig(cfg, p.memDeps)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(domainName, string(cfg.Persona), "config_error").Inc()
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrInvalidDomainConfig, err)
	}

	trace := domain.Trace{Persona: cfg.Persona, MemoryMode: strategy.Mode()}
	var notes []string
	var blocks []string

	memCtx, loaded, err := strategy.Context(ctx, res.Query)
	if err != nil {
		p.logger.Warn("Memory retrieval degraded",
			zap.String("domain", domainName),
			zap.Error(err),
		)
		notes = append(notes, "conversation memory unavailable")
	} else if loaded {
		trace.MemoryLoaded = true
		blocks = append(blocks, "Previous conversation:\n"+memCtx)
	}

	if cfg.SearchPatterns {
		matches, err := p.patterns.Search(ctx, domainName, res.Query, index.SearchOptions{
			TopK:           patternContextTopK,
			MinScore:       cfg.ConfidenceThreshold,
			SemanticWeight: cfg.SemanticWeight,
			KeywordWeight:  cfg.KeywordWeight,
		})
		if err != nil {
			p.logger.Warn("Pattern retrieval degraded",
				zap.String("domain", domainName),
				zap.Error(err),
			)
			notes = append(notes, "pattern index unavailable")
		} else if len(matches) > 0 {
			trace.PatternHits = len(matches)
			blocks = append(blocks, formatPatterns(matches))
		}
	}

	if cfg.Persona == domain.PersonaLibrary {
		docs, err := p.docs.Search(ctx, domainName, res.Query, index.DocSearchOptions{
			TopK: docContextTopK,
		})
		if err != nil {
			p.logger.Warn("Document retrieval degraded",
				zap.String("domain", domainName),
				zap.Error(err),
			)
			notes = append(notes, "document index unavailable")
		} else if len(docs) > 0 {
			trace.DocumentHits = len(docs)
			blocks = append(blocks, formatDocuments(docs))
		}
	}

	messages := make([]domain.ChatMessage, 0, len(blocks)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: res.SystemPrompt})
	for _, block := range blocks {
		trace.ContextChars += len(block)
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: block})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: res.Query})

	result, err := p.orch.Run(ctx, res.LLM, messages, res.ToolChoice)
	if err != nil {
		status := "completion_error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// The in-flight tool sequence failed cleanly: nothing was
			// appended to the conversation log.
			err = fmt.Errorf("%w after %s: %v", domain.ErrQueryTimeout, p.timeout, err)
			status = "timeout"
		}
		metrics.QueriesTotal.WithLabelValues(domainName, string(cfg.Persona), status).Inc()
		return domain.Answer{}, err
	}

	if err := strategy.Record(ctx, res.Query, result.Text); err != nil {
		// The answer exists; a logging failure must not retract it.
		p.logger.Error("Failed to record conversation",
			zap.String("domain", domainName),
			zap.Error(err),
		)
	}

	trace.ToolRounds = result.ToolRounds
	trace.Elapsed = time.Since(start)
	trace.RetrievalNote = strings.Join(notes, "; ")

	metrics.QueriesTotal.WithLabelValues(domainName, string(cfg.Persona), "success").Inc()
	metrics.QueryDuration.WithLabelValues(domainName, string(cfg.Persona)).Observe(trace.Elapsed.Seconds())

	p.logger.Info("Query resolved",
		zap.String("domain", domainName),
		zap.String("persona", string(cfg.Persona)),
		zap.String("memory_mode", string(trace.MemoryMode)),
		zap.Bool("web_search_used", result.WebSearchUsed),
		zap.Int("pattern_hits", trace.PatternHits),
		zap.Duration("elapsed", trace.Elapsed),
	)

	return domain.Answer{
		Answer:        result.Text,
		WebSearchUsed: result.WebSearchUsed,
		Sources:       result.Sources,
		Trace:         trace,
	}, nil
}

func formatPatterns(matches []domain.PatternMatch) string {
	var b strings.Builder
	b.WriteString("Relevant knowledge patterns:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s", m.Pattern.Name)
		if m.Pattern.Problem != "" {
			fmt.Fprintf(&b, "\n  Problem: %s", m.Pattern.Problem)
		}
		fmt.Fprintf(&b, "\n  Solution: %s\n", m.Pattern.Solution)
	}
	return b.String()
}

func formatDocuments(docs []domain.DocumentMatch) string {
	var b strings.Builder
	b.WriteString("Library documents:\n")
	for _, d := range docs {
		content := d.Content
		if len(content) > docContextChars {
			content = content[:docContextChars]
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", d.Path, content)
	}
	return b.String()
}
