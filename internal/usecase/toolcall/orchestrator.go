// Package toolcall drives the multi-turn protocol with the completion
// endpoint: an explicit finite state machine capped at one
// tool-execution round, so cancellation and testing stay tractable.
package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// state enumerates the orchestration turn states.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTool
	stateAwaitingModelFinal
	stateDone
)

// maxToolRounds is the hard cap preventing runaway tool loops.
const maxToolRounds = 1

// Config holds search execution settings.
type Config struct {
	// MaxResults bounds how many hits are expanded per search.
	MaxResults int
	// FetchPages controls whether result page bodies are downloaded.
	FetchPages bool
	// PageCharBudget bounds each downloaded page body.
	PageCharBudget int
}

// Result is the orchestration outcome. Sources is always non-nil.
type Result struct {
	Text          string
	WebSearchUsed bool
	Sources       []domain.Source
	ToolRounds    int
}

// Orchestrator runs the tool-calling exchange.
type Orchestrator struct {
	completions domain.CompletionClient
	web         domain.WebSearcher
	cfg         Config
	logger      *zap.Logger
}

// New creates an orchestrator.
func New(completions domain.CompletionClient, web domain.WebSearcher, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.PageCharBudget <= 0 {
		cfg.PageCharBudget = 3000
	}
	return &Orchestrator{completions: completions, web: web, cfg: cfg, logger: logger}
}

// Run executes the turn state machine:
// AwaitingModel -> ExecutingTool -> AwaitingModelFinal -> Done.
// When the model answers directly the middle states are skipped. Every
// tool call of a turn is resolved and appended before the single
// follow-up request, which advertises no tools and therefore forces a
// natural-language answer.
func (o *Orchestrator) Run(
	ctx context.Context, llm domain.LLMConfig, messages []domain.ChatMessage, choice domain.ToolChoice,
) (Result, error) {
	res := Result{Sources: []domain.Source{}}
	st := stateAwaitingModel

	for rounds := 0; st != stateDone; {
		switch st {
		case stateAwaitingModel:
			msg, err := o.completions.Complete(ctx, domain.ChatRequest{
				LLM:        llm,
				Messages:   messages,
				ToolChoice: choice,
			})
			if err != nil {
				return Result{}, err
			}
			if len(msg.ToolCalls) == 0 || rounds >= maxToolRounds {
				res.Text = msg.Content
				st = stateDone
				break
			}
			messages = append(messages, msg)
			st = stateExecutingTool

		case stateExecutingTool:
			assistant := messages[len(messages)-1]
			for _, tc := range assistant.ToolCalls {
				content, sources := o.executeSearch(ctx, tc)
				res.Sources = append(res.Sources, sources...)
				messages = append(messages, domain.ChatMessage{
					Role:       domain.RoleTool,
					ToolCallID: tc.ID,
					Content:    content,
				})
			}
			res.WebSearchUsed = true
			rounds++
			res.ToolRounds = rounds
			st = stateAwaitingModelFinal

		case stateAwaitingModelFinal:
			// Resend without any tool schema: the model must answer.
			msg, err := o.completions.Complete(ctx, domain.ChatRequest{
				LLM:        llm,
				Messages:   messages,
				ToolChoice: domain.ToolChoiceNone,
			})
			if err != nil {
				return Result{}, err
			}
			res.Text = msg.Content
			st = stateDone
		}
	}
	return res, nil
}

// executeSearch resolves one tool call. Provider failures are recovered
// locally: the model receives an explicit "no results" message and can
// say so rather than hallucinate.
func (o *Orchestrator) executeSearch(ctx context.Context, tc domain.ToolCall) (string, []domain.Source) {
	query := parseQuery(tc.Arguments)

	results, err := o.web.Search(ctx, query)
	if err != nil {
		o.logger.Warn("Web search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return fmt.Sprintf("Web search is unavailable right now (query: %q). Answer from your own knowledge and say the search failed.", query), nil
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}

	if len(results) > o.cfg.MaxResults {
		results = results[:o.cfg.MaxResults]
	}

	sources := make([]domain.Source, 0, len(results))
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		sources = append(sources, domain.Source{Title: r.Title, URL: r.URL})
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "%s\n", r.Snippet)
		}
		if o.cfg.FetchPages {
			body, err := o.web.FetchPage(ctx, r.URL, o.cfg.PageCharBudget)
			if err != nil {
				// Individual fetch failures are omitted, never abort the batch.
				o.logger.Debug("Page fetch failed", zap.String("url", r.URL), zap.Error(err))
				continue
			}
			fmt.Fprintf(&b, "Page content: %s\n", body)
		}
	}
	return b.String(), sources
}

// parseQuery extracts the query argument, tolerating malformed JSON by
// treating the raw string as the literal query.
func parseQuery(arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Query != "" {
		return args.Query
	}
	return strings.TrimSpace(arguments)
}
