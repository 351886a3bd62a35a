package toolcall

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// --- Mocks ---

// scriptedCompletions returns canned messages in order and records every
// request it receives.
type scriptedCompletions struct {
	script   []domain.ChatMessage
	err      error
	requests []domain.ChatRequest
}

func (m *scriptedCompletions) Complete(_ context.Context, req domain.ChatRequest) (domain.ChatMessage, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return domain.ChatMessage{}, m.err
	}
	if len(m.script) == 0 {
		return domain.ChatMessage{}, errors.New("script exhausted")
	}
	msg := m.script[0]
	m.script = m.script[1:]
	return msg, nil
}

type mockWeb struct {
	results   []domain.WebResult
	searchErr error
	pages     map[string]string
	fetchErr  error
	queries   []string
}

func (m *mockWeb) Search(_ context.Context, query string) ([]domain.WebResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.searchErr
}

func (m *mockWeb) FetchPage(_ context.Context, url string, _ int) (string, error) {
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return m.pages[url], nil
}

func toolCallMsg(args string) domain.ChatMessage {
	return domain.ChatMessage{
		Role: domain.RoleAssistant,
		ToolCalls: []domain.ToolCall{
			{ID: "call-1", Name: "web_search", Arguments: args},
		},
	}
}

func userMessages() []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "system"},
		{Role: domain.RoleUser, Content: "what is new"},
	}
}

// --- Tests ---

func TestRun_DirectAnswer(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "direct answer"},
	}}
	o := New(completions, &mockWeb{}, Config{}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceNone)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text != "direct answer" {
		t.Errorf("expected direct answer, got %q", res.Text)
	}
	if res.WebSearchUsed {
		t.Error("no tool call happened")
	}
	if res.Sources == nil || len(res.Sources) != 0 {
		t.Errorf("sources must be empty non-nil, got %#v", res.Sources)
	}
	if len(completions.requests) != 1 {
		t.Fatalf("expected 1 completion request, got %d", len(completions.requests))
	}
}

func TestRun_OneSearchRound(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "go 1.25 release"}`),
		{Role: domain.RoleAssistant, Content: "answer with sources"},
	}}
	web := &mockWeb{results: []domain.WebResult{
		{Title: "Go blog", URL: "https://go.dev/blog", Snippet: "release notes"},
		{Title: "HN thread", URL: "https://news.example.com/1", Snippet: "discussion"},
	}}
	o := New(completions, web, Config{MaxResults: 3}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text != "answer with sources" {
		t.Errorf("expected final answer, got %q", res.Text)
	}
	if !res.WebSearchUsed || res.ToolRounds != 1 {
		t.Errorf("expected one tool round, got used=%v rounds=%d", res.WebSearchUsed, res.ToolRounds)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(res.Sources))
	}
	if res.Sources[0].URL != "https://go.dev/blog" {
		t.Errorf("unexpected first source %+v", res.Sources[0])
	}
	if len(web.queries) != 1 || web.queries[0] != "go 1.25 release" {
		t.Fatalf("expected one parsed search, got %v", web.queries)
	}

	// The follow-up request carries the tool result and advertises no tools.
	if len(completions.requests) != 2 {
		t.Fatalf("expected 2 completion requests, got %d", len(completions.requests))
	}
	followUp := completions.requests[1]
	if followUp.ToolChoice != domain.ToolChoiceNone {
		t.Errorf("follow-up must disable tools, got %q", followUp.ToolChoice)
	}
	last := followUp.Messages[len(followUp.Messages)-1]
	if last.Role != domain.RoleTool || last.ToolCallID != "call-1" {
		t.Errorf("expected tool message last, got %+v", last)
	}
	if !strings.Contains(last.Content, "Go blog") {
		t.Errorf("expected results in tool message, got %q", last.Content)
	}
}

func TestRun_MalformedArgumentsUseRawQuery(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg("plain text query"),
		{Role: domain.RoleAssistant, Content: "done"},
	}}
	web := &mockWeb{}
	o := New(completions, web, Config{}, zap.NewNop())

	if _, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(web.queries) != 1 || web.queries[0] != "plain text query" {
		t.Fatalf("expected raw argument as query, got %v", web.queries)
	}
}

func TestRun_SearchFailureRecoversLocally(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "x"}`),
		{Role: domain.RoleAssistant, Content: "answered without search"},
	}}
	web := &mockWeb{searchErr: errors.New("network down")}
	o := New(completions, web, Config{}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("search failure must not fail the query: %v", err)
	}
	if res.Text != "answered without search" {
		t.Errorf("expected final answer, got %q", res.Text)
	}
	if len(res.Sources) != 0 || res.Sources == nil {
		t.Errorf("expected empty non-nil sources, got %#v", res.Sources)
	}

	toolMsg := completions.requests[1].Messages[len(completions.requests[1].Messages)-1]
	if !strings.Contains(toolMsg.Content, "unavailable") {
		t.Errorf("model should be told the search failed, got %q", toolMsg.Content)
	}
}

func TestRun_EmptyResults(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "obscure"}`),
		{Role: domain.RoleAssistant, Content: "nothing found"},
	}}
	o := New(completions, &mockWeb{}, Config{}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	toolMsg := completions.requests[1].Messages[len(completions.requests[1].Messages)-1]
	if !strings.Contains(toolMsg.Content, "No results found") {
		t.Errorf("expected explicit no-results message, got %q", toolMsg.Content)
	}
	if len(res.Sources) != 0 {
		t.Errorf("no sources without results, got %d", len(res.Sources))
	}
}

func TestRun_MaxResultsTruncates(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "x"}`),
		{Role: domain.RoleAssistant, Content: "ok"},
	}}
	web := &mockWeb{results: []domain.WebResult{
		{Title: "1", URL: "u1"}, {Title: "2", URL: "u2"},
		{Title: "3", URL: "u3"}, {Title: "4", URL: "u4"},
	}}
	o := New(completions, web, Config{MaxResults: 2}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(res.Sources))
	}
}

func TestRun_PageFetchFailureTolerated(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "x"}`),
		{Role: domain.RoleAssistant, Content: "ok"},
	}}
	web := &mockWeb{
		results:  []domain.WebResult{{Title: "T", URL: "u1", Snippet: "s"}},
		fetchErr: errors.New("403"),
	}
	o := New(completions, web, Config{FetchPages: true}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Sources) != 1 {
		t.Errorf("fetch failure keeps the source, got %d", len(res.Sources))
	}
}

func TestRun_PageContentInlined(t *testing.T) {
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "x"}`),
		{Role: domain.RoleAssistant, Content: "ok"},
	}}
	web := &mockWeb{
		results: []domain.WebResult{{Title: "T", URL: "u1"}},
		pages:   map[string]string{"u1": "the page body"},
	}
	o := New(completions, web, Config{FetchPages: true}, zap.NewNop())

	if _, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceAuto); err != nil {
		t.Fatalf("Run: %v", err)
	}
	toolMsg := completions.requests[1].Messages[len(completions.requests[1].Messages)-1]
	if !strings.Contains(toolMsg.Content, "the page body") {
		t.Errorf("expected page content inlined, got %q", toolMsg.Content)
	}
}

func TestRun_SecondToolCallNotExecuted(t *testing.T) {
	// A model that keeps asking for tools after its round is spent gets
	// its content taken as the answer instead.
	second := toolCallMsg(`{"query": "second"}`)
	second.Content = "final text"
	completions := &scriptedCompletions{script: []domain.ChatMessage{
		toolCallMsg(`{"query": "first"}`),
		second,
	}}
	web := &mockWeb{}
	o := New(completions, web, Config{}, zap.NewNop())

	res, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceRequired)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ToolRounds != 1 {
		t.Errorf("expected exactly 1 round, got %d", res.ToolRounds)
	}
	if len(web.queries) != 1 {
		t.Errorf("expected exactly 1 search, got %d", len(web.queries))
	}
	if res.Text != "final text" {
		t.Errorf("expected final text, got %q", res.Text)
	}
}

func TestRun_CompletionFailureSurfaces(t *testing.T) {
	completions := &scriptedCompletions{err: errors.New("upstream 500")}
	o := New(completions, &mockWeb{}, Config{}, zap.NewNop())

	if _, err := o.Run(context.Background(), domain.LLMConfig{}, userMessages(), domain.ToolChoiceNone); err == nil {
		t.Fatal("expected completion failure to surface")
	}
}
