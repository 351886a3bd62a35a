package openai

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/metrics"
)

// webSearchToolName is the function the model may call to ground an answer.
const webSearchToolName = "web_search"

var webSearchTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        webSearchToolName,
		Description: "Search the web for current information. Use for facts that may have changed after your training data.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	},
}

// CompletionClient talks to OpenAI-compatible chat completion endpoints.
// Domain-level overrides may point at a different endpoint per request,
// so clients are created lazily and reused per endpoint+key.
type CompletionClient struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewCompletionClient creates a completion transport.
func NewCompletionClient(logger *zap.Logger) *CompletionClient {
	return &CompletionClient{
		logger:  logger,
		clients: make(map[string]*openai.Client),
	}
}

var _ domain.CompletionClient = (*CompletionClient)(nil)

// Complete sends one chat completion request. Transport failures get a
// single retry; a second failure surfaces as ErrCompletionProvider and
// is never silently replaced with fabricated content.
func (c *CompletionClient) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatMessage, error) {
	client := c.clientFor(req.LLM)

	ccr := openai.ChatCompletionRequest{
		Model:       req.LLM.Model,
		Temperature: req.LLM.Temperature,
		MaxTokens:   req.LLM.MaxTokens,
		Messages:    toOpenAIMessages(req.Messages),
	}
	switch req.ToolChoice {
	case domain.ToolChoiceAuto:
		ccr.Tools = []openai.Tool{webSearchTool}
		ccr.ToolChoice = "auto"
	case domain.ToolChoiceRequired:
		ccr.Tools = []openai.Tool{webSearchTool}
		ccr.ToolChoice = "required"
	case domain.ToolChoiceNone:
		// no tool schema at all: the model must answer in natural language
	}

	resp, err := client.CreateChatCompletion(ctx, ccr)
	if err != nil && ctx.Err() == nil {
		c.logger.Warn("Completion request failed, retrying once",
			zap.String("model", req.LLM.Model),
			zap.Error(err),
		)
		resp, err = client.CreateChatCompletion(ctx, ccr)
	}
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(req.LLM.Model, "error").Inc()
		return domain.ChatMessage{}, fmt.Errorf("chat completion: %v: %w", err, domain.ErrCompletionProvider)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(req.LLM.Model, "error").Inc()
		return domain.ChatMessage{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProvider)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(req.LLM.Model, "success").Inc()
	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// clientFor returns a cached client for the endpoint+key pair.
func (c *CompletionClient) clientFor(llm domain.LLMConfig) *openai.Client {
	key := llm.BaseURL + "\x00" + llm.APIKey

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[key]; ok {
		return client
	}
	cfg := openai.DefaultConfig(llm.APIKey)
	if llm.BaseURL != "" {
		cfg.BaseURL = llm.BaseURL
	}
	client := openai.NewClientWithConfig(cfg)
	c.clients[key] = client
	return client
}

func toOpenAIMessages(msgs []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) domain.ChatMessage {
	out := domain.ChatMessage{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}
