package queryon

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the embedded Client.
type Option func(*clientConfig)

type clientConfig struct {
	dataDir string

	embBaseURL    string
	embAPIKey     string
	embModel      string
	embDimensions int
	embedder      Embedder // custom provider, overrides the OpenAI-compatible one

	completionBaseURL     string
	completionAPIKey      string
	completionModel       string
	completionTemperature float32
	completionMaxTokens   int

	webMaxResults     int
	webFetchPages     bool
	webPageCharBudget int
	webUserAgent      string

	tokenBudget  int
	fieldCharCap int

	queryTimeout    time.Duration
	journalPoolSize int

	logger *zap.Logger
}

// WithDataDir sets the root of the per-domain file stores. Defaults to "data".
func WithDataDir(dir string) Option {
	return func(c *clientConfig) { c.dataDir = dir }
}

// WithEmbeddingProvider points the client at an OpenAI-compatible
// embedding endpoint.
func WithEmbeddingProvider(baseURL, apiKey, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embBaseURL = baseURL
		c.embAPIKey = apiKey
		c.embModel = model
		c.embDimensions = dimensions
	}
}

// WithEmbedder supplies a custom embedding provider instead of the
// OpenAI-compatible transport.
func WithEmbedder(e Embedder, modelVersion string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.embModel = modelVersion
		c.embDimensions = dimensions
	}
}

// WithCompletionProvider sets the process-wide completion defaults.
// Domains may still override endpoint, model, and key individually.
func WithCompletionProvider(baseURL, apiKey, model string) Option {
	return func(c *clientConfig) {
		c.completionBaseURL = baseURL
		c.completionAPIKey = apiKey
		c.completionModel = model
	}
}

// WithCompletionTuning sets sampling temperature and the response token cap.
func WithCompletionTuning(temperature float32, maxTokens int) Option {
	return func(c *clientConfig) {
		c.completionTemperature = temperature
		c.completionMaxTokens = maxTokens
	}
}

// WithWebSearch configures the search tool. fetchPages downloads and
// inlines result pages up to pageCharBudget characters each.
func WithWebSearch(maxResults int, fetchPages bool, pageCharBudget int) Option {
	return func(c *clientConfig) {
		c.webMaxResults = maxResults
		c.webFetchPages = fetchPages
		c.webPageCharBudget = pageCharBudget
	}
}

// WithUserAgent sets the User-Agent header for web search and page fetches.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) { c.webUserAgent = ua }
}

// WithIndexBudget sets the embedding text budget (tokens) and per-field
// character cap used when encoding patterns and documents.
func WithIndexBudget(tokenBudget, fieldCharCap int) Option {
	return func(c *clientConfig) {
		c.tokenBudget = tokenBudget
		c.fieldCharCap = fieldCharCap
	}
}

// WithQueryTimeout bounds a single Query call end to end.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.queryTimeout = d }
}

// WithJournalPoolSize sets the worker count for async journal embedding.
func WithJournalPoolSize(n int) Option {
	return func(c *clientConfig) { c.journalPoolSize = n }
}

// WithLogger supplies a zap logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
