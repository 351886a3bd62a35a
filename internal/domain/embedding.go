package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one vectorization outcome with provider usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingRecord is a stored vector tagged with the model version that
// produced it. Records whose version differs from the active embedding
// service are treated as absent and never compared.
type EmbeddingRecord struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// HealthChecker is implemented by providers that can probe availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
