// Package embedding hosts the process-wide embedding service: a single
// shared object injected into every consumer, initialized once behind a
// single-initialization guard.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

// Service wraps a vectorization provider with lazy one-time
// initialization. Encode is a pure function of its input text for a
// fixed model version, and is safely reentrant once loaded.
type Service struct {
	inner        domain.Embedder
	probe        func(ctx context.Context) error
	modelVersion string
	dimensions   int
	logger       *zap.Logger

	mu     sync.Mutex
	loaded bool
}

// NewService creates the embedding service. probe verifies provider
// availability on first use and may be nil.
func NewService(
	inner domain.Embedder,
	probe func(ctx context.Context) error,
	modelVersion string,
	dimensions int,
	logger *zap.Logger,
) *Service {
	return &Service{
		inner:        inner,
		probe:        probe,
		modelVersion: modelVersion,
		dimensions:   dimensions,
		logger:       logger,
	}
}

// ModelVersion identifies the active model; stored vectors carrying a
// different version are treated as absent.
func (s *Service) ModelVersion() string { return s.modelVersion }

// Dimensions is the fixed vector width of this deployment.
func (s *Service) Dimensions() int { return s.dimensions }

// EnsureLoaded blocks the first caller until the provider is verified
// ready and is a no-op afterward. Concurrent first callers serialize on
// the guard; a failed probe is retried by the next caller rather than
// poisoning the service for the process lifetime.
func (s *Service) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			return fmt.Errorf("embedding provider not ready: %w", err)
		}
	}
	s.loaded = true
	s.logger.Info("Embedding service ready",
		zap.String("model_version", s.modelVersion),
		zap.Int("dimensions", s.dimensions),
	)
	return nil
}

// Encode vectorizes one text. Callers in the retrieval path treat a
// failure as "no context", never as a query failure.
func (s *Service) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}
	result, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}
	return result.Embedding, nil
}
