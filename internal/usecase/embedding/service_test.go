package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	return domain.EmbeddingResult{Embedding: e.vec}, e.err
}

func TestEnsureLoaded_ProbeRunsOnce(t *testing.T) {
	probes := 0
	svc := NewService(&stubEmbedder{}, func(_ context.Context) error {
		probes++
		return nil
	}, "m@3", 3, zap.NewNop())

	for i := 0; i < 3; i++ {
		if err := svc.EnsureLoaded(context.Background()); err != nil {
			t.Fatalf("EnsureLoaded: %v", err)
		}
	}
	if probes != 1 {
		t.Fatalf("expected a single probe, got %d", probes)
	}
}

func TestEnsureLoaded_FailedProbeRetried(t *testing.T) {
	probes := 0
	svc := NewService(&stubEmbedder{}, func(_ context.Context) error {
		probes++
		if probes == 1 {
			return errors.New("provider cold")
		}
		return nil
	}, "m@3", 3, zap.NewNop())

	if err := svc.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected first probe to fail")
	}
	if err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("second probe should succeed: %v", err)
	}
	if probes != 2 {
		t.Fatalf("expected probe retried, got %d probes", probes)
	}
}

func TestEncode_WrapsFailuresAsRetrieval(t *testing.T) {
	svc := NewService(&stubEmbedder{err: errors.New("down")}, nil, "m@3", 3, zap.NewNop())

	_, err := svc.Encode(context.Background(), "text")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestEncode_ReturnsVector(t *testing.T) {
	inner := &stubEmbedder{vec: []float32{1, 2, 3}}
	svc := NewService(inner, nil, "m@3", 3, zap.NewNop())

	vec, err := svc.Encode(context.Background(), "text")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3-dim vector, got %d", len(vec))
	}
	if svc.ModelVersion() != "m@3" || svc.Dimensions() != 3 {
		t.Errorf("identity accessors mismatch")
	}
}
