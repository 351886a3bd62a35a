package index

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/repository/library"
)

// --- Mocks ---

type memCorpus struct {
	docs []library.Document
	err  error
}

func (m *memCorpus) List(_ string) ([]library.Document, error) {
	return m.docs, m.err
}

func newTestDocIndex(docs []library.Document) (*DocIndex, *memVectors, *bowEmbedder) {
	vectors := newMemVectors()
	embed := &bowEmbedder{version: "test@64"}
	idx := NewDocIndex(&memCorpus{docs: docs}, vectors, embed, testEncoder(), zap.NewNop())
	return idx, vectors, embed
}

// --- Tests ---

func TestDocSearch_EmptyCorpus(t *testing.T) {
	idx, _, embed := newTestDocIndex(nil)

	matches, err := idx.Search(context.Background(), "ops", "anything", DocSearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if matches != nil {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
	if embed.calls != 0 {
		t.Errorf("empty corpus should not touch the embedder, got %d calls", embed.calls)
	}
}

func TestDocSearch_RanksAndPersistsVectors(t *testing.T) {
	docs := []library.Document{
		{Path: "runbooks/deploy.md", Content: "deploy procedure with canary rollout steps"},
		{Path: "notes/lunch.md", Content: "the cafeteria menu changes weekly"},
	}
	idx, vectors, _ := newTestDocIndex(docs)

	matches, err := idx.Search(context.Background(), "ops", "canary deploy rollout", DocSearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Path != "runbooks/deploy.md" {
		t.Errorf("expected deploy runbook first, got %q", matches[0].Path)
	}
	if matches[0].Content == "" {
		t.Error("expected match to carry document content")
	}

	// Lazily encoded vectors are persisted for the next search.
	recs := vectors.byDomain["ops"]
	if len(recs) != 2 {
		t.Fatalf("expected 2 persisted vectors, got %d", len(recs))
	}
	for path, rec := range recs {
		if rec.ModelVersion != "test@64" {
			t.Errorf("vector for %s has model version %q", path, rec.ModelVersion)
		}
	}
}

func TestDocSearch_ReusesCurrentVectors(t *testing.T) {
	docs := []library.Document{
		{Path: "a.md", Content: "alpha content"},
	}
	idx, _, embed := newTestDocIndex(docs)

	if _, err := idx.Search(context.Background(), "ops", "alpha", DocSearchOptions{}); err != nil {
		t.Fatalf("first Search: %v", err)
	}
	firstCalls := embed.calls

	if _, err := idx.Search(context.Background(), "ops", "alpha", DocSearchOptions{}); err != nil {
		t.Fatalf("second Search: %v", err)
	}
	// Second search encodes only the query, not the document again.
	if embed.calls != firstCalls+1 {
		t.Errorf("expected 1 additional encode, got %d", embed.calls-firstCalls)
	}
}

func TestDocSearch_TopK(t *testing.T) {
	docs := []library.Document{
		{Path: "a.md", Content: "shared topic words here"},
		{Path: "b.md", Content: "shared topic words here"},
		{Path: "c.md", Content: "shared topic words here"},
		{Path: "d.md", Content: "shared topic words here"},
	}
	idx, _, _ := newTestDocIndex(docs)

	matches, err := idx.Search(context.Background(), "ops", "shared topic", DocSearchOptions{TopK: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}
