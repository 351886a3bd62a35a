package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loreworks/queryon/internal/domain"
)

func TestLoadAll_MissingFileIsEmptyDomain(t *testing.T) {
	s := NewStore(t.TempDir())

	patterns, err := s.LoadAll("nonexistent")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if patterns != nil {
		t.Fatalf("expected nil for missing domain, got %d patterns", len(patterns))
	}
}

func TestAppendOne_RoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())

	p := domain.Pattern{
		ID:       "p1",
		Domain:   "ops",
		Name:     "retry",
		Problem:  "flaky calls",
		Solution: "exponential backoff",
		Tags:     []string{"reliability"},
		Type:     domain.PatternCurated,
	}
	if err := s.AppendOne("ops", p); err != nil {
		t.Fatalf("AppendOne: %v", err)
	}

	got, err := s.LoadAll("ops")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(got))
	}
	if got[0].ID != "p1" || got[0].Solution != "exponential backoff" {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
	if got[0].Type != domain.PatternCurated {
		t.Errorf("expected curated type, got %q", got[0].Type)
	}
}

func TestUpsert_ReplacesByID(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.Upsert("ops", domain.Pattern{ID: "p1", Name: "v1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert("ops", domain.Pattern{ID: "p2", Name: "other"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert("ops", domain.Pattern{ID: "p1", Name: "v2"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.LoadAll("ops")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(got))
	}
	for _, p := range got {
		if p.ID == "p1" && p.Name != "v2" {
			t.Errorf("expected p1 replaced, got %q", p.Name)
		}
	}
}

func TestReplaceAll_OverwritesFile(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.AppendOne("ops", domain.Pattern{ID: "old"}); err != nil {
		t.Fatalf("AppendOne: %v", err)
	}
	if err := s.ReplaceAll("ops", []domain.Pattern{{ID: "new"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := s.LoadAll("ops")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("expected only the new pattern, got %+v", got)
	}
}

func TestWriteAll_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.AppendOne("ops", domain.Pattern{ID: "p1"}); err != nil {
		t.Fatalf("AppendOne: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "domains", "ops"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "patterns.json" {
			t.Errorf("unexpected file %q left behind", e.Name())
		}
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.AppendOne("ops", domain.Pattern{ID: "a"}); err != nil {
		t.Fatalf("AppendOne: %v", err)
	}
	if err := s.AppendOne("dev", domain.Pattern{ID: "b"}); err != nil {
		t.Fatalf("AppendOne: %v", err)
	}

	ops, _ := s.LoadAll("ops")
	dev, _ := s.LoadAll("dev")
	if len(ops) != 1 || ops[0].ID != "a" {
		t.Errorf("ops domain polluted: %+v", ops)
	}
	if len(dev) != 1 || dev[0].ID != "b" {
		t.Errorf("dev domain polluted: %+v", dev)
	}
}
