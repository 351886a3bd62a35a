package index

import (
	"strings"
	"testing"

	"github.com/loreworks/queryon/internal/domain"
)

func TestPatternText_AllFieldsFit(t *testing.T) {
	enc := Encoder{TokenBudget: 512, FieldCharCap: 800}
	p := domain.Pattern{
		Name:        "retry with backoff",
		Problem:     "transient failures",
		Solution:    "retry with exponential backoff",
		Description: "wrap the call in a retry loop",
	}

	text := enc.PatternText(p)
	if !strings.Contains(text, p.Name) || !strings.Contains(text, p.Solution) {
		t.Fatalf("expected name and solution in %q", text)
	}
	if !strings.Contains(text, p.Description) {
		t.Errorf("expected description in full combination, got %q", text)
	}
	if strings.Contains(text, p.Problem) {
		t.Errorf("problem should not appear when the description combination fits")
	}
}

func TestPatternText_FallsBackToProblem(t *testing.T) {
	// Budget of 20 tokens = 80 chars. The long description pushes the
	// first combination over budget; the shorter problem fits.
	enc := Encoder{TokenBudget: 20, FieldCharCap: 800}
	p := domain.Pattern{
		Name:        "cache",
		Solution:    "add an LRU cache",
		Description: strings.Repeat("very long description ", 20),
		Problem:     "slow lookups",
	}

	text := enc.PatternText(p)
	if strings.Contains(text, "very long description") {
		t.Fatalf("description should be dropped, got %q", text)
	}
	if !strings.Contains(text, p.Problem) {
		t.Errorf("expected problem fallback, got %q", text)
	}
}

func TestPatternText_NameSolutionOnly(t *testing.T) {
	enc := Encoder{TokenBudget: 10, FieldCharCap: 800}
	p := domain.Pattern{
		Name:        "idx",
		Solution:    "add a covering index",
		Description: strings.Repeat("d", 200),
		Problem:     strings.Repeat("p", 200),
	}

	text := enc.PatternText(p)
	if strings.Contains(text, strings.Repeat("d", 10)) {
		t.Fatalf("description should be dropped, got %q", text)
	}
	if strings.Contains(text, strings.Repeat("p", 10)) {
		t.Fatalf("problem should be dropped, got %q", text)
	}
	if !strings.Contains(text, p.Name) || !strings.Contains(text, p.Solution) {
		t.Errorf("name and solution always survive, got %q", text)
	}
}

func TestPatternText_HardTruncation(t *testing.T) {
	enc := Encoder{TokenBudget: 5, FieldCharCap: 800}
	p := domain.Pattern{
		Name:     strings.Repeat("n", 100),
		Solution: strings.Repeat("s", 100),
	}

	text := enc.PatternText(p)
	if len(text) > enc.TokenBudget*4 {
		t.Fatalf("expected at most %d chars, got %d", enc.TokenBudget*4, len(text))
	}
}

func TestPatternText_FieldCharCap(t *testing.T) {
	enc := Encoder{TokenBudget: 512, FieldCharCap: 10}
	p := domain.Pattern{
		Name:     strings.Repeat("n", 50),
		Solution: strings.Repeat("s", 50),
	}

	text := enc.PatternText(p)
	if strings.Contains(text, strings.Repeat("n", 11)) {
		t.Errorf("name should be capped at 10 chars, got %q", text)
	}
}

func TestQueryText_Truncates(t *testing.T) {
	enc := Encoder{TokenBudget: 5, FieldCharCap: 800}
	q := strings.Repeat("x", 100)

	if got := enc.QueryText(q); len(got) != 20 {
		t.Fatalf("expected 20 chars, got %d", len(got))
	}
}

func TestDocumentText_KeepsLeadingContent(t *testing.T) {
	enc := Encoder{TokenBudget: 5, FieldCharCap: 800}
	content := "leading content " + strings.Repeat("tail ", 100)

	got := enc.DocumentText(content)
	if !strings.HasPrefix(got, "leading content") {
		t.Fatalf("expected leading content kept, got %q", got)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 chars, got %d", len(got))
	}
}
