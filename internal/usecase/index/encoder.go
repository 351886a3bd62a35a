package index

import "github.com/loreworks/queryon/internal/domain"

// Encoder builds the text fed to the embedding model under a hard token
// budget, estimated at one token per four characters.
type Encoder struct {
	TokenBudget  int
	FieldCharCap int
}

// PatternText selects pattern fields in priority order so the most
// semantically distinguishing content survives the budget:
// name+solution+description, then name+solution+problem, then
// name+solution only. Each field is truncated to the char cap first.
func (e Encoder) PatternText(p domain.Pattern) string {
	name := truncate(p.Name, e.FieldCharCap)
	solution := truncate(p.Solution, e.FieldCharCap)
	description := truncate(p.Description, e.FieldCharCap)
	problem := truncate(p.Problem, e.FieldCharCap)

	candidates := []string{
		join(name, solution, description),
		join(name, solution, problem),
		join(name, solution),
	}
	for _, text := range candidates {
		if estimateTokens(text) <= e.TokenBudget {
			return text
		}
	}
	// Even name+solution alone is over budget: keep leading content.
	return truncate(candidates[len(candidates)-1], e.TokenBudget*4)
}

// QueryText applies the same budget transform to a free-text query.
func (e Encoder) QueryText(q string) string {
	return truncate(q, e.TokenBudget*4)
}

// DocumentText keeps a document's leading content up to the budget.
// Whole-document embedding is a deliberate simplicity trade-off:
// document-level relevance over exhaustive sub-document coverage.
func (e Encoder) DocumentText(content string) string {
	return truncate(content, e.TokenBudget*4)
}

func estimateTokens(s string) int { return len(s) / 4 }

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}

func join(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}
