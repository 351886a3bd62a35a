package persona

import (
	"strings"
	"testing"
	"time"

	"github.com/loreworks/queryon/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
}

func defaults() domain.LLMConfig {
	return domain.LLMConfig{
		BaseURL:     "https://api.example.com/v1",
		APIKey:      "default-key",
		Model:       "default-model",
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

func TestResolve_SystemPromptCarriesRoleAndDate(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{
		Persona:     domain.PersonaVoid,
		RoleContext: "You are the ops assistant.",
	}, "what broke")

	if !strings.HasPrefix(res.SystemPrompt, "You are the ops assistant.") {
		t.Errorf("expected role context first, got %q", res.SystemPrompt)
	}
	if !strings.Contains(res.SystemPrompt, "Monday, 14 July 2025") {
		t.Errorf("expected current date in prompt, got %q", res.SystemPrompt)
	}
}

func TestResolve_EmptyRoleGetsGenericPrompt(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{Persona: domain.PersonaVoid}, "q")
	if !strings.Contains(res.SystemPrompt, "helpful assistant") {
		t.Errorf("expected generic fallback, got %q", res.SystemPrompt)
	}
}

func TestResolve_ToolChoiceByPersona(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	cases := []struct {
		persona domain.Persona
		want    domain.ToolChoice
	}{
		{domain.PersonaVoid, domain.ToolChoiceNone},
		{domain.PersonaLibrary, domain.ToolChoiceNone},
		{domain.PersonaInternet, domain.ToolChoiceRequired},
	}
	for _, tc := range cases {
		res := r.Resolve(domain.DomainConfig{Persona: tc.persona}, "q")
		if res.ToolChoice != tc.want {
			t.Errorf("persona %q: tool choice %q, want %q", tc.persona, res.ToolChoice, tc.want)
		}
	}
}

func TestResolve_WebPrefixUpgradesToolChoice(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{Persona: domain.PersonaVoid}, "!web latest go release")
	if res.ToolChoice != domain.ToolChoiceAuto {
		t.Errorf("expected auto tool choice, got %q", res.ToolChoice)
	}
	if res.Query != "latest go release" {
		t.Errorf("expected marker stripped, got %q", res.Query)
	}
}

func TestResolve_WebPrefixKeepsRequired(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{Persona: domain.PersonaInternet}, "!web breaking news")
	if res.ToolChoice != domain.ToolChoiceRequired {
		t.Errorf("internet persona stays required, got %q", res.ToolChoice)
	}
	if res.Query != "breaking news" {
		t.Errorf("expected marker stripped, got %q", res.Query)
	}
}

func TestResolve_DomainLLMOverrides(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{
		Persona: domain.PersonaVoid,
		LLM: &domain.LLMConfig{
			Model:  "domain-model",
			APIKey: "domain-key",
		},
	}, "q")

	if res.LLM.Model != "domain-model" || res.LLM.APIKey != "domain-key" {
		t.Errorf("expected domain overrides applied, got %+v", res.LLM)
	}
	if res.LLM.BaseURL != "https://api.example.com/v1" {
		t.Errorf("unset fields keep defaults, got %q", res.LLM.BaseURL)
	}
	if res.LLM.MaxTokens != 1024 {
		t.Errorf("unset max tokens keeps default, got %d", res.LLM.MaxTokens)
	}
}

func TestResolve_NoOverridesUsesDefaults(t *testing.T) {
	r := NewResolver(defaults()).WithClock(fixedClock)

	res := r.Resolve(domain.DomainConfig{Persona: domain.PersonaVoid}, "q")
	if res.LLM != defaults() {
		t.Errorf("expected process defaults, got %+v", res.LLM)
	}
}
