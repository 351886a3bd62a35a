// Package persona maps a domain's persona to a response strategy:
// system prompt assembly, completion endpoint resolution, and the
// tool-advertising policy fed to the tool-calling orchestrator.
package persona

import (
	"fmt"
	"strings"
	"time"

	"github.com/loreworks/queryon/internal/domain"
)

// WebPrefix is the query marker that opts any persona into tool use for
// that single query.
const WebPrefix = "!web "

const genericRoleContext = "You are a helpful assistant. Answer the user's question accurately and concisely."

// Resolution is the per-query outcome of persona mapping.
type Resolution struct {
	Persona      domain.Persona
	SystemPrompt string
	LLM          domain.LLMConfig
	ToolChoice   domain.ToolChoice
	// Query is the incoming query with the web prefix marker stripped.
	Query string
}

// Resolver assembles resolutions from domain configuration and
// process-wide completion defaults.
type Resolver struct {
	defaults domain.LLMConfig
	now      func() time.Time
}

// NewResolver creates a resolver with the process-wide LLM defaults.
func NewResolver(defaults domain.LLMConfig) *Resolver {
	return &Resolver{defaults: defaults, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve maps the domain config and query to a resolution. The system
// prompt always carries the role context (or a generic fallback) plus
// the current date and time, independent of the memory mode.
func (r *Resolver) Resolve(cfg domain.DomainConfig, query string) Resolution {
	role := strings.TrimSpace(cfg.RoleContext)
	if role == "" {
		role = genericRoleContext
	}
	prompt := fmt.Sprintf("%s\n\nCurrent date and time: %s",
		role, r.now().Format("Monday, 2 January 2006, 15:04 MST"))

	res := Resolution{
		Persona:      cfg.Persona,
		SystemPrompt: prompt,
		LLM:          r.defaults.Merge(cfg.LLM),
		Query:        query,
	}

	switch cfg.Persona {
	case domain.PersonaInternet:
		// Internet persona forces tool use every turn.
		res.ToolChoice = domain.ToolChoiceRequired
	case domain.PersonaVoid, domain.PersonaLibrary:
		// No tools unless the query itself opts in.
		res.ToolChoice = domain.ToolChoiceNone
	}

	if strings.HasPrefix(query, WebPrefix) {
		res.Query = strings.TrimSpace(strings.TrimPrefix(query, WebPrefix))
		if res.ToolChoice == domain.ToolChoiceNone {
			res.ToolChoice = domain.ToolChoiceAuto
		}
	}
	return res
}
