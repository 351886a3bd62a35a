// Package domaincfg loads per-domain configuration documents. The
// engine treats them as read-only input; their lifecycle is owned by an
// external management surface.
package domaincfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/loreworks/queryon/internal/domain"
)

// Defaults applied to fields a domain document leaves unset.
const (
	DefaultMaxContextChars = 4000
	DefaultJournalMinScore = 0.1
	DefaultJournalTopK     = 10
)

// Loader reads domain configuration files.
type Loader struct {
	root string
}

// New creates a loader rooted at dir.
func New(dir string) *Loader {
	return &Loader{root: dir}
}

func (l *Loader) path(domainName string) string {
	return filepath.Join(l.root, "domains", domainName, "domain.yaml")
}

// Load reads and validates one domain's configuration. Persona and
// memory mode are validated at load time: an unknown value fails here,
// never as a runtime dispatch miss.
func (l *Loader) Load(domainName string) (domain.DomainConfig, error) {
	data, err := os.ReadFile(l.path(domainName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DomainConfig{}, fmt.Errorf("%w: %s", domain.ErrDomainNotFound, domainName)
		}
		return domain.DomainConfig{}, fmt.Errorf("read domain config: %w", err)
	}

	var raw struct {
		Persona             string               `yaml:"persona"`
		Memory              rawMemory            `yaml:"conversation_memory"`
		RoleContext         string               `yaml:"role_context"`
		LLM                 *domain.LLMConfig    `yaml:"llm_config"`
		SearchPatterns      bool                 `yaml:"search_patterns"`
		ConfidenceThreshold float64              `yaml:"confidence_threshold"`
		SemanticWeight      float64              `yaml:"semantic_weight"`
		KeywordWeight       float64              `yaml:"keyword_weight"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.DomainConfig{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidDomainConfig, domainName, err)
	}

	persona, err := domain.ParsePersona(raw.Persona)
	if err != nil {
		return domain.DomainConfig{}, err
	}

	memory := domain.MemoryConfig{
		Enabled:         raw.Memory.Enabled,
		Mode:            domain.MemoryJournal,
		TriggerPhrases:  raw.Memory.TriggerPhrases,
		PrefixMarker:    raw.Memory.PrefixMarker,
		MaxContextChars: raw.Memory.MaxContextChars,
		MinScore:        raw.Memory.MinScore,
		TopK:            raw.Memory.TopK,
	}
	if raw.Memory.Enabled {
		mode, err := domain.ParseMemoryMode(raw.Memory.Mode)
		if err != nil {
			return domain.DomainConfig{}, err
		}
		memory.Mode = mode
	}
	if memory.MaxContextChars <= 0 {
		memory.MaxContextChars = DefaultMaxContextChars
	}
	if memory.MinScore <= 0 {
		memory.MinScore = DefaultJournalMinScore
	}
	if memory.TopK <= 0 {
		memory.TopK = DefaultJournalTopK
	}
	if memory.PrefixMarker == "" {
		memory.PrefixMarker = "?"
	}

	cfg := domain.DomainConfig{
		Name:                domainName,
		Persona:             persona,
		Memory:              memory,
		RoleContext:         raw.RoleContext,
		LLM:                 raw.LLM,
		SearchPatterns:      raw.SearchPatterns,
		ConfidenceThreshold: raw.ConfidenceThreshold,
		SemanticWeight:      raw.SemanticWeight,
		KeywordWeight:       raw.KeywordWeight,
	}
	if cfg.SemanticWeight == 0 {
		cfg.SemanticWeight = 1.0
	}
	return cfg, nil
}

type rawMemory struct {
	Enabled         bool     `yaml:"enabled"`
	Mode            string   `yaml:"mode"`
	TriggerPhrases  []string `yaml:"trigger_phrases"`
	PrefixMarker    string   `yaml:"prefix_marker"`
	MaxContextChars int      `yaml:"max_context_chars"`
	MinScore        float64  `yaml:"min_score"`
	TopK            int      `yaml:"top_k"`
}
