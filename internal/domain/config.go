package domain

// MemoryConfig controls the conversation-memory subsystem of one domain.
type MemoryConfig struct {
	Enabled         bool       `yaml:"enabled" json:"enabled"`
	Mode            MemoryMode `yaml:"mode" json:"mode"`
	TriggerPhrases  []string   `yaml:"trigger_phrases" json:"trigger_phrases,omitempty"`
	PrefixMarker    string     `yaml:"prefix_marker" json:"prefix_marker,omitempty"`
	MaxContextChars int        `yaml:"max_context_chars" json:"max_context_chars"`
	// MinScore is deliberately low for journal search: recall over
	// precision, the model judges relevance among the top matches.
	MinScore float64 `yaml:"min_score" json:"min_score"`
	TopK     int     `yaml:"top_k" json:"top_k"`
}

// LLMConfig identifies a completion endpoint. A domain-level instance
// overrides the process-wide defaults field by field.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url" json:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key" json:"api_key,omitempty"`
	Model       string  `yaml:"model" json:"model,omitempty"`
	Temperature float32 `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// Merge overlays non-zero fields of override on top of the receiver.
func (c LLMConfig) Merge(override *LLMConfig) LLMConfig {
	if override == nil {
		return c
	}
	out := c
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.Temperature != 0 {
		out.Temperature = override.Temperature
	}
	if override.MaxTokens != 0 {
		out.MaxTokens = override.MaxTokens
	}
	return out
}

// DomainConfig is the read-only per-domain configuration. Its lifecycle
// is owned by an external collaborator; the engine only loads it.
type DomainConfig struct {
	Name                string       `yaml:"name" json:"name"`
	Persona             Persona      `yaml:"persona" json:"persona"`
	Memory              MemoryConfig `yaml:"conversation_memory" json:"conversation_memory"`
	RoleContext         string       `yaml:"role_context" json:"role_context,omitempty"`
	LLM                 *LLMConfig   `yaml:"llm_config" json:"llm_config,omitempty"`
	SearchPatterns      bool         `yaml:"search_patterns" json:"search_patterns"`
	ConfidenceThreshold float64      `yaml:"confidence_threshold" json:"confidence_threshold"`
	// Hybrid ranking weights. SemanticWeight defaults to 1.0 with
	// KeywordWeight 0 (pure cosine).
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight" json:"keyword_weight"`
}
