package domain

import "fmt"

// Persona is the closed set of data-source strategies for answering a query.
type Persona string

const (
	// PersonaVoid answers from the model and stored patterns only.
	PersonaVoid Persona = "void"
	// PersonaLibrary answers from the domain's document corpus.
	PersonaLibrary Persona = "library"
	// PersonaInternet answers with mandatory web search.
	PersonaInternet Persona = "internet"
)

// ParsePersona validates a persona name. Unknown values are a
// construction-time error, never a runtime lookup miss.
func ParsePersona(s string) (Persona, error) {
	switch p := Persona(s); p {
	case PersonaVoid, PersonaLibrary, PersonaInternet:
		return p, nil
	}
	return "", fmt.Errorf("%w: persona %q", ErrInvalidDomainConfig, s)
}

// MemoryMode is the closed set of conversation-memory retrieval policies.
type MemoryMode string

const (
	// MemoryAll always loads the conversation log tail.
	MemoryAll MemoryMode = "all"
	// MemoryTriggers loads the tail only when the query contains a trigger phrase.
	MemoryTriggers MemoryMode = "triggers"
	// MemoryQuestion loads the tail only for prefix-marked queries.
	MemoryQuestion MemoryMode = "question"
	// MemoryJournal never loads memory (zero-latency path).
	MemoryJournal MemoryMode = "journal"
	// MemoryJournalPatterns journals exchanges as searchable patterns.
	MemoryJournalPatterns MemoryMode = "journal_patterns"
)

// ParseMemoryMode validates a conversation-memory mode name.
func ParseMemoryMode(s string) (MemoryMode, error) {
	switch m := MemoryMode(s); m {
	case MemoryAll, MemoryTriggers, MemoryQuestion, MemoryJournal, MemoryJournalPatterns:
		return m, nil
	}
	return "", fmt.Errorf("%w: conversation memory mode %q", ErrInvalidDomainConfig, s)
}
