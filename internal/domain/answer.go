package domain

import "time"

// Source is a provenance entry for a web-grounded answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Trace records how a query was resolved, for observability and tests.
type Trace struct {
	Persona       Persona       `json:"persona"`
	MemoryMode    MemoryMode    `json:"memory_mode"`
	MemoryLoaded  bool          `json:"memory_loaded"`
	PatternHits   int           `json:"pattern_hits"`
	DocumentHits  int           `json:"document_hits"`
	ToolRounds    int           `json:"tool_rounds"`
	ContextChars  int           `json:"context_chars"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	RetrievalNote string        `json:"retrieval_note,omitempty"` // set when retrieval degraded
}

// Answer is the final response object for one resolved query.
// Sources is always present, possibly empty.
type Answer struct {
	Answer        string   `json:"answer"`
	WebSearchUsed bool     `json:"web_search_used"`
	Sources       []Source `json:"sources"`
	Trace         Trace    `json:"trace"`
}
