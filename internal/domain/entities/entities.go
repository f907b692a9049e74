// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage, transport or the LLM.
package entities

import "time"

// Document is an eligible source file discovered during ingestion.
// It only lives for the duration of an ingestion pass.
type Document struct {
	Source  string // Identifier stored with every fragment (path relative to the ingestion root)
	Path    string // Absolute path on disk
	Content string
}

// Fragment is the atomic indexed unit: a contiguous slice of one document.
type Fragment struct {
	Source  string
	Content string
	Index   int // Position in the document, informational only
}

// SearchHit is a fragment returned by a lexical search.
type SearchHit struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"` // Higher is more relevant
}

// IngestReport summarizes one ingestion pass.
type IngestReport struct {
	RunID     string        `json:"run_id"`
	Directory string        `json:"directory"`
	Files     int           `json:"files"`
	Fragments int           `json:"fragments"`
	Skipped   []FileError   `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ChatMessage represents a conversation turn.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is one incoming user message with optional history.
type ChatRequest struct {
	Message string
	UseRAG  bool
	History []ChatMessage
}

// ToolResult is the output of a tool directive (filesystem.read, fetch.get).
type ToolResult struct {
	Tool    string `json:"tool"`
	Target  string `json:"target"`
	Status  int    `json:"status,omitempty"`
	Content string `json:"content"`
}

// ChatResponse is the answer with the fragments that supported it.
// Tool is set instead of Answer when the message was a tool directive.
type ChatResponse struct {
	Answer  string      `json:"answer,omitempty"`
	Sources []SearchHit `json:"sources,omitempty"`
	Tool    *ToolResult `json:"tool,omitempty"`
}
