package model

import "time"

// MemoryType enumerates the kinds of free-form records the memory store
// accepts (spec §3 "Memory record").
type MemoryType string

const (
	MemoryNote         MemoryType = "note"
	MemoryConversation MemoryType = "conversation"
	MemoryDecision     MemoryType = "decision"
)

// Memory is a free-text record served under the same hybrid retrieval
// contract as code chunks.
//
// Invariants: Title and Content are non-empty; a soft delete (DeletedAt
// set) must precede any permanent deletion.
type Memory struct {
	ID             string
	Title          string // <= 200 chars
	Content        string
	Type           MemoryType
	Tags           []string
	Author         string
	ProjectID      string
	RelatedChunks  []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	Embedding      []float32
	EmbeddingModel string
}

// Valid checks the memory invariants from spec §3.
func (m *Memory) Valid() bool {
	if m.Title == "" || len(m.Title) > 200 {
		return false
	}
	if m.Content == "" {
		return false
	}
	return ValidEmbeddingLength(m.Embedding)
}

// Event models the legacy memory-as-event row reserved in spec §6. It is
// given a concrete shape here but no write path is wired from the indexing
// pipeline (see SPEC_FULL.md §5).
type Event struct {
	ID        string
	Content   map[string]any
	Metadata  map[string]any
	Embedding []float32
	Timestamp time.Time
}
