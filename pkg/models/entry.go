package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry represents one user-authored journal record.
// Stored in journal_entries table. Entries are immutable once analyzed
// except via explicit edit, which deletes the per-entry analysis.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	EntryDate time.Time `json:"entry_date"`
	Tags      []string  `json:"tags,omitempty"`
	Deleted   bool      `json:"-"` // Soft-delete flag; deleted entries never reach the pipeline
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryAnalysis represents the AI-derived per-entry result.
// Exists 0-or-1 per entry; deleted and regenerated when the entry is edited.
type EntryAnalysis struct {
	ID         uuid.UUID `json:"id"`
	EntryID    uuid.UUID `json:"entry_id"`
	Themes     []string  `json:"themes"`
	Emotions   []string  `json:"emotions"`
	Symbols    []string  `json:"symbols"`
	Summary    string    `json:"summary"`
	Reflection string    `json:"reflection,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnalyzedEntry pairs an entry with its per-entry analysis.
// This is the unit the pipeline serializes into the model request.
type AnalyzedEntry struct {
	Entry    JournalEntry  `json:"entry"`
	Analysis EntryAnalysis `json:"analysis"`
}
