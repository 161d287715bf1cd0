// Package storage provides the persistence layer for the diagnostics journal.
// This package implements the repository pattern so the events package stays free of SQL.
package storage

import (
	"context"
	"time"
)

// JournalEntry mirrors the journal event structure for persistence.
// The events package should NOT import this; the server wires an adapter.
type JournalEntry struct {
	ID        string    `json:"id" db:"id"`
	RunID     string    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	Count     uint64    `json:"count" db:"count"`
	Detail    string    `json:"detail" db:"detail"`
}

// JournalRepository defines the interface for journal persistence.
type JournalRepository interface {
	// Append adds a new entry to the journal.
	Append(ctx context.Context, entry JournalEntry) error

	// Recent retrieves the newest entries of a run, oldest first.
	Recent(ctx context.Context, runID string, limit int) ([]JournalEntry, error)

	// CountByType returns how many entries of each type a run recorded.
	CountByType(ctx context.Context, runID string) (map[string]int64, error)

	// Prune deletes all but the newest keep entries of a run.
	Prune(ctx context.Context, runID string, keep int) error
}
