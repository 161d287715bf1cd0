package main

import (
	"context"

	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/infra/storage"
)

// journalStore translates journal events to storage entries for one run.
// Append is only called from the EventLog writer goroutine.
type journalStore struct {
	repo     storage.JournalRepository
	runID    string
	keep     int
	appended int
}

func newJournalStore(repo storage.JournalRepository, runID string, capacity int) *journalStore {
	return &journalStore{repo: repo, runID: runID, keep: capacity}
}

func (s *journalStore) Append(ctx context.Context, e events.Event) error {
	err := s.repo.Append(ctx, storage.JournalEntry{
		ID:        e.ID,
		RunID:     s.runID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		Count:     e.Count,
		Detail:    e.Detail,
	})
	if err != nil {
		return err
	}

	s.appended++
	if s.appended%s.keep == 0 {
		// Keep the archive within a fixed multiple of the in-memory journal.
		return s.repo.Prune(ctx, s.runID, 10*s.keep)
	}
	return nil
}

func (s *journalStore) Recent(ctx context.Context, limit int) ([]events.Event, error) {
	entries, err := s.repo.Recent(ctx, s.runID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(entries))
	for _, e := range entries {
		out = append(out, events.Event{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Type:      events.EventType(e.EventType),
			Count:     e.Count,
			Detail:    e.Detail,
		})
	}
	return out, nil
}

func (s *journalStore) CountByType(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByType(ctx, s.runID)
}
