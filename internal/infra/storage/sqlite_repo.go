package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// SQLiteJournalRepository implements JournalRepository for SQLite.
type SQLiteJournalRepository struct {
	db *sql.DB
}

func NewSQLiteJournalRepository(db *sql.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db}
}

// Append stores one entry. The counter is kept as decimal text because SQLite
// integers are signed 64-bit.
func (r *SQLiteJournalRepository) Append(ctx context.Context, entry JournalEntry) error {
	query := `
		INSERT INTO journal (id, run_id, timestamp, event_type, count, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.RunID, entry.Timestamp.UnixNano(), entry.EventType,
		strconv.FormatUint(entry.Count, 10), entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

func (r *SQLiteJournalRepository) Recent(ctx context.Context, runID string, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, run_id, timestamp, event_type, count, detail FROM (
			SELECT seq, id, run_id, timestamp, event_type, count, detail FROM journal
			WHERE run_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var ts int64
		var count string
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.EventType, &count, &e.Detail); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts)
		e.Count, err = strconv.ParseUint(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt count %q in entry %s: %w", count, e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteJournalRepository) CountByType(ctx context.Context, runID string) (map[string]int64, error) {
	query := `SELECT event_type, COUNT(*) FROM journal WHERE run_id = ? GROUP BY event_type`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteJournalRepository) Prune(ctx context.Context, runID string, keep int) error {
	query := `
		DELETE FROM journal WHERE run_id = ? AND seq NOT IN (
			SELECT seq FROM journal WHERE run_id = ? ORDER BY seq DESC LIMIT ?
		)
	`
	if _, err := r.db.ExecContext(ctx, query, runID, runID, keep); err != nil {
		return fmt.Errorf("failed to prune journal: %w", err)
	}
	return nil
}
