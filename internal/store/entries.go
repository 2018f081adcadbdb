package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const entryColumns = `id, user_id, client, task, description, start_time, end_time, duration, created_at`

// InsertEntry stores a draft for userID and returns the stored row.
func (s *Store) InsertEntry(ctx context.Context, userID string, d Draft) (*TimeEntry, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, d.Client, d.Task, d.Description,
		d.StartTime.UTC().Format(timeLayout), d.EndTime.UTC().Format(timeLayout),
		d.Duration, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return s.GetEntry(ctx, id)
}

func (s *Store) GetEntry(ctx context.Context, id string) (*TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, notFound(err))
	}
	return e, nil
}

// ListEntries returns userID's entries, newest first.
func (s *Store) ListEntries(ctx context.Context, userID string) ([]TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateEntry replaces every editable field of an entry owned by userID.
func (s *Store) UpdateEntry(ctx context.Context, userID string, e TimeEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE time_entries
		 SET client = ?, task = ?, description = ?, start_time = ?, end_time = ?, duration = ?
		 WHERE id = ? AND user_id = ?`,
		e.Client, e.Task, e.Description,
		e.StartTime.UTC().Format(timeLayout), e.EndTime.UTC().Format(timeLayout),
		e.Duration, e.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update entry %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var startTime, endTime, createdAt string
	err := sc.Scan(&e.ID, &e.UserID, &e.Client, &e.Task, &e.Description,
		&startTime, &endTime, &e.Duration, &createdAt)
	if err != nil {
		return nil, err
	}
	e.StartTime, _ = time.Parse(timeLayout, startTime)
	e.EndTime, _ = time.Parse(timeLayout, endTime)
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return e, nil
}
