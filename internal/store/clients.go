package store

import (
	"context"
	"fmt"
	"time"
)

// AddClient inserts a client name. A name already present yields ErrDuplicate.
func (s *Store) AddClient(ctx context.Context, name string) error {
	return s.addName(ctx, "clients", name)
}

// RemoveClient deletes the exact name. Removing a missing name is not an error.
func (s *Store) RemoveClient(ctx context.Context, name string) error {
	return s.removeName(ctx, "clients", name)
}

// ListClients returns all client names in alphabetical order.
func (s *Store) ListClients(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, "clients")
}

// addName, removeName and listNames back both the clients and tasks tables;
// table is always a constant from this package.
func (s *Store) addName(ctx context.Context, table, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (name, created_at) VALUES (?, ?)`, name, now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s %q: %w", table, name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return nil
}

func (s *Store) removeName(ctx context.Context, table, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete %s %q: %w", table, name, err)
	}
	return nil
}

func (s *Store) listNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
