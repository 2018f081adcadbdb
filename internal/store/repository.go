package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Repository is the persistence contract behind the application shell.
// Entry reads and updates are scoped to a user id.
type Repository interface {
	ListEntries(ctx context.Context, userID string) ([]TimeEntry, error)
	InsertEntry(ctx context.Context, userID string, d Draft) (*TimeEntry, error)
	UpdateEntry(ctx context.Context, userID string, e TimeEntry) error

	ListClients(ctx context.Context) ([]string, error)
	AddClient(ctx context.Context, name string) error
	RemoveClient(ctx context.Context, name string) error

	ListTasks(ctx context.Context) ([]string, error)
	AddTask(ctx context.Context, name string) error
	RemoveTask(ctx context.Context, name string) error
}
