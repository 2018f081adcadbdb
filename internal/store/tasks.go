package store

import "context"

// AddTask inserts a task name. A name already present yields ErrDuplicate.
func (s *Store) AddTask(ctx context.Context, name string) error {
	return s.addName(ctx, "tasks", name)
}

// RemoveTask deletes the exact name.
func (s *Store) RemoveTask(ctx context.Context, name string) error {
	return s.removeName(ctx, "tasks", name)
}

// ListTasks returns all task names in alphabetical order.
func (s *Store) ListTasks(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, "tasks")
}
