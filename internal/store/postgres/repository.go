// Package postgres is the hosted-backend implementation of store.Repository
// and of the profile directory used by the auth service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/tiempo/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    username      TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'user',
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clients (
    name       TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
    name       TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS time_entries (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL REFERENCES profiles(id),
    client      TEXT NOT NULL,
    task        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_time  TIMESTAMPTZ NOT NULL,
    end_time    TIMESTAMPTZ NOT NULL,
    duration    BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_time_entries_user_created ON time_entries (user_id, created_at DESC);
`

// Repository provides Postgres-backed persistence for entries, the client and
// task lists, and profiles.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Repository = (*Repository)(nil)

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Open connects to databaseURL, verifies the connection and applies the schema.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	r := NewRepository(pool)
	if err := r.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Migrate creates missing tables. It is safe to run repeatedly.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks the pool.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const entryColumns = `id::text, user_id::text, client, task, description, start_time, end_time, duration, created_at`

// InsertEntry stores a draft for userID and returns the stored row.
func (r *Repository) InsertEntry(ctx context.Context, userID string, d store.Draft) (*store.TimeEntry, error) {
	const stmt = `INSERT INTO time_entries (id, user_id, client, task, description, start_time, end_time, duration)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING ` + entryColumns

	row := r.pool.QueryRow(ctx, stmt,
		uuid.NewString(), userID, d.Client, d.Task, d.Description,
		d.StartTime.UTC(), d.EndTime.UTC(), d.Duration,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// ListEntries returns userID's entries, newest first.
func (r *Repository) ListEntries(ctx context.Context, userID string) ([]store.TimeEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []store.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateEntry replaces the editable fields of an entry owned by userID.
func (r *Repository) UpdateEntry(ctx context.Context, userID string, e store.TimeEntry) error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, store.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE time_entries SET client=$1, task=$2, description=$3, start_time=$4, end_time=$5, duration=$6
        WHERE id=$7 AND user_id=$8`,
		e.Client, e.Task, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), e.Duration, e.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update entry %s: %w", e.ID, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListClients(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "clients")
}

func (r *Repository) AddClient(ctx context.Context, name string) error {
	return r.addName(ctx, "clients", name)
}

func (r *Repository) RemoveClient(ctx context.Context, name string) error {
	return r.removeName(ctx, "clients", name)
}

func (r *Repository) ListTasks(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "tasks")
}

func (r *Repository) AddTask(ctx context.Context, name string) error {
	return r.addName(ctx, "tasks", name)
}

func (r *Repository) RemoveTask(ctx context.Context, name string) error {
	return r.removeName(ctx, "tasks", name)
}

func (r *Repository) addName(ctx context.Context, table, name string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO `+table+` (name) VALUES ($1)`, name)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s %q: %w", table, name, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return nil
}

func (r *Repository) removeName(ctx context.Context, table, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE name=$1`, name); err != nil {
		return fmt.Errorf("delete %s %q: %w", table, name, err)
	}
	return nil
}

func (r *Repository) listNames(ctx context.Context, table string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

const profileColumns = `id::text, email, username, role, is_admin, created_at`

// CreateProfile registers a profile with its password hash.
func (r *Repository) CreateProfile(ctx context.Context, p store.Profile, passwordHash string) (*store.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = store.RoleUser
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, email, password_hash, username, role, is_admin, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING `+profileColumns,
		p.ID, p.Email, passwordHash, p.Username, p.Role, p.IsAdminFlag, p.CreatedAt,
	)
	created, err := scanProfile(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert profile %q: %w", p.Email, store.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return created, nil
}

// ProfileByEmail returns the profile and its password hash.
func (r *Repository) ProfileByEmail(ctx context.Context, email string) (*store.Profile, string, error) {
	var (
		p    store.Profile
		hash string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+`, password_hash FROM profiles WHERE email=$1`, email,
	).Scan(&p.ID, &p.Email, &p.Username, &p.Role, &p.IsAdminFlag, &p.CreatedAt, &hash)
	if err != nil {
		return nil, "", fmt.Errorf("get profile %q: %w", email, notFound(err))
	}
	return &p, hash, nil
}

func (r *Repository) ProfileByID(ctx context.Context, id string) (*store.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, store.ErrNotFound)
	}
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id))
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, notFound(err))
	}
	return p, nil
}

// SetRole changes the role for email and keeps is_admin in step.
func (r *Repository) SetRole(ctx context.Context, email, role string) (*store.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`UPDATE profiles SET role=$1, is_admin=$2 WHERE email=$3 RETURNING `+profileColumns,
		role, role == store.RoleAdmin, email))
	if err != nil {
		return nil, fmt.Errorf("set role %q: %w", email, notFound(err))
	}
	return p, nil
}

func scanEntry(row pgx.Row) (*store.TimeEntry, error) {
	var e store.TimeEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.Client, &e.Task, &e.Description,
		&e.StartTime, &e.EndTime, &e.Duration, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanProfile(row pgx.Row) (*store.Profile, error) {
	var p store.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.Role, &p.IsAdminFlag, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
