package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const profileColumns = `id, email, username, role, is_admin, created_at`

// CreateProfile registers a profile with its password hash. An empty ID or
// role is filled in. A taken email yields ErrDuplicate.
func (s *Store) CreateProfile(ctx context.Context, p Profile, passwordHash string) (*Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, password_hash, username, role, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, passwordHash, p.Username, p.Role, boolToInt(p.IsAdminFlag),
		p.CreatedAt.UTC().Format(timeLayout),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert profile %q: %w", p.Email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return s.ProfileByID(ctx, p.ID)
}

// ProfileByEmail returns the profile and its password hash.
func (s *Store) ProfileByEmail(ctx context.Context, email string) (*Profile, string, error) {
	var hash string
	p := &Profile{}
	var isAdmin int
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+`, password_hash FROM profiles WHERE email = ?`, email,
	).Scan(&p.ID, &p.Email, &p.Username, &p.Role, &isAdmin, &createdAt, &hash)
	if err != nil {
		return nil, "", fmt.Errorf("get profile %q: %w", email, notFound(err))
	}
	p.IsAdminFlag = isAdmin == 1
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return p, hash, nil
}

func (s *Store) ProfileByID(ctx context.Context, id string) (*Profile, error) {
	p := &Profile{}
	var isAdmin int
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Email, &p.Username, &p.Role, &isAdmin, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, notFound(err))
	}
	p.IsAdminFlag = isAdmin == 1
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return p, nil
}

// SetRole changes the role of the profile registered under email and keeps
// the is_admin flag in step with it.
func (s *Store) SetRole(ctx context.Context, email, role string) (*Profile, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET role = ?, is_admin = ? WHERE email = ?`,
		role, boolToInt(role == RoleAdmin), email,
	)
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("set role %q: %w", email, ErrNotFound)
	}
	p, _, err := s.ProfileByEmail(ctx, email)
	return p, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
