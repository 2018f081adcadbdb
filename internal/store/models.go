package store

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is a registered user. The password hash stays in the store layer.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	IsAdminFlag bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin gates the administrative surfaces.
func (p Profile) IsAdmin() bool {
	return p.IsAdminFlag || p.Role == RoleAdmin
}

// DisplayName is the name stamped on entries: username, else email.
func (p Profile) DisplayName() string {
	switch {
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	default:
		return "Usuario"
	}
}

// TimeEntry is a persisted block of worked time. Duration is in whole
// seconds and is not forced to match EndTime-StartTime.
type TimeEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Client      string    `json:"client"`
	Task        string    `json:"task"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int64     `json:"duration"`
	CreatedAt   time.Time `json:"created_at"`

	// Username is the display name of the owner, filled in by the caller.
	Username string `json:"-"`
}

// Draft is an entry payload before the store assigns an ID.
type Draft struct {
	Client      string    `json:"client"`
	Task        string    `json:"task"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int64     `json:"duration"`
}
