package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/tiempo/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrBadPassphrase      = errors.New("incorrect administrator passphrase")
	ErrForbidden          = errors.New("administrator role required")
	ErrInvalidRole        = errors.New("unknown role")
)

// ValidationError reports a form field problem. Msg is meant for the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Directory is the profile storage the service needs. Both the SQLite and
// Postgres stores implement it.
type Directory interface {
	CreateProfile(ctx context.Context, p store.Profile, passwordHash string) (*store.Profile, error)
	ProfileByEmail(ctx context.Context, email string) (*store.Profile, string, error)
	ProfileByID(ctx context.Context, id string) (*store.Profile, error)
	SetRole(ctx context.Context, email, role string) (*store.Profile, error)
}

// Session is a signed-in user.
type Session struct {
	Token   string        `json:"token"`
	Profile store.Profile `json:"profile"`
}

// SignUpRequest carries the registration form.
type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Username        string `json:"username"`
	Passphrase      string `json:"passphrase"`
	Admin           bool   `json:"admin"`
}

// Service implements sign-in, registration, session resume and role grants
// on top of a Directory.
type Service struct {
	dir        Directory
	cfg        Config
	passphrase string

	// Now is the clock used for token issue. nil means time.Now.
	Now func() time.Time
}

// NewService constructs a Service. passphrase is the shared secret required
// to register a user.
func NewService(dir Directory, cfg Config, passphrase string) *Service {
	return &Service{dir: dir, cfg: cfg, passphrase: passphrase}
}

// Config returns the token parameters, for middleware wiring.
func (s *Service) Config() Config { return s.cfg }

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateSignIn checks the fields required by the sign-in form.
func ValidateSignIn(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &ValidationError{Msg: "Email and password are required"}
	}
	return nil
}

// ValidateSignUp checks the registration form, stopping at the first problem.
func ValidateSignUp(req SignUpRequest) error {
	if err := ValidateSignIn(req.Email, req.Password); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" {
		return &ValidationError{Msg: "Username is required"}
	}
	if req.Password != req.ConfirmPassword {
		return &ValidationError{Msg: "Passwords do not match"}
	}
	if len(req.Password) < MinPasswordLength {
		return &ValidationError{Msg: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// SignIn checks the password and issues a session. Roles are never changed
// here.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := ValidateSignIn(email, password); err != nil {
		return nil, err
	}
	p, hash, err := s.dir.ProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(*p)
}

// SignUp registers a new profile. It does not sign the user in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*store.Profile, error) {
	if err := ValidateSignUp(req); err != nil {
		return nil, err
	}
	if req.Passphrase != s.passphrase {
		return nil, ErrBadPassphrase
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := store.Profile{
		Email:    normalizeEmail(req.Email),
		Username: strings.TrimSpace(req.Username),
		Role:     store.RoleUser,
	}
	if req.Admin {
		p.Role = store.RoleAdmin
		p.IsAdminFlag = true
	}
	created, err := s.dir.CreateProfile(ctx, p, string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return created, nil
}

// Resume validates a stored token and reloads the profile it names.
func (s *Service) Resume(ctx context.Context, token string) (*Session, error) {
	claims, err := Parse(token, s.cfg)
	if err != nil {
		return nil, err
	}
	p, err := s.dir.ProfileByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	return &Session{Token: token, Profile: *p}, nil
}

// Authorize resolves a profile from a verified token subject.
func (s *Service) Authorize(ctx context.Context, claims *Claims) (*store.Profile, error) {
	if claims == nil {
		return nil, ErrMissingToken
	}
	p, err := s.dir.ProfileByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return p, err
}

// GrantRole sets role on the profile registered under email. Only an admin
// actor may grant.
func (s *Service) GrantRole(ctx context.Context, actor store.Profile, email, role string) (*store.Profile, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return SetRole(ctx, s.dir, email, role)
}

// SetRole changes a role without an actor check. It backs the operator
// bootstrap command and GrantRole.
func SetRole(ctx context.Context, dir Directory, email, role string) (*store.Profile, error) {
	if role != store.RoleAdmin && role != store.RoleUser {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	p, err := dir.SetRole(ctx, normalizeEmail(email), role)
	if err != nil {
		return nil, fmt.Errorf("grant role: %w", err)
	}
	return p, nil
}

func (s *Service) issue(p store.Profile) (*Session, error) {
	token, err := Issue(p.ID, p.Role, s.cfg, s.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Profile: p}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
