package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/store"
)

// Client talks to a `tiempo serve` instance. It implements store.Repository
// and the sign-in operations of auth.Service so the terminal UI can use a
// hosted backend in place of the local database. Entry calls are scoped by
// the bearer token; the userID arguments are ignored.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ store.Repository = (*Client)(nil)

// NewClient builds a Client for baseURL. A nil httpClient gets a default with
// a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// APIError is an error response that maps to no known sentinel.
type APIError struct {
	Status int
	Type   string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Type, e.Detail)
}

// SignIn authenticates and keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var sess auth.Session
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signin", SignInRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

func (c *Client) SignUp(ctx context.Context, req auth.SignUpRequest) (*store.Profile, error) {
	var p store.Profile
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signup", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Resume adopts token and fetches the profile it belongs to.
func (c *Client) Resume(ctx context.Context, token string) (*auth.Session, error) {
	c.SetToken(token)
	var p store.Profile
	if err := c.do(ctx, http.MethodGet, "/v1/auth/session", nil, &p); err != nil {
		c.SetToken("")
		return nil, err
	}
	return &auth.Session{Token: token, Profile: p}, nil
}

// GrantRole asks the server to change a role. The server checks the actor
// from the token; actor is used for a local pre-check only.
func (c *Client) GrantRole(ctx context.Context, actor store.Profile, email, role string) (*store.Profile, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	var p store.Profile
	if err := c.do(ctx, http.MethodPost, "/v1/admin/roles", GrantRoleRequest{Email: email, Role: role}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListEntries(ctx context.Context, _ string) ([]store.TimeEntry, error) {
	var resp ListEntriesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/entries", nil, &resp); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items, nil
}

func (c *Client) InsertEntry(ctx context.Context, _ string, d store.Draft) (*store.TimeEntry, error) {
	var e store.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/v1/entries", d, &e); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return &e, nil
}

func (c *Client) UpdateEntry(ctx context.Context, _ string, e store.TimeEntry) error {
	if err := c.do(ctx, http.MethodPut, "/v1/entries/"+url.PathEscape(e.ID), e, nil); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

func (c *Client) ListClients(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "/v1/clients")
}

func (c *Client) AddClient(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/clients", NameRequest{Name: name}, nil)
}

func (c *Client) RemoveClient(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/clients/"+url.PathEscape(name), nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "/v1/tasks")
}

func (c *Client) AddTask(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/tasks", NameRequest{Name: name}, nil)
}

func (c *Client) RemoveTask(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(name), nil, nil)
}

func (c *Client) listNames(ctx context.Context, path string) ([]string, error) {
	var resp ListNamesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an error body back into the sentinel the server mapped
// it from, so callers can use errors.Is across the wire.
func decodeError(resp *http.Response) error {
	var payload struct {
		Type   string `json:"type"`
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch payload.Type {
	case "validation_failed":
		return &auth.ValidationError{Msg: payload.Detail}
	case "invalid_credentials":
		return auth.ErrInvalidCredentials
	case "unauthorized":
		return auth.ErrInvalidToken
	case "bad_passphrase":
		return auth.ErrBadPassphrase
	case "forbidden":
		return auth.ErrForbidden
	case "invalid_role":
		return auth.ErrInvalidRole
	case "already_registered":
		return auth.ErrAlreadyRegistered
	case "duplicate":
		return store.ErrDuplicate
	case "not_found":
		return store.ErrNotFound
	}
	return &APIError{Status: resp.StatusCode, Type: payload.Type, Detail: payload.Detail}
}

