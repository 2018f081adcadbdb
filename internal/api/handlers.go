// Package api exposes the store and the auth service over HTTP and provides
// the matching client used by the terminal UI in remote mode.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/observability"
	"github.com/sadopc/tiempo/internal/store"
	"github.com/sadopc/tiempo/internal/timesheet"
)

// Handler coordinates HTTP requests with the repository and auth service.
type Handler struct {
	repo store.Repository
	auth *auth.Service
}

// NewHandler builds a Handler.
func NewHandler(repo store.Repository, svc *auth.Service) *Handler {
	return &Handler{repo: repo, auth: svc}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"POST /v1/auth/signin", h.signIn},
		{"POST /v1/auth/signup", h.signUp},
		{"GET /v1/auth/session", h.session},
		{"POST /v1/admin/roles", h.grantRole},
		{"GET /v1/entries", h.listEntries},
		{"POST /v1/entries", h.createEntry},
		{"PUT /v1/entries/{id}", h.updateEntry},
		{"GET /v1/clients", h.listNames(h.repo.ListClients)},
		{"POST /v1/clients", h.addName(h.repo.AddClient)},
		{"DELETE /v1/clients/{name}", h.removeName(h.repo.RemoveClient)},
		{"GET /v1/tasks", h.listNames(h.repo.ListTasks)},
		{"POST /v1/tasks", h.addName(h.repo.AddTask)},
		{"DELETE /v1/tasks/{name}", h.removeName(h.repo.RemoveTask)},
		{"GET /healthz", healthz},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, observability.Instrument(rt.pattern, rt.fn))
	}
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Routes returns the full handler chain: routes, request logging and bearer
// authentication.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
		})
	}

	authMiddleware := auth.NewMiddleware(h.auth.Config(), publicRoute)
	return logger(authMiddleware.Wrap(mux))
}

func publicRoute(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics", "/v1/auth/signin", "/v1/auth/signup":
		return true
	}
	return false
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// SignInRequest is the payload for POST /v1/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GrantRoleRequest is the payload for POST /v1/admin/roles.
type GrantRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NameRequest is the payload for adding a client or task.
type NameRequest struct {
	Name string `json:"name"`
}

// ListEntriesResponse packages list results.
type ListEntriesResponse struct {
	Items []store.TimeEntry `json:"items"`
}

// ListNamesResponse packages client or task names.
type ListNamesResponse struct {
	Items []string `json:"items"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			observability.RecordSignInFailure()
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentProfile(w, r)
	if !ok {
		return
	}
	var req GrantRoleRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.auth.GrantRole(r.Context(), *actor, req.Email, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentProfile(w, r)
	if !ok {
		return
	}
	entries, err := h.repo.ListEntries(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []store.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, ListEntriesResponse{Items: entries})
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentProfile(w, r)
	if !ok {
		return
	}
	var d store.Draft
	if !decode(w, r, &d) {
		return
	}
	if d.Client == "" || d.Task == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", timesheet.ErrMissingSelection.Error())
		return
	}
	if d.Duration < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "duration must be >= 0")
		return
	}
	e, err := h.repo.InsertEntry(r.Context(), p.ID, d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	observability.RecordEntrySaved(e.CreatedAt)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentProfile(w, r)
	if !ok {
		return
	}
	var e store.TimeEntry
	if !decode(w, r, &e) {
		return
	}
	e.ID = r.PathValue("id")
	if e.Client == "" || e.Task == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", timesheet.ErrMissingSelection.Error())
		return
	}
	if err := h.repo.UpdateEntry(r.Context(), p.ID, e); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listNames(list func(ctx context.Context) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.currentProfile(w, r); !ok {
			return
		}
		names, err := list(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, ListNamesResponse{Items: names})
	}
}

func (h *Handler) addName(add func(ctx context.Context, name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}
		var req NameRequest
		if !decode(w, r, &req) {
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
			return
		}
		if err := add(r.Context(), name); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (h *Handler) removeName(remove func(ctx context.Context, name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}
		if err := remove(r.Context(), r.PathValue("name")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) currentProfile(w http.ResponseWriter, r *http.Request) (*store.Profile, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	p, err := h.auth.Authorize(r.Context(), claims)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return nil, false
		}
		writeServiceError(w, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	p, ok := h.currentProfile(w, r)
	if !ok {
		return false
	}
	if !p.IsAdmin() {
		writeError(w, http.StatusForbidden, "forbidden", auth.ErrForbidden.Error())
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Msg)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, auth.ErrBadPassphrase):
		writeError(w, http.StatusForbidden, "bad_passphrase", err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, auth.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
	case errors.Is(err, auth.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
