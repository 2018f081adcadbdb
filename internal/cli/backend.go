package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tiempo/internal/api"
	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/config"
	"github.com/sadopc/tiempo/internal/store"
	"github.com/sadopc/tiempo/internal/store/postgres"
	"github.com/sadopc/tiempo/internal/tui"
)

// localStore is a database the process opens itself: SQLite or Postgres.
type localStore interface {
	store.Repository
	auth.Directory
	Close() error
}

var (
	_ localStore = (*store.Store)(nil)
	_ localStore = (*postgres.Repository)(nil)
)

// backend is what the TUI and the export command talk to.
type backend struct {
	repo  store.Repository
	auth  tui.Authenticator
	close func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfg.Path, err)
	}
	return cfg, nil
}

func openLocal(ctx context.Context, cfg *config.Config) (localStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := store.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		r, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("backend %q has no local database", cfg.Backend)
	}
}

// openBackend connects to the configured store. The remote backend is an API
// client that serves as both repository and authenticator.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Backend == config.BackendRemote {
		c := api.NewClient(cfg.ServerURL, nil)
		return &backend{repo: c, auth: c}, nil
	}

	s, err := openLocal(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc := auth.NewService(s, cfg.AuthConfig(), cfg.RegistrationPassphrase)
	return &backend{repo: s, auth: svc, close: s.Close}, nil
}

// setupLogging sends the standard logger to debug.log next to the config file
// when debug is on, and discards it otherwise. The terminal belongs to the UI.
func setupLogging(cfg *config.Config) (func() error, error) {
	if !cfg.Debug {
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	f, err := tea.LogToFile(filepath.Join(filepath.Dir(cfg.Path), "debug.log"), "tiempo")
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return f.Close, nil
}
