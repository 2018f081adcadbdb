package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiempo.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Equal(t, path, cfg.Path)
	require.Equal(t, BackendSQLite, cfg.Backend)
	require.Equal(t, "tiempo", cfg.JWTIssuer)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL)
	require.Equal(t, 30*time.Minute, cfg.ReminderInterval)
	require.Equal(t, "Admin01", cfg.RegistrationPassphrase)
	require.Equal(t, ":8080", cfg.ServerAddress)
	require.Len(t, cfg.JWTSecret, 64)
	require.False(t, cfg.Debug)
	require.NoError(t, cfg.Validate())

	// The generated secret is persisted and reused.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.JWTSecret, again.JWTSecret)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiempo.yaml")
	content := `backend: postgres
postgres_url: postgres://tiempo@localhost/tiempo
reminder_interval: 10m
export_dir: ~/exports
auth:
  jwt_secret: s3cret
  token_ttl: 1h
server:
  address: 127.0.0.1:9000
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendPostgres, cfg.Backend)
	require.Equal(t, "postgres://tiempo@localhost/tiempo", cfg.PostgresURL)
	require.Equal(t, 10*time.Minute, cfg.ReminderInterval)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	require.True(t, cfg.Debug)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "exports"), cfg.ExportDir)
	require.NoError(t, cfg.Validate())

	ac := cfg.AuthConfig()
	require.Equal(t, "s3cret", ac.Secret)
	require.Equal(t, time.Hour, ac.TTL)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiempo.yaml")
	t.Setenv("TIEMPO_BACKEND", "remote")
	t.Setenv("TIEMPO_SERVER_URL", "https://tiempo.example.com")
	t.Setenv("TIEMPO_AUTH_JWT_ISSUER", "other")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendRemote, cfg.Backend)
	require.Equal(t, "https://tiempo.example.com", cfg.ServerURL)
	require.Equal(t, "other", cfg.JWTIssuer)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiempo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{Backend: BackendSQLite, DatabasePath: "x.db", JWTSecret: "s"}, false},
		{"sqlite no secret", Config{Backend: BackendSQLite, DatabasePath: "x.db"}, true},
		{"postgres no url", Config{Backend: BackendPostgres, JWTSecret: "s"}, true},
		{"remote ok without secret", Config{Backend: BackendRemote, ServerURL: "http://x"}, false},
		{"remote no url", Config{Backend: BackendRemote}, true},
		{"unknown", Config{Backend: "mysql"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, home, expandHome("~"))
	require.Equal(t, filepath.Join(home, "a", "b"), expandHome("~/a/b"))
	require.Equal(t, "/abs/path", expandHome("/abs/path"))
	require.Equal(t, "~user/x", expandHome("~user/x"))
}
