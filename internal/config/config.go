// Package config loads tiempo's settings from a YAML file, TIEMPO_*
// environment variables and built-in defaults.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sadopc/tiempo/internal/auth"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

// Config is the resolved configuration.
type Config struct {
	// Path is the config file that was read or created.
	Path string

	Backend      string
	DatabasePath string
	PostgresURL  string
	ServerURL    string

	ServerAddress string

	JWTSecret              string
	JWTIssuer              string
	TokenTTL               time.Duration
	RegistrationPassphrase string

	ReminderInterval time.Duration
	ExportDir        string
	SessionPath      string
	Debug            bool
}

// AuthConfig returns the token parameters for the auth service.
func (c Config) AuthConfig() auth.Config {
	return auth.Config{Secret: c.JWTSecret, Issuer: c.JWTIssuer, TTL: c.TokenTTL}
}

// Validate checks the settings the selected backend depends on.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			return errors.New("database_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return errors.New("postgres_url is required for the postgres backend")
		}
	case BackendRemote:
		if c.ServerURL == "" {
			return errors.New("server_url is required for the remote backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, postgres or remote)", c.Backend)
	}
	if c.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}

// DefaultDir returns ~/.config/tiempo (or the platform equivalent).
func DefaultDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tiempo"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tiempo.yaml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is created with the defaults and a freshly generated
// token secret.
func Load(path string) (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	if path == "" {
		path = filepath.Join(dir, "tiempo.yaml")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TIEMPO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("database_path", filepath.Join(dir, "tiempo.db"))
	v.SetDefault("postgres_url", "")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "tiempo")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.registration_passphrase", "Admin01")
	v.SetDefault("reminder_interval", "30m")
	v.SetDefault("export_dir", "~")
	v.SetDefault("session_path", filepath.Join(dir, "session"))
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := writeDefaults(v, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Path:                   path,
		Backend:                strings.ToLower(v.GetString("backend")),
		DatabasePath:           expandHome(v.GetString("database_path")),
		PostgresURL:            v.GetString("postgres_url"),
		ServerURL:              v.GetString("server_url"),
		ServerAddress:          v.GetString("server.address"),
		JWTSecret:              v.GetString("auth.jwt_secret"),
		JWTIssuer:              v.GetString("auth.jwt_issuer"),
		TokenTTL:               v.GetDuration("auth.token_ttl"),
		RegistrationPassphrase: v.GetString("auth.registration_passphrase"),
		ReminderInterval:       v.GetDuration("reminder_interval"),
		ExportDir:              expandHome(v.GetString("export_dir")),
		SessionPath:            expandHome(v.GetString("session_path")),
		Debug:                  v.GetBool("debug"),
	}
	return cfg, nil
}

func writeDefaults(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if v.GetString("auth.jwt_secret") == "" {
		secret, err := newSecret()
		if err != nil {
			return err
		}
		v.Set("auth.jwt_secret", secret)
	}
	log.Printf("config file not found; creating %s with default values", path)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	return nil
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
