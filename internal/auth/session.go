package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionFile persists the session token between runs of the terminal UI.
type SessionFile struct {
	Path string
}

// Load returns the stored token, or "" when there is none.
func (f SessionFile) Load() (string, error) {
	if f.Path == "" {
		return "", nil
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token readable by the owner only.
func (f SessionFile) Save(token string) error {
	if f.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(f.Path, 0o600); err != nil {
		return fmt.Errorf("restrict session: %w", err)
	}
	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (f SessionFile) Clear() error {
	if f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
