// Package credentials stores the CLI's backend token on disk.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials is a saved sign-in: the backend it belongs to, the bearer
// token, and the email it was issued for.
type Credentials struct {
	APIURL string `json:"api_url"`
	Token  string `json:"token"`
	Email  string `json:"email"`
}

// DefaultPath returns the credentials file location. HYGIENE_CREDENTIALS
// overrides it; otherwise the file lives under the user config directory,
// ~/.config/hygiene/credentials.json on Linux.
func DefaultPath() string {
	if p := os.Getenv("HYGIENE_CREDENTIALS"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hygiene", "credentials.json")
}

// Load reads the credentials at path. A missing file returns nil with no
// error so callers can tell "not signed in" from a real failure.
func Load(path string) (*Credentials, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	if creds.Token == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save writes the credentials to path, owner-readable only.
func Save(path string, creds Credentials) error {
	if path == "" {
		return fmt.Errorf("no credentials path available")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Remove deletes the credentials file. A missing file is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
