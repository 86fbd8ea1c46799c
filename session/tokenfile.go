package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// TokenFile persists the bearer token and its issuance timestamp. It is the
// cookie equivalent of the browser frontend: a mode-0600 JSON file under the
// user's config directory, dropped entirely once past its retention period.
type TokenFile struct {
	path      string
	retention time.Duration
}

type persistedToken struct {
	AccessToken string    `json:"access_token"`
	IssuedAt    time.Time `json:"issued_at"`
}

// NewTokenFile creates a token file handle. Retention bounds how long a saved
// token is ever read back; Load deletes anything older.
func NewTokenFile(path string, retention time.Duration) *TokenFile {
	return &TokenFile{path: path, retention: retention}
}

// Path returns the file location.
func (f *TokenFile) Path() string { return f.path }

// Save writes the token atomically with owner-only permissions.
func (f *TokenFile) Save(token string, issuedAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	raw, err := json.Marshal(persistedToken{AccessToken: token, IssuedAt: issuedAt})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Load reads the persisted token. The boolean is false when no usable token
// exists; a token past retention is removed and reported as absent.
func (f *TokenFile) Load(now time.Time) (string, time.Time, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("read token file: %w", err)
	}

	var stored persistedToken
	if err := json.Unmarshal(raw, &stored); err != nil || stored.AccessToken == "" {
		// A corrupt file is treated like an absent one.
		_ = os.Remove(f.path)
		return "", time.Time{}, false, nil
	}

	if f.retention > 0 && now.Sub(stored.IssuedAt) >= f.retention {
		_ = os.Remove(f.path)
		return "", time.Time{}, false, nil
	}

	return stored.AccessToken, stored.IssuedAt, true, nil
}

// Clear removes the persisted token. Missing files are not an error.
func (f *TokenFile) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
