// Package session persists the admin session token between runs and
// revalidates it against the backend on startup.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Verifier is the slice of the API client the store needs. Logout failures
// are swallowed: clearing a session must never be blocked by the network.
type Verifier interface {
	VerifySession(ctx context.Context, token string) (bool, error)
	Logout(ctx context.Context, token string) error
}

// Store reads and writes the session token file. At most one token is held
// at a time; Persist overwrites, Clear removes.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store for the token file at path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

// DefaultPath returns ~/.stratadmin/token.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".stratadmin", "token"), nil
}

// Restore reads the stored token and verifies it with the backend. It
// returns the token on success. On any non-success (missing file, transport
// error, invalid token) the stored token is removed and an empty string is
// returned, sending the user back to the phone step.
func (s *Store) Restore(ctx context.Context, v Verifier) string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		s.remove()
		return ""
	}

	valid, err := v.VerifySession(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("session verification failed, clearing stored token")
		s.remove()
		return ""
	}
	if !valid {
		s.log.Info().Msg("stored session no longer valid, clearing")
		s.remove()
		return ""
	}
	return token
}

// Persist writes the token to durable storage, replacing any previous one.
func (s *Store) Persist(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// Clear removes the stored token and makes a best-effort server-side logout.
// Network failures are logged and swallowed.
func (s *Store) Clear(ctx context.Context, v Verifier, token string) {
	if token != "" && v != nil {
		if err := v.Logout(ctx, token); err != nil {
			s.log.Warn().Err(err).Msg("server-side logout failed")
		}
	}
	s.remove()
}

func (s *Store) remove() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Msg("remove session token file failed")
	}
}
